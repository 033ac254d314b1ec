package signin

// trailingStreak 统计 bits 从最低位开始连续为 1 的位数
//
// 打包约定：最低位是当天，次低位是前一天，依此类推。遇到第一个
// 0 即停止，因此结果就是"截至当天的连续活跃天数"。maxDays 限定
// 扫描上限（通常是当月第几天）。
func trailingStreak(bits uint64, maxDays int) int {
	count := 0
	for count < maxDays && bits&1 == 1 {
		count++
		bits >>= 1
	}
	return count
}
