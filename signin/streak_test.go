package signin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/seckill/cache"
	"github.com/ceyewan/seckill/testkit"
)

func TestTrailingStreak(t *testing.T) {
	tests := []struct {
		name    string
		bits    uint64
		maxDays int
		want    int
	}{
		{"no activity", 0b0, 10, 0},
		{"today only", 0b1, 10, 1},
		{"three in a row", 0b111, 10, 3},
		{"gap yesterday", 0b101, 10, 1},
		{"today missing", 0b110, 10, 0},
		{"full month", 1<<31 - 1, 31, 31},
		{"bounded by max days", 0b1111, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trailingStreak(tt.bits, tt.maxDays))
		})
	}
}

// 打卡日为当月 {1,2,3,5} 时：第 3 天查询得 3，第 5 天得 1，第 4 天得 0。
func TestStreak_GapResetsCount(t *testing.T) {
	conn := testkit.GetRedisConnector(t)
	c, err := cache.New(&cache.Config{Prefix: "test:" + testkit.NewID() + ":"},
		cache.WithRedisConnector(conn), cache.WithLogger(testkit.NewLogger()))
	require.NoError(t, err)

	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	svc, err := NewService(c,
		WithLogger(testkit.NewLogger()),
		withNow(func() time.Time { return clock }))
	require.NoError(t, err)

	entityID := int64(1001)
	for _, day := range []int{1, 2, 3, 5} {
		clock = base.AddDate(0, 0, day-1)
		require.NoError(t, svc.MarkActive(ctx, entityID))
	}

	clock = base.AddDate(0, 0, 2) // 第 3 天
	got, err := svc.CurrentStreak(ctx, entityID)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	clock = base.AddDate(0, 0, 4) // 第 5 天
	got, err = svc.CurrentStreak(ctx, entityID)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	clock = base.AddDate(0, 0, 3) // 第 4 天，未打卡
	got, err = svc.CurrentStreak(ctx, entityID)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestMarkActive_Idempotent(t *testing.T) {
	conn := testkit.GetRedisConnector(t)
	c, err := cache.New(&cache.Config{Prefix: "test:" + testkit.NewID() + ":"},
		cache.WithRedisConnector(conn), cache.WithLogger(testkit.NewLogger()))
	require.NoError(t, err)

	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	clock := time.Date(2026, 7, 15, 8, 0, 0, 0, time.UTC)
	svc, err := NewService(c, withNow(func() time.Time { return clock }))
	require.NoError(t, err)

	entityID := int64(2002)
	require.NoError(t, svc.MarkActive(ctx, entityID))
	require.NoError(t, svc.MarkActive(ctx, entityID))

	got, err := svc.CurrentStreak(ctx, entityID)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestStreak_MonthBoundary(t *testing.T) {
	conn := testkit.GetRedisConnector(t)
	c, err := cache.New(&cache.Config{Prefix: "test:" + testkit.NewID() + ":"},
		cache.WithRedisConnector(conn), cache.WithLogger(testkit.NewLogger()))
	require.NoError(t, err)

	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	clock := time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)
	svc, err := NewService(c, withNow(func() time.Time { return clock }))
	require.NoError(t, err)

	entityID := int64(3003)
	require.NoError(t, svc.MarkActive(ctx, entityID))

	// 进入新的月份后在新位图上重新累计
	clock = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, svc.MarkActive(ctx, entityID))

	got, err := svc.CurrentStreak(ctx, entityID)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}
