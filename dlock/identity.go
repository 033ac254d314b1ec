package dlock

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// Identity 是锁持有者的进程级身份。
//
// 进程启动时创建一次，之后注入到每个 Locker 中，而不是隐藏在
// 包级全局变量里。每次加锁尝试通过 Token 派生一个新的持有者令牌：
// 进程前缀保证跨进程不撞，随机后缀保证同进程内并发的执行流
// （goroutine）互不混淆。令牌只用于相等比较，不承担保密职责。
type Identity struct {
	prefix string
}

// NewIdentity 创建进程级持有者身份
func NewIdentity() *Identity {
	return &Identity{prefix: uuid.NewString() + "-"}
}

// Token 派生一次加锁尝试使用的持有者令牌
func (id *Identity) Token() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand 失败极罕见，退化为仅进程前缀加 uuid
		return id.prefix + uuid.NewString()
	}
	return id.prefix + hex.EncodeToString(buf)
}

// String 返回进程前缀，便于日志排查
func (id *Identity) String() string {
	return id.prefix
}
