package connector

import "github.com/ceyewan/seckill/xerrors"

var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("connector: config is nil")

	// ErrClientNil 客户端未初始化或已关闭
	ErrClientNil = xerrors.New("connector: client is nil")
)
