package cache

import "github.com/ceyewan/seckill/xerrors"

var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("cache: config is nil")

	// ErrCacheMiss 缓存未命中
	ErrCacheMiss = xerrors.New("cache: miss")
)
