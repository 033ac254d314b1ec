// Package connector 提供统一的外部资源连接管理能力。
//
// 设计理念：
//   - 接口优先：通过 Connector 接口提供一致的连接管理 API
//   - 显式依赖注入：通过构造函数注入依赖，避免全局状态
//   - 延迟连接：NewXXX() 创建连接器但不立即建立连接，Connect() 时才连接
//   - 借用模型：组件（dlock、cache、db 等）仅借用连接器，
//     连接的生命周期由应用层负责，遵循"谁创建，谁负责释放"
//
// 基本使用：
//
//	conn, err := connector.NewRedis(&connector.RedisConfig{Addr: "127.0.0.1:6379"})
//	if err != nil {
//	    panic(err)
//	}
//	defer conn.Close()
//
//	if err := conn.Connect(ctx); err != nil {
//	    panic(err)
//	}
//	client := conn.GetClient()
package connector

import (
	"context"

	"github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"
	"gorm.io/gorm"
)

// Connector 定义所有连接器的通用行为。
//
// 接口方法均为并发安全，可从多个协程同时调用。
type Connector interface {
	// Connect 建立连接，阻塞直到成功或失败。幂等，可安全多次调用。
	Connect(ctx context.Context) error

	// Close 关闭连接并释放资源。幂等。
	Close() error

	// HealthCheck 主动检查连接健康状态。
	HealthCheck(ctx context.Context) error

	// IsHealthy 返回最近一次已知的健康状态，不产生网络调用。
	IsHealthy() bool
}

// RedisConnector Redis 连接器
type RedisConnector interface {
	Connector
	GetClient() *redis.Client
}

// MySQLConnector MySQL 连接器，返回 GORM 实例
type MySQLConnector interface {
	Connector
	GetClient() *gorm.DB
}

// SQLiteConnector SQLite 连接器，返回 GORM 实例
//
// 主要用于测试和本地开发场景。
type SQLiteConnector interface {
	Connector
	GetClient() *gorm.DB
}

// EtcdConnector Etcd 连接器
type EtcdConnector interface {
	Connector
	GetClient() *clientv3.Client
}
