// Package db 提供基于 GORM 的数据库组件。
//
// 在 MySQL/SQLite 连接器的基础上提供：
//   - GORM 实例获取与事务管理
//   - 可选的分表能力（基于 gorm.io/sharding）
//   - SQL 日志到 clog 的适配
//
// 基本使用：
//
//	database, _ := db.New(&db.Config{Driver: "mysql"},
//	    db.WithMySQLConnector(mysqlConn), db.WithLogger(logger))
//
//	var orders []VoucherOrder
//	database.DB(ctx).Where("user_id = ?", uid).Find(&orders)
//
//	err := database.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
//	    return tx.Create(&order).Error
//	})
package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/sharding"

	"github.com/ceyewan/seckill/clog"
)

// DB 定义了数据库组件的核心能力
type DB interface {
	// DB 获取底层的 *gorm.DB 实例
	DB(ctx context.Context) *gorm.DB

	// Transaction 执行事务操作
	// fn 中的 tx 对象仅在当前事务范围内有效
	Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error

	// AutoMigrate 迁移表结构
	AutoMigrate(models ...any) error
}

type database struct {
	client *gorm.DB
	logger clog.Logger
}

// New 创建数据库组件
//
// Driver 为 "mysql" 时需要 WithMySQLConnector，"sqlite" 时需要
// WithSQLiteConnector。组件借用连接器的连接，不负责其生命周期。
func New(cfg *Config, opts ...Option) (DB, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	if opt.logger == nil {
		opt.logger = clog.Default()
	}

	var client *gorm.DB
	switch cfg.Driver {
	case "mysql":
		if opt.mysqlConnector == nil {
			return nil, ErrMySQLConnectorRequired
		}
		client = opt.mysqlConnector.GetClient()
	case "sqlite":
		if opt.sqliteConnector == nil {
			return nil, ErrSQLiteConnectorRequired
		}
		client = opt.sqliteConnector.GetClient()
	}

	// 以会话形式替换 GORM 日志，不影响连接器持有的原始实例
	client = client.Session(&gorm.Session{
		Logger: newGormLogger(opt.logger, opt.silentMode),
	})

	if cfg.EnableSharding {
		for _, rule := range cfg.ShardingRules {
			middleware := sharding.Register(sharding.Config{
				ShardingKey:         rule.ShardingKey,
				NumberOfShards:      rule.NumberOfShards,
				PrimaryKeyGenerator: sharding.PKSnowflake,
			}, toAnySlice(rule.Tables)...)
			if err := client.Use(middleware); err != nil {
				return nil, err
			}
		}
	}

	return &database{
		client: client,
		logger: opt.logger,
	}, nil
}

func (d *database) DB(ctx context.Context) *gorm.DB {
	return d.client.WithContext(ctx)
}

func (d *database) Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	return d.client.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, tx)
	})
}

func (d *database) AutoMigrate(models ...any) error {
	return d.client.AutoMigrate(models...)
}

func toAnySlice(tables []string) []any {
	out := make([]any, 0, len(tables))
	for _, t := range tables {
		out = append(out, t)
	}
	return out
}
