package connector

import (
	"context"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/xerrors"
)

type sqliteConnector struct {
	cfg     *SQLiteConfig
	db      *gorm.DB
	logger  clog.Logger
	healthy atomic.Bool
}

// NewSQLite 创建 SQLite 连接器
//
// 主要面向测试和本地开发，Path 为空时使用内存库。
func NewSQLite(cfg *SQLiteConfig, opts ...Option) (SQLiteConnector, error) {
	if cfg == nil {
		cfg = &SQLiteConfig{}
	}
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Wrap(err, "invalid sqlite config")
	}

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	opt.applyDefaults()

	c := &sqliteConnector{
		cfg:    cfg,
		logger: opt.logger.With(clog.String("connector", "sqlite"), clog.String("name", cfg.Name)),
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	if err != nil {
		return nil, xerrors.Wrapf(err, "sqlite connector[%s]: open failed", cfg.Name)
	}

	// 内存库的每个池化连接各自是一个独立数据库，必须限制为单连接；
	// 文件库同样受益：单写连接避免 SQLITE_BUSY。
	sqlDB, err := db.DB()
	if err != nil {
		return nil, xerrors.Wrapf(err, "sqlite connector[%s]: failed to get db instance", cfg.Name)
	}
	sqlDB.SetMaxOpenConns(1)

	c.db = db
	return c, nil
}

// Connect 建立连接
func (c *sqliteConnector) Connect(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return xerrors.Wrapf(err, "sqlite connector[%s]: failed to get db instance", c.cfg.Name)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return xerrors.Wrapf(err, "sqlite connector[%s]: ping failed", c.cfg.Name)
	}
	c.healthy.Store(true)
	return nil
}

// Close 关闭连接
func (c *sqliteConnector) Close() error {
	c.healthy.Store(false)
	sqlDB, err := c.db.DB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}

// HealthCheck 检查连接健康状态
func (c *sqliteConnector) HealthCheck(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return ErrClientNil
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		c.healthy.Store(false)
		return err
	}
	c.healthy.Store(true)
	return nil
}

// IsHealthy 返回缓存的健康状态
func (c *sqliteConnector) IsHealthy() bool {
	return c.healthy.Load()
}

// GetClient 获取 GORM 实例
func (c *sqliteConnector) GetClient() *gorm.DB {
	return c.db
}
