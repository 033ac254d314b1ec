package connector

import (
	"context"
	"sync/atomic"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/xerrors"
)

type mysqlConnector struct {
	cfg     *MySQLConfig
	db      *gorm.DB
	logger  clog.Logger
	healthy atomic.Bool
}

// NewMySQL 创建 MySQL 连接器
func NewMySQL(cfg *MySQLConfig, opts ...Option) (MySQLConnector, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Wrap(err, "invalid mysql config")
	}

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	opt.applyDefaults()

	c := &mysqlConnector{
		cfg:    cfg,
		logger: opt.logger.With(clog.String("connector", "mysql"), clog.String("name", cfg.Name)),
	}

	// GORM 的日志在 db 组件中按需替换，连接器层保持静默
	db, err := gorm.Open(mysql.Open(cfg.buildDSN()), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	if err != nil {
		return nil, xerrors.Wrapf(err, "mysql connector[%s]: open failed", cfg.Name)
	}

	c.db = db
	return c, nil
}

// Connect 建立连接并配置连接池
func (c *mysqlConnector) Connect(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return xerrors.Wrapf(err, "mysql connector[%s]: failed to get db instance", c.cfg.Name)
	}

	sqlDB.SetMaxIdleConns(c.cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(c.cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		c.logger.Error("failed to connect to mysql", clog.Error(err))
		return xerrors.Wrapf(err, "mysql connector[%s]: ping failed", c.cfg.Name)
	}

	c.healthy.Store(true)
	c.logger.Info("connected to mysql",
		clog.String("host", c.cfg.Host),
		clog.String("database", c.cfg.Database))
	return nil
}

// Close 关闭连接
func (c *mysqlConnector) Close() error {
	c.healthy.Store(false)
	sqlDB, err := c.db.DB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}

// HealthCheck 检查连接健康状态
func (c *mysqlConnector) HealthCheck(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return ErrClientNil
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		c.healthy.Store(false)
		return xerrors.Wrapf(err, "mysql connector[%s]: health check failed", c.cfg.Name)
	}
	c.healthy.Store(true)
	return nil
}

// IsHealthy 返回缓存的健康状态
func (c *mysqlConnector) IsHealthy() bool {
	return c.healthy.Load()
}

// GetClient 获取 GORM 实例
func (c *mysqlConnector) GetClient() *gorm.DB {
	return c.db
}
