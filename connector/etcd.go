package connector

import (
	"context"
	"sync/atomic"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/xerrors"
)

type etcdConnector struct {
	cfg     *EtcdConfig
	client  *clientv3.Client
	logger  clog.Logger
	healthy atomic.Bool
}

// NewEtcd 创建 Etcd 连接器
func NewEtcd(cfg *EtcdConfig, opts ...Option) (EtcdConnector, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Wrap(err, "invalid etcd config")
	}

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	opt.applyDefaults()

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, xerrors.Wrapf(err, "etcd connector[%s]: create client failed", cfg.Name)
	}

	return &etcdConnector{
		cfg:    cfg,
		client: client,
		logger: opt.logger.With(clog.String("connector", "etcd"), clog.String("name", cfg.Name)),
	}, nil
}

// Connect 建立连接
func (c *etcdConnector) Connect(ctx context.Context) error {
	// clientv3 是懒连接的，这里通过 Status 验证可达性
	if _, err := c.client.Status(ctx, c.cfg.Endpoints[0]); err != nil {
		c.logger.Error("failed to connect to etcd", clog.Error(err))
		return xerrors.Wrapf(err, "etcd connector[%s]: connection failed", c.cfg.Name)
	}
	c.healthy.Store(true)
	c.logger.Info("connected to etcd", clog.Any("endpoints", c.cfg.Endpoints))
	return nil
}

// Close 关闭连接
func (c *etcdConnector) Close() error {
	c.healthy.Store(false)
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// HealthCheck 检查连接健康状态
func (c *etcdConnector) HealthCheck(ctx context.Context) error {
	if c.client == nil {
		return ErrClientNil
	}
	if _, err := c.client.Status(ctx, c.cfg.Endpoints[0]); err != nil {
		c.healthy.Store(false)
		return xerrors.Wrapf(err, "etcd connector[%s]: health check failed", c.cfg.Name)
	}
	c.healthy.Store(true)
	return nil
}

// IsHealthy 返回缓存的健康状态
func (c *etcdConnector) IsHealthy() bool {
	return c.healthy.Load()
}

// GetClient 获取原生 Etcd 客户端
func (c *etcdConnector) GetClient() *clientv3.Client {
	return c.client
}
