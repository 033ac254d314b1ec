// Package config 负责应用配置的加载与热更新。
//
// 加载优先级从高到低：环境变量（前缀 SECKILL、点号换下划线）→
// .env 文件 → yaml 配置文件 → 代码内默认值。配置文件变更通过
// fsnotify 监听，回调在独立 goroutine 中触发。
package config

import (
	"time"

	"github.com/ceyewan/seckill/cache"
	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/connector"
	"github.com/ceyewan/seckill/db"
	"github.com/ceyewan/seckill/dlock"
	"github.com/ceyewan/seckill/ratelimit"
	"github.com/ceyewan/seckill/xerrors"
)

// AppConfig 应用的完整配置
type AppConfig struct {
	App     AppInfo                `mapstructure:"app"`
	Log     clog.Config            `mapstructure:"log"`
	Server  ServerConfig           `mapstructure:"server"`
	Redis   connector.RedisConfig  `mapstructure:"redis"`
	MySQL   connector.MySQLConfig  `mapstructure:"mysql"`
	SQLite  connector.SQLiteConfig `mapstructure:"sqlite"`
	Etcd    connector.EtcdConfig   `mapstructure:"etcd"`
	DB      db.Config              `mapstructure:"db"`
	Lock    dlock.Config           `mapstructure:"lock"`
	Cache   cache.Config           `mapstructure:"cache"`
	Seckill SeckillConfig          `mapstructure:"seckill"`
}

// AppInfo 应用元信息
type AppInfo struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"` // dev | prod
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SeckillConfig 秒杀域配置
type SeckillConfig struct {
	// StockKeyPrefix Redis 库存计数键前缀
	StockKeyPrefix string `mapstructure:"stock_key_prefix"`
	// IDKeyPrefix 订单号序列键前缀
	IDKeyPrefix string `mapstructure:"id_key_prefix"`
	// RateLimit 下单接口的按用户限流规则，Rate 为 0 时不限流
	RateLimit ratelimit.Limit `mapstructure:"rate_limit"`
}

// NewDefaultConfig 返回带默认值的配置
func NewDefaultConfig() *AppConfig {
	return &AppConfig{
		App: AppInfo{Name: "seckill", Env: "dev"},
		Log: clog.Config{Level: "info", Format: "json", Output: "stdout"},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Redis: connector.RedisConfig{Addr: "localhost:6379"},
		DB:    db.Config{Driver: "mysql"},
		Lock: dlock.Config{
			Driver:     dlock.DriverRedis,
			Prefix:     "lock:",
			DefaultTTL: 30 * time.Second,
		},
		Cache: cache.Config{Prefix: "seckill:", Serializer: "json"},
		Seckill: SeckillConfig{
			StockKeyPrefix: "seckill:stock:",
			IDKeyPrefix:    "icr",
		},
	}
}

func (c *AppConfig) validate() error {
	if c.App.Name == "" {
		return xerrors.New("config: app.name is required")
	}
	if c.Server.Addr == "" {
		return xerrors.New("config: server.addr is required")
	}
	if c.Redis.Addr == "" {
		return xerrors.New("config: redis.addr is required")
	}
	return nil
}
