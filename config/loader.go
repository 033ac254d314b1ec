package config

import (
	"errors"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ceyewan/seckill/xerrors"
)

// Loader 加载配置并提供变更通知
type Loader struct {
	v  *viper.Viper
	mu sync.RWMutex

	current   *AppConfig
	callbacks []func(*AppConfig)
}

// LoadOptions 加载选项
type LoadOptions struct {
	// Name 配置文件名（不含扩展名），默认 "config"
	Name string
	// Paths 搜索路径，默认 ["."]
	Paths []string
	// EnvPrefix 环境变量前缀，默认 "SECKILL"
	EnvPrefix string
}

func (o *LoadOptions) setDefaults() {
	if o.Name == "" {
		o.Name = "config"
	}
	if len(o.Paths) == 0 {
		o.Paths = []string{"."}
	}
	if o.EnvPrefix == "" {
		o.EnvPrefix = "SECKILL"
	}
}

// Load 加载配置并开始监听文件变更
//
// 找不到配置文件不是错误：此时只使用默认值与环境变量。
func Load(opts *LoadOptions) (*Loader, error) {
	if opts == nil {
		opts = &LoadOptions{}
	}
	opts.setDefaults()

	// .env 不存在时静默忽略
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName(opts.Name)
	v.SetConfigType("yaml")
	for _, p := range opts.Paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(opts.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, xerrors.Wrap(err, "config: read config file failed")
		}
	}

	l := &Loader{v: v}
	cfg, err := l.unmarshal()
	if err != nil {
		return nil, err
	}
	l.current = cfg

	v.OnConfigChange(func(fsnotify.Event) {
		fresh, err := l.unmarshal()
		if err != nil {
			// 非法的新配置不生效，保留旧值
			return
		}
		l.mu.Lock()
		l.current = fresh
		callbacks := append([]func(*AppConfig){}, l.callbacks...)
		l.mu.Unlock()
		for _, cb := range callbacks {
			cb(fresh)
		}
	})
	v.WatchConfig()

	return l, nil
}

// Current 返回当前生效的配置快照
func (l *Loader) Current() *AppConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange 注册配置变更回调
func (l *Loader) OnChange(cb func(*AppConfig)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks = append(l.callbacks, cb)
}

func (l *Loader) unmarshal() (*AppConfig, error) {
	cfg := NewDefaultConfig()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, xerrors.Wrap(err, "config: unmarshal failed")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
