package cache

import "github.com/ceyewan/seckill/cache/serializer"

// Config 缓存组件配置
type Config struct {
	// Prefix 缓存 Key 的全局前缀，例如 "seckill:"
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// Serializer 对象序列化方式 (json | msgpack)，默认 json
	Serializer string `json:"serializer" yaml:"serializer" mapstructure:"serializer"`
}

func (c *Config) validate() error {
	if c.Serializer == "" {
		c.Serializer = "json"
	}
	if _, err := serializer.New(c.Serializer); err != nil {
		return err
	}
	return nil
}
