package db

import "github.com/ceyewan/seckill/xerrors"

// Config DB 组件配置
type Config struct {
	// Driver 指定数据库驱动类型: "mysql" 或 "sqlite"，默认 "mysql"
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// EnableSharding 是否开启分表特性
	EnableSharding bool `json:"enable_sharding" yaml:"enable_sharding" mapstructure:"enable_sharding"`

	// ShardingRules 分表规则配置列表
	ShardingRules []ShardingRule `json:"sharding_rules" yaml:"sharding_rules" mapstructure:"sharding_rules"`
}

// ShardingRule 分表规则
type ShardingRule struct {
	// ShardingKey 分片键 (例如 "user_id")
	ShardingKey string `json:"sharding_key" yaml:"sharding_key" mapstructure:"sharding_key"`

	// NumberOfShards 分片数量 (例如 64)
	NumberOfShards uint `json:"number_of_shards" yaml:"number_of_shards" mapstructure:"number_of_shards"`

	// Tables 应用此规则的逻辑表名列表
	Tables []string `json:"tables" yaml:"tables" mapstructure:"tables"`
}

func (c *Config) setDefaults() {
	if c.Driver == "" {
		c.Driver = "mysql"
	}
}

func (c *Config) validate() error {
	if c.Driver != "mysql" && c.Driver != "sqlite" {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "db: unsupported driver: %s", c.Driver)
	}

	if c.EnableSharding && len(c.ShardingRules) == 0 {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "db: sharding enabled but no rules provided")
	}
	for _, rule := range c.ShardingRules {
		if rule.ShardingKey == "" {
			return xerrors.Wrap(xerrors.ErrInvalidInput, "db: sharding key cannot be empty")
		}
		if rule.NumberOfShards == 0 {
			return xerrors.Wrap(xerrors.ErrInvalidInput, "db: number of shards must be greater than 0")
		}
		if len(rule.Tables) == 0 {
			return xerrors.Wrap(xerrors.ErrInvalidInput, "db: sharding tables cannot be empty")
		}
	}
	return nil
}
