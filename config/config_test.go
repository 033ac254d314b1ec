package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	l, err := Load(&LoadOptions{
		Name:  "no-such-config",
		Paths: []string{t.TempDir()},
	})
	require.NoError(t, err)

	cfg := l.Current()
	assert.Equal(t, "seckill", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Lock.DefaultTTL)
	assert.Equal(t, "seckill:stock:", cfg.Seckill.StockKeyPrefix)
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
app:
  name: seckill-test
  env: prod
server:
  addr: ":9090"
redis:
  addr: "redis.internal:6379"
  db: 3
lock:
  prefix: "mylock:"
  default_ttl: 10s
db:
  driver: sqlite
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	l, err := Load(&LoadOptions{Paths: []string{dir}})
	require.NoError(t, err)

	cfg := l.Current()
	assert.Equal(t, "seckill-test", cfg.App.Name)
	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "mylock:", cfg.Lock.Prefix)
	assert.Equal(t, 10*time.Second, cfg.Lock.DefaultTTL)
	assert.Equal(t, "sqlite", cfg.DB.Driver)

	// 未覆盖的字段保留默认值
	assert.Equal(t, "seckill:stock:", cfg.Seckill.StockKeyPrefix)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  addr: ""
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	_, err := Load(&LoadOptions{Paths: []string{dir}})
	assert.Error(t, err)
}
