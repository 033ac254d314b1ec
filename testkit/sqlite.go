package testkit

import (
	"context"
	"testing"

	"github.com/ceyewan/seckill/connector"
)

// GetSQLiteConnector 获取已连接的内存 SQLite 连接器
// 每次调用都是一个全新的独立数据库
func GetSQLiteConnector(t *testing.T) connector.SQLiteConnector {
	conn, err := connector.NewSQLite(&connector.SQLiteConfig{
		Name: "test-sqlite",
		Path: ":memory:",
	}, connector.WithLogger(NewLogger()))
	if err != nil {
		t.Fatalf("failed to create sqlite connector: %v", err)
	}
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}
