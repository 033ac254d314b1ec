package clog

import "testing"

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"bad level", &Config{Level: "verbose"}},
		{"bad format", &Config{Format: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected error for invalid config")
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	logger, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) failed: %v", err)
	}
	logger.Info("hello", String("k", "v"))

	// 子 Logger 不影响父 Logger
	child := logger.WithNamespace("seckill", "order")
	child.Debug("namespaced", Int64("voucher_id", 1))
	logger.With(String("component", "test")).Info("with fields")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Info("dropped")
	logger.Error("dropped", Error(nil))
	if logger.With(String("k", "v")) == nil {
		t.Error("With should return a logger")
	}
}
