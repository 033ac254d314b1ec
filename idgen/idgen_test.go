package idgen

import (
	"testing"
	"time"

	"github.com/ceyewan/seckill/testkit"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name      string
		timestamp int64
		sequence  int64
		want      int64
	}{
		{"zero", 0, 0, 0},
		{"sequence only", 0, 42, 42},
		{"timestamp only", 1, 0, 1 << 32},
		{"both", 3, 7, 3<<32 | 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compose(tt.timestamp, tt.sequence); got != tt.want {
				t.Errorf("compose(%d, %d) = %d, want %d", tt.timestamp, tt.sequence, got, tt.want)
			}
		})
	}
}

func TestCompose_Monotonic(t *testing.T) {
	// 时间推进后的 ID 必然大于此前任意序列号的 ID
	early := compose(100, 1<<31)
	late := compose(101, 1)
	if late <= early {
		t.Errorf("expected monotonic ids, got early=%d late=%d", early, late)
	}
}

func TestNextID(t *testing.T) {
	conn := testkit.GetRedisConnector(t)

	gen, err := New(conn, "test:icr:"+testkit.NewID(), WithLogger(testkit.NewLogger()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		id, err := gen.NextID(ctx, "order")
		if err != nil {
			t.Fatalf("NextID failed: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id: %d", id)
		}
		seen[id] = true
	}
}
