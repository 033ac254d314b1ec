package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/seckill/testkit"
)

func newTestLimiter(t *testing.T) *Limiter {
	conn := testkit.GetRedisConnector(t)
	l, err := New(conn, "test:rl:"+testkit.NewID()+":", WithLogger(testkit.NewLogger()))
	require.NoError(t, err)
	return l
}

func TestLimiter_BurstThenDeny(t *testing.T) {
	l := newTestLimiter(t)
	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	limit := Limit{Rate: 1, Burst: 3}

	for i := 0; i < 3; i++ {
		allowed, err := l.Allow(ctx, "user:1", limit)
		require.NoError(t, err)
		assert.True(t, allowed, "突发额度内应放行")
	}

	allowed, err := l.Allow(ctx, "user:1", limit)
	require.NoError(t, err)
	assert.False(t, allowed, "桶耗尽后应拒绝")
}

func TestLimiter_RefillOverTime(t *testing.T) {
	l := newTestLimiter(t)
	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	limit := Limit{Rate: 10, Burst: 1}

	allowed, err := l.Allow(ctx, "user:2", limit)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = l.Allow(ctx, "user:2", limit)
	require.NoError(t, err)
	require.False(t, allowed)

	// 10/s 的速率下 150ms 后应补出一个令牌
	time.Sleep(150 * time.Millisecond)
	allowed, err = l.Allow(ctx, "user:2", limit)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLimiter_IsolatedKeys(t *testing.T) {
	l := newTestLimiter(t)
	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	limit := Limit{Rate: 1, Burst: 1}

	allowed, err := l.Allow(ctx, "user:a", limit)
	require.NoError(t, err)
	require.True(t, allowed)

	// 另一个键的桶独立
	allowed, err = l.Allow(ctx, "user:b", limit)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLimiter_InvalidInput(t *testing.T) {
	l := newTestLimiter(t)
	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	_, err := l.Allow(ctx, "", Limit{Rate: 1, Burst: 1})
	assert.Error(t, err)

	_, err = l.Allow(ctx, "user:1", Limit{Rate: 0, Burst: 1})
	assert.Error(t, err)
}
