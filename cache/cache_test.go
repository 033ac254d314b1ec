package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/seckill/testkit"
)

type payload struct {
	Name  string `json:"name" msgpack:"name"`
	Count int    `json:"count" msgpack:"count"`
}

func newTestCache(t *testing.T, serializerType string) Cache {
	conn := testkit.GetRedisConnector(t)
	c, err := New(&Config{
		Prefix:     "test:" + testkit.NewID() + ":",
		Serializer: serializerType,
	}, WithRedisConnector(conn), WithLogger(testkit.NewLogger()))
	require.NoError(t, err)
	return c
}

func TestCache_SetGet(t *testing.T) {
	for _, serializerType := range []string{"json", "msgpack"} {
		t.Run(serializerType, func(t *testing.T) {
			c := newTestCache(t, serializerType)
			ctx, cancel := testkit.NewContext(t, 10*time.Second)
			defer cancel()

			in := payload{Name: "voucher", Count: 42}
			require.NoError(t, c.Set(ctx, "k1", in, time.Minute))

			var out payload
			require.NoError(t, c.Get(ctx, "k1", &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := newTestCache(t, "json")
	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	var out payload
	err := c.Get(ctx, "absent", &out)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_DeleteAndHas(t *testing.T) {
	c := newTestCache(t, "json")
	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	require.NoError(t, c.Set(ctx, "k1", payload{Name: "x"}, time.Minute))

	ok, err := c.Has(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "k1"))

	ok, err = c.Has(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_BitOps(t *testing.T) {
	c := newTestCache(t, "json")
	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	// 置第 1、2、3、5 位，读 1..5 位应得 11101
	for _, offset := range []int64{1, 2, 3, 5} {
		require.NoError(t, c.SetBit(ctx, "bits", offset, 1))
	}

	got, err := c.BitFieldGet(ctx, "bits", 5, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b11101), got)

	// 键不存在时返回 0
	got, err = c.BitFieldGet(ctx, "absent-bits", 8, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)

	// 非法位宽
	_, err = c.BitFieldGet(ctx, "bits", 0, 0)
	assert.Error(t, err)
	_, err = c.BitFieldGet(ctx, "bits", 64, 0)
	assert.Error(t, err)
}
