package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	val := []byte("fonts")
	require.NoError(t, m.Set(ctx, "k", val, time.Hour))
	val[0] = 'X'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fonts", string(got), "stored value must not alias the caller's slice")

	now = now.Add(time.Hour)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok, "entry must expire at its ttl")

	require.NoError(t, m.Set(ctx, "forever", []byte("x"), 0))
	now = now.Add(1000 * time.Hour)
	_, ok, _ = m.Get(ctx, "forever")
	assert.True(t, ok)

	require.NoError(t, m.Delete(ctx, "forever"))
	_, ok, _ = m.Get(ctx, "forever")
	assert.False(t, ok)
	assert.NoError(t, m.Delete(ctx, "never-set"))
}

func TestRedisKeyPrefix(t *testing.T) {
	r := NewRedis(RedisConfig{Addr: "127.0.0.1:0", Prefix: "sf:"})
	defer r.Close()
	assert.Equal(t, "sf:", r.prefix)
}
