package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webscout/internal/domain"
	"webscout/internal/infra/config"
	"webscout/internal/infra/logger"
)

var sample = []domain.SearchResult{
	{Title: "Go", URL: "https://go.dev/", Snippet: "The Go programming language"},
	{Title: "Instant", Snippet: "no url"},
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", sample, time.Minute))
	got, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, sample, got)

	got[0].Title = "mutated"
	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "Go", again[0].Title)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(10)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", sample, time.Minute))
	now = now.Add(2 * time.Minute)
	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryZeroTTLSkipsStore(t *testing.T) {
	m := NewMemory(10)
	require.NoError(t, m.Set(context.Background(), "k", sample, 0))
	assert.Equal(t, 0, m.Len())
}

func TestMemoryEviction(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(2)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "expired", sample, time.Second))
	now = now.Add(time.Minute)
	require.NoError(t, m.Set(ctx, "a", sample, time.Hour))
	require.NoError(t, m.Set(ctx, "b", sample, 2*time.Hour))
	assert.Equal(t, 2, m.Len(), "expired entry swept")

	require.NoError(t, m.Set(ctx, "c", sample, 3*time.Hour))
	assert.Equal(t, 2, m.Len())
	_, ok := m.Get(ctx, "a")
	assert.False(t, ok, "entry closest to expiry dropped")
	_, ok = m.Get(ctx, "c")
	assert.True(t, ok)
}

func newRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "test:"), mr
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedis(t)

	_, ok := r.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "k", sample, time.Minute))
	assert.True(t, mr.Exists("test:k"))
	assert.Equal(t, time.Minute, mr.TTL("test:k"))

	got, ok := r.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, sample, got)

	mr.FastForward(2 * time.Minute)
	_, ok = r.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisEmptyList(t *testing.T) {
	ctx := context.Background()
	r, _ := newRedis(t)
	require.NoError(t, r.Set(ctx, "empty", nil, time.Minute))
	got, ok := r.Get(ctx, "empty")
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestRedisCorruptValue(t *testing.T) {
	r, mr := newRedis(t)
	require.NoError(t, mr.Set("test:bad", "{not json"))
	_, ok := r.Get(context.Background(), "bad")
	assert.False(t, ok)
}

func TestRedisUnavailable(t *testing.T) {
	r, mr := newRedis(t)
	mr.Close()

	err := r.Set(context.Background(), "k", sample, time.Minute)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCacheStore))
	assert.Equal(t, domain.CodeCacheStore, domain.ErrorCodeOf(err))
	assert.Error(t, r.Ping(context.Background()))
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := config.Defaults().Cache

	c, err := New(cfg, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "memory", c.Name())

	cfg.Backend = "none"
	c, err = New(cfg, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), "k", sample, time.Minute))
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)

	mr := miniredis.RunT(t)
	cfg.Backend = "redis"
	cfg.RedisAddr = mr.Addr()
	c, err = New(cfg, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "redis", c.Name())
	require.NoError(t, c.Set(context.Background(), "k", sample, time.Minute))
	assert.True(t, mr.Exists(cfg.KeyPrefix+"k"))

	cfg.Backend = "memcached"
	_, err = New(cfg, logger.Discard())
	assert.Error(t, err)
}
