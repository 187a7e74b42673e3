package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"webscout/internal/domain"
)

// Redis shares result lists between processes. Values are JSON arrays with
// a server-side expiry.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis wraps an existing client. prefix is prepended to every key.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Name() string { return "redis" }

// Get treats a miss, a connection failure and a corrupt value alike.
func (r *Redis) Get(ctx context.Context, key string) ([]domain.SearchResult, bool) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var results []domain.SearchResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (r *Redis) Set(ctx context.Context, key string, results []domain.SearchResult, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return domain.NewDomainError("cache.Redis.Set", domain.ErrCacheStore, err.Error())
	}
	if err := r.client.Set(ctx, r.prefix+key, raw, ttl).Err(); err != nil {
		return domain.NewDomainError("cache.Redis.Set", domain.ErrCacheStore, err.Error())
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return domain.NewDomainError("cache.Redis.Ping", domain.ErrCacheStore, err.Error())
	}
	return nil
}

// Close releases the client's connections.
func (r *Redis) Close() error {
	if err := r.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
