// Package cache stores final search result lists between requests.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"webscout/internal/domain"
	"webscout/internal/infra/config"
)

// New creates the result cache selected by cfg.Backend.
func New(cfg config.CacheConfig, logger *slog.Logger) (domain.ResultCache, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(cfg.MaxEntries), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		logger.Info("redis result cache", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return NewRedis(client, cfg.KeyPrefix), nil
	case "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// None never stores anything.
type None struct{}

func (None) Get(context.Context, string) ([]domain.SearchResult, bool) { return nil, false }

func (None) Set(context.Context, string, []domain.SearchResult, time.Duration) error { return nil }

func (None) Name() string { return "none" }
