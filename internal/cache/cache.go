// Package cache stores computed report results for a short time so the
// dashboard does not rerun every aggregation on each page view.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-dashboard/internal/config"
)

// Cache is a JSON value store with a fixed TTL.
type Cache interface {
	// Get decodes the cached value into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	// Flush drops every entry written through this cache.
	Flush(ctx context.Context) error
}

// New picks a backend from config: Redis when a URL is set, the in-process
// store otherwise, and a no-op when caching is disabled.
func New(cfg config.CacheConfig, logger *zerolog.Logger) (Cache, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	if cfg.RedisURL != "" {
		c, err := NewRedis(RedisConfig{URL: cfg.RedisURL, TTL: cfg.TTL, Prefix: DefaultPrefix}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return NewMemory(cfg.TTL), nil
}

const DefaultPrefix = "clinic:report:"

func encode(value interface{}) ([]byte, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache value: %w", err)
	}
	return b, nil
}

func decode(b []byte, dest interface{}) error {
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("failed to decode cache value: %w", err)
	}
	return nil
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, interface{}) error        { return nil }
func (Noop) Flush(context.Context) error                           { return nil }

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 30 * time.Second
	}
	return ttl
}
