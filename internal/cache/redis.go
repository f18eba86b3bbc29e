package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-dashboard/pkg/circuitbreaker"
)

type RedisConfig struct {
	URL          string
	TTL          time.Duration
	Prefix       string
	PoolSize     int
	MinIdleConns int

	// MaxFailures consecutive errors make the cache skip Redis for
	// RetryAfter.
	MaxFailures int
	RetryAfter  time.Duration
}

// Redis shares cached reports between server processes.
type Redis struct {
	client  *redis.Client
	ttl     time.Duration
	prefix  string
	logger  *zerolog.Logger
	breaker *circuitbreaker.CircuitBreaker
}

func NewRedis(config RedisConfig, logger *zerolog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.MinIdleConns > 0 {
		opts.MinIdleConns = config.MinIdleConns
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	breaker := circuitbreaker.New(circuitbreaker.Settings{
		Name:        "redis-cache",
		MaxFailures: config.MaxFailures,
		Timeout:     config.RetryAfter,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			logger.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("Cache circuit breaker state changed")
		},
	})

	return &Redis{
		client:  client,
		ttl:     ttlOrDefault(config.TTL),
		prefix:  config.Prefix,
		logger:  logger,
		breaker: breaker,
	}, nil
}

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	var b []byte
	err := r.breaker.Execute(func() error {
		var err error
		b, err = r.client.Get(ctx, r.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to read cache: %w", err)
	}
	if b == nil {
		return false, nil
	}
	if err := decode(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}) error {
	b, err := encode(value)
	if err != nil {
		return err
	}
	err = r.breaker.Execute(func() error {
		return r.client.Set(ctx, r.prefix+key, b, r.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// Flush deletes every key under the prefix.
func (r *Redis) Flush(ctx context.Context) error {
	return r.breaker.Execute(func() error { return r.flush(ctx) })
}

func (r *Redis) flush(ctx context.Context) error {
	var deleted int
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	r.logger.Debug().Int("keys", deleted).Msg("Report cache flushed")
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
