package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-dashboard/internal/config"
)

type sample struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	var got sample
	ok, err := c.Get(ctx, "revenue:10", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	want := sample{Labels: []string{"2025-01-01"}, Values: []float64{150.01}}
	require.NoError(t, c.Set(ctx, "revenue:10", want))

	ok, err = c.Get(ctx, "revenue:10", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, c.Flush(ctx))
	ok, err = c.Get(ctx, "revenue:10", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory(time.Minute))
}

func TestMemoryExpires(t *testing.T) {
	c := NewMemory(20 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1))

	time.Sleep(50 * time.Millisecond)
	var v int
	ok, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	c, err := NewRedis(RedisConfig{URL: url, TTL: time.Minute, Prefix: "clinic:test:"}, nil)
	require.NoError(t, err)
	defer c.Close()
	exercise(t, c)
}

func TestNewSelectsBackend(t *testing.T) {
	c, err := New(config.CacheConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.IsType(t, Noop{}, c)

	c, err = New(config.CacheConfig{Enabled: true, TTL: time.Second}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	_, err = New(config.CacheConfig{Enabled: true, RedisURL: "not a url"}, nil)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var v int
	require.NoError(t, Noop{}.Set(ctx, "k", 1))
	ok, err := Noop{}.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}
