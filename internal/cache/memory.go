package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory keeps encoded values in process.
type Memory struct {
	store *gocache.Cache
}

func NewMemory(ttl time.Duration) *Memory {
	ttl = ttlOrDefault(ttl)
	return &Memory{store: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return false, nil
	}
	if err := decode(v.([]byte), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value interface{}) error {
	b, err := encode(value)
	if err != nil {
		return err
	}
	m.store.SetDefault(key, b)
	return nil
}

func (m *Memory) Flush(context.Context) error {
	m.store.Flush()
	return nil
}
