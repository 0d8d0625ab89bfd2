package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore 进程内存储，重启即丢失，适合单实例或测试
type MemoryStore struct {
	c *gocache.Cache
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		c: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

func (s *MemoryStore) Name() string {
	return "memory"
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	data := v.([]byte)
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	data := make([]byte, len(value))
	copy(data, value)
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	s.c.Set(key, data, ttl)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Len() int {
	return s.c.ItemCount()
}
