package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound     = errors.New("key not found")
	ErrEncodeFailed = errors.New("failed to encode value")
	ErrDecodeFailed = errors.New("failed to decode value")
)

// Store 带过期时间的 KV 存储
type Store interface {
	Name() string
	// Get 不存在或已过期时返回 ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// CacheError 单个 key 的读写失败
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}
