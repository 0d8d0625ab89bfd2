package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/lazylions/lazy-leaderboard/internal/dao"
)

// SQLStore 基于 ens_name_cache 表的存储，过期行读时视为不存在，由 cleaner 定期清除
type SQLStore struct {
	dao *dao.EnsNameCacheDAO
	now func() time.Time
}

func NewSQLStore(d *dao.EnsNameCacheDAO) *SQLStore {
	return &SQLStore{dao: d, now: time.Now}
}

func (s *SQLStore) Name() string {
	return "sql"
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	row, err := s.dao.Get(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !row.ExpiresAt.After(s.now()) {
		return nil, ErrNotFound
	}
	return row.Value, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl)
	if ttl <= 0 {
		expiresAt = s.now().AddDate(100, 0, 0)
	}
	return s.dao.Upsert(ctx, key, value, expiresAt)
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.dao.Ping(ctx)
}
