package dao

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lazylions/lazy-leaderboard/internal/models"
)

type EnsNameCacheDAO struct {
	db *gorm.DB
}

var (
	_ensNameCache     *EnsNameCacheDAO
	_ensNameCacheOnce sync.Once
)

func NewEnsNameCacheDAO(db *gorm.DB) *EnsNameCacheDAO {
	return &EnsNameCacheDAO{db: db}
}

// InitEnsNameCacheDAO 初始化 EnsNameCacheDAO
func InitEnsNameCacheDAO(db *gorm.DB) {
	_ensNameCacheOnce.Do(func() {
		_ensNameCache = NewEnsNameCacheDAO(db)
	})
}

// EnsNameCache 获取 EnsNameCacheDAO 单例
func EnsNameCache() *EnsNameCacheDAO {
	return _ensNameCache
}

// Get 按缓存键查询，不存在时返回 gorm.ErrRecordNotFound
func (d *EnsNameCacheDAO) Get(ctx context.Context, key string) (*models.EnsNameCache, error) {
	var row models.EnsNameCache
	err := d.db.WithContext(ctx).
		Where("cache_key = ?", key).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert 写入或覆盖缓存行
func (d *EnsNameCacheDAO) Upsert(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	row := &models.EnsNameCache{
		CacheKey:  key,
		Value:     value,
		ExpiresAt: expiresAt.UTC(),
	}
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(row).Error
}

// DeleteExpired 删除 before 之前过期的行
func (d *EnsNameCacheDAO) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := d.db.WithContext(ctx).
		Where("expires_at <= ?", before.UTC()).
		Delete(&models.EnsNameCache{})
	return result.RowsAffected, result.Error
}

func (d *EnsNameCacheDAO) Count(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.EnsNameCache{}).Count(&n).Error
	return n, err
}

func (d *EnsNameCacheDAO) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
