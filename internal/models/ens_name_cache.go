package models

import (
	"time"
)

// EnsNameCache SQL 存储后端的缓存行
type EnsNameCache struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CacheKey  string    `gorm:"type:varchar(128);not null;uniqueIndex:uidx_cache_key;comment:缓存键" json:"cache_key"`
	Value     []byte    `gorm:"type:blob;comment:msgpack 编码值" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index:idx_expires_at;comment:过期时间" json:"expires_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (EnsNameCache) TableName() string {
	return "ens_name_cache"
}
