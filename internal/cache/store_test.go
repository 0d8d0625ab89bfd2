package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lazylions/lazy-leaderboard/internal/dao"
	"github.com/lazylions/lazy-leaderboard/internal/models"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client), mr
}

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.EnsNameCache{}))

	return NewSQLStore(dao.NewEnsNameCacheDAO(db))
}

func TestStores_GetSet(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := []Store{
		redisStore,
		NewMemoryStore(time.Minute),
		newSQLStore(t),
	}

	for _, s := range stores {
		t.Run(s.Name(), func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "ens:0xmissing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "ens:0xa", []byte("first"), time.Hour))
			require.NoError(t, s.Set(ctx, "ens:0xa", []byte("second"), time.Hour))

			got, err := s.Get(ctx, "ens:0xa")
			require.NoError(t, err)
			assert.Equal(t, []byte("second"), got)

			assert.NoError(t, s.Ping(ctx))
		})
	}
}

func TestRedisStore_TTL(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "ens:0xa", []byte("v"), DefaultTTL))
	assert.Equal(t, DefaultTTL, mr.TTL("ens:0xa"))

	mr.FastForward(DefaultTTL + time.Second)
	_, err := s.Get(ctx, "ens:0xa")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ConnectionError(t *testing.T) {
	s, mr := newRedisStore(t)
	mr.Close()

	_, err := s.Get(context.Background(), "ens:0xa")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, s.Ping(context.Background()))
}

func TestNewRedisStoreFromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStoreFromURL("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer s.Close()
	assert.NoError(t, s.Ping(context.Background()))

	_, err = NewRedisStoreFromURL("://bad")
	assert.Error(t, err)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 20*time.Millisecond))
	assert.Equal(t, 1, s.Len())

	time.Sleep(40 * time.Millisecond)
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStore_ExpiredRowIsAbsent(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "ens:0xa", []byte("v"), time.Hour))
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := s.Get(ctx, "ens:0xa")
	assert.ErrorIs(t, err, ErrNotFound)
}
