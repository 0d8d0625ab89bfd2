package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazylions/lazy-leaderboard/internal/models"
)

// flakyStore 对指定 key 返回错误
type flakyStore struct {
	*MemoryStore
	failGet map[string]bool
	failSet bool
	gets    int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: NewMemoryStore(time.Minute), failGet: map[string]bool{}}
}

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.gets++
	if s.failGet[key] {
		return nil, errors.New("connection reset")
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.failSet {
		return errors.New("read only replica")
	}
	return s.MemoryStore.Set(ctx, key, value, ttl)
}

type fakeResolver struct {
	names map[models.Address]string
	err   error
	calls int
}

func (r *fakeResolver) LookupAddress(ctx context.Context, addr models.Address) (string, bool, error) {
	r.calls++
	if r.err != nil {
		return "", false, r.err
	}
	name, ok := r.names[addr]
	return name, ok, nil
}

func TestNameCache_StoreAndResolve(t *testing.T) {
	c := NewNameCache(NewMemoryStore(time.Minute))
	ctx := context.Background()

	res, err := c.Resolve(ctx, "0xa")
	require.NoError(t, err)
	assert.False(t, res.Hit)

	require.NoError(t, c.Store(ctx, "0xa", "alice.eth", true))
	res, err = c.Resolve(ctx, "0xa")
	require.NoError(t, err)
	assert.Equal(t, NameResult{Hit: true, Name: "alice.eth", HasName: true}, res)
}

func TestNameCache_SentinelIsHit(t *testing.T) {
	c := NewNameCache(NewMemoryStore(time.Minute))
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, "0xb", "", false))

	res, err := c.Resolve(ctx, "0xb")
	require.NoError(t, err)
	assert.True(t, res.Hit)
	assert.False(t, res.HasName)
	assert.Nil(t, res.Ptr())
}

func TestNameCache_StoreOverwrites(t *testing.T) {
	c := NewNameCache(NewMemoryStore(time.Minute))
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, "0xa", "", false))
	require.NoError(t, c.Store(ctx, "0xa", "alice.eth", true))

	res, err := c.Resolve(ctx, "0xa")
	require.NoError(t, err)
	assert.Equal(t, "alice.eth", res.Name)
}

func TestNameCache_TTLAppliedOnRedis(t *testing.T) {
	s, mr := newRedisStore(t)
	c := NewNameCache(s)

	require.NoError(t, c.Store(context.Background(), "0xa", "alice.eth", true))
	assert.Equal(t, 24*time.Hour, mr.TTL("ens:0xa"))

	mr.FastForward(24*time.Hour + time.Second)
	res, err := c.Resolve(context.Background(), "0xa")
	require.NoError(t, err)
	assert.False(t, res.Hit)
}

func TestNameCache_ResolveBatch(t *testing.T) {
	store := newFlakyStore()
	c := NewNameCache(store)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, "0xa", "alice.eth", true))
	require.NoError(t, c.Store(ctx, "0xb", "", false))
	require.NoError(t, c.Store(ctx, "0xd", "dave.eth", true))
	store.failGet["ens:0xc"] = true

	got := c.ResolveBatch(ctx, []string{"0xA", "0xb", "0xc", "0xd", "0xe"})

	require.Len(t, got, 5)
	assert.Equal(t, NameResult{Hit: true, Name: "alice.eth", HasName: true}, got["0xA"])
	assert.Equal(t, NameResult{Hit: true, Name: "dave.eth", HasName: true}, got["0xd"])
	// 读取失败和未缓存都是未命中
	assert.Equal(t, NameResult{}, got["0xc"])
	assert.Equal(t, NameResult{}, got["0xe"])

	require.NotNil(t, got["0xA"].Ptr())
	assert.Equal(t, "alice.eth", *got["0xA"].Ptr())
	assert.Nil(t, got["0xe"].Ptr())
}

func TestNameCache_ResolveBatchNoNameVsMissing(t *testing.T) {
	c := NewNameCache(newFlakyStore())
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, "0xb", "", false))

	got := c.ResolveBatch(ctx, []string{"0xb", "0xe"})

	noName, missing := got["0xb"], got["0xe"]
	assert.True(t, noName.Hit)
	assert.False(t, noName.HasName)
	assert.False(t, missing.Hit)
	assert.NotEqual(t, noName, missing)

	// 对外都输出 null
	assert.Nil(t, noName.Ptr())
	assert.Nil(t, missing.Ptr())
}

func TestNameCache_ResolveError(t *testing.T) {
	store := newFlakyStore()
	store.failGet["ens:0xa"] = true
	c := NewNameCache(store)

	_, err := c.Resolve(context.Background(), "0xa")
	var cacheErr *CacheError
	require.True(t, errors.As(err, &cacheErr))
	assert.Equal(t, "get", cacheErr.Op)
	assert.Equal(t, "ens:0xa", cacheErr.Key)
}

func TestNameCache_ResolveOrLookup(t *testing.T) {
	c := NewNameCache(NewMemoryStore(time.Minute))
	resolver := &fakeResolver{names: map[models.Address]string{"0xa": "alice.eth"}}
	ctx := context.Background()

	res, err := c.ResolveOrLookup(ctx, "0xa", resolver)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, models.Named("alice.eth"), res.Entry)

	res, err = c.ResolveOrLookup(ctx, "0xa", resolver)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, 1, resolver.calls)
}

func TestNameCache_ResolveOrLookup_NoNameIsCached(t *testing.T) {
	c := NewNameCache(NewMemoryStore(time.Minute))
	resolver := &fakeResolver{names: map[models.Address]string{}}
	ctx := context.Background()

	res, err := c.ResolveOrLookup(ctx, "0xb", resolver)
	require.NoError(t, err)
	assert.False(t, res.Entry.HasName)

	res, err = c.ResolveOrLookup(ctx, "0xb", resolver)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, 1, resolver.calls)
}

func TestNameCache_ResolveOrLookup_ResolverErrorCachesSentinel(t *testing.T) {
	c := NewNameCache(NewMemoryStore(time.Minute))
	resolver := &fakeResolver{err: errors.New("rpc timeout")}
	ctx := context.Background()

	res, err := c.ResolveOrLookup(ctx, "0xc", resolver)
	require.NoError(t, err)
	assert.Error(t, res.ResolveErr)
	assert.False(t, res.Entry.HasName)

	cached, err := c.Resolve(ctx, "0xc")
	require.NoError(t, err)
	assert.True(t, cached.Hit)
	assert.False(t, cached.HasName)
}

func TestNameCache_ResolveOrLookup_StoreFailure(t *testing.T) {
	store := newFlakyStore()
	store.failSet = true
	c := NewNameCache(store)
	resolver := &fakeResolver{names: map[models.Address]string{"0xa": "alice.eth"}}

	res, err := c.ResolveOrLookup(context.Background(), "0xa", resolver)
	require.NoError(t, err)
	assert.Error(t, res.StoreErr)
	assert.Equal(t, "alice.eth", res.Entry.Name)
}

func TestNameCache_ResolveOrLookup_Canceled(t *testing.T) {
	c := NewNameCache(NewMemoryStore(time.Minute))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resolver := &fakeResolver{}
	_, err := c.ResolveOrLookup(ctx, "0xa", resolver)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, resolver.calls)
}

func TestNameCache_WithTTL(t *testing.T) {
	c := NewNameCache(NewMemoryStore(time.Minute), WithTTL(time.Hour))
	assert.Equal(t, time.Hour, c.TTL())
	assert.Equal(t, "memory", c.Backend().Name())
}
