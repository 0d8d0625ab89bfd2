package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/lazylions/lazy-leaderboard/internal/models"
	"github.com/lazylions/lazy-leaderboard/internal/monitor"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

const (
	KeyPrefix  = "ens:"
	DefaultTTL = 24 * time.Hour

	metricType = "name"
)

// NameResolver 实时名称解析
type NameResolver interface {
	LookupAddress(ctx context.Context, address models.Address) (name string, found bool, err error)
}

// NameResult Hit=false 表示从未查询或已过期；Hit=true 且 HasName=false 表示已知没有名称
type NameResult struct {
	Hit     bool
	Name    string
	HasName bool
}

func (r NameResult) Ptr() *string {
	if !r.Hit {
		return nil
	}
	return models.NameEntry{Name: r.Name, HasName: r.HasName}.Ptr()
}

// LookupResult ResolveOrLookup 的结果
type LookupResult struct {
	Entry     models.NameEntry
	FromCache bool
	// ResolveErr 实时解析失败（已按无名称写入缓存）
	ResolveErr error
	// StoreErr 写缓存失败
	StoreErr error
}

type NameCacheOpt func(*NameCache)

func WithTTL(ttl time.Duration) NameCacheOpt {
	return func(c *NameCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NameCache 地址到名称的缓存
type NameCache struct {
	store   Store
	ttl     time.Duration
	encoder Encoder[models.NameEntry]
	decoder Decoder[models.NameEntry]
	log     zerolog.Logger
}

func NewNameCache(store Store, opts ...NameCacheOpt) *NameCache {
	c := &NameCache{
		store:   store,
		ttl:     DefaultTTL,
		encoder: MsgpackEncoder[models.NameEntry](),
		decoder: MsgpackDecoder[models.NameEntry](),
		log:     logger.Component("name_cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func Key(addr models.Address) string {
	return KeyPrefix + string(addr)
}

func (c *NameCache) Backend() Store {
	return c.store
}

func (c *NameCache) TTL() time.Duration {
	return c.ttl
}

// Resolve 只读缓存，不触发实时解析
func (c *NameCache) Resolve(ctx context.Context, addr models.Address) (NameResult, error) {
	key := Key(addr)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			monitor.IncCacheMiss(metricType)
			return NameResult{}, nil
		}
		monitor.IncCacheError("get")
		return NameResult{}, &CacheError{Op: "get", Key: key, Err: err}
	}

	entry, err := c.decoder(data)
	if err != nil {
		monitor.IncCacheError("decode")
		return NameResult{}, &CacheError{Op: "get", Key: key, Err: errors.Join(ErrDecodeFailed, err)}
	}

	monitor.IncCacheHit(metricType)
	return NameResult{Hit: true, Name: entry.Name, HasName: entry.HasName}, nil
}

// Store 无条件覆盖写入，TTL 固定
func (c *NameCache) Store(ctx context.Context, addr models.Address, name string, hasName bool) error {
	key := Key(addr)
	entry := models.NoName()
	if hasName {
		entry = models.Named(name)
	}

	data, err := c.encoder(entry)
	if err != nil {
		return &CacheError{Op: "set", Key: key, Err: errors.Join(ErrEncodeFailed, err)}
	}
	if err = c.store.Set(ctx, key, data, c.ttl); err != nil {
		monitor.IncCacheError("set")
		return &CacheError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// ResolveBatch 逐个读取缓存，结果以调用方传入的地址为 key。
// 读取失败按未命中处理，单个失败不影响其它地址。
func (c *NameCache) ResolveBatch(ctx context.Context, addrs []string) map[string]NameResult {
	out := make(map[string]NameResult, len(addrs))
	for _, raw := range addrs {
		res, err := c.Resolve(ctx, models.NormalizeAddress(raw))
		if err != nil {
			c.log.Warn().Err(err).Str("address", raw).Msg("batch name read failed")
			out[raw] = NameResult{}
			continue
		}
		out[raw] = res
	}
	return out
}

// ResolveOrLookup 先读缓存，未命中时实时解析并写回。
// 解析失败按无名称写入，缓存读写失败只记录不中断；仅在 ctx 取消时返回错误。
func (c *NameCache) ResolveOrLookup(ctx context.Context, addr models.Address, resolver NameResolver) (LookupResult, error) {
	res, err := c.Resolve(ctx, addr)
	if err == nil && res.Hit {
		return LookupResult{
			Entry:     models.NameEntry{Name: res.Name, HasName: res.HasName},
			FromCache: true,
		}, nil
	}
	if err != nil {
		c.log.Warn().Err(err).Str("address", string(addr)).Msg("name read failed, resolving live")
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return LookupResult{}, ctxErr
	}

	result := LookupResult{Entry: models.NoName()}
	name, found, lerr := resolver.LookupAddress(ctx, addr)
	switch {
	case lerr != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return LookupResult{}, ctxErr
		}
		result.ResolveErr = lerr
		monitor.IncResolution("error")
		c.log.Debug().Err(lerr).Str("address", string(addr)).Msg("live resolution failed, caching no-name")
	case found && name != "":
		result.Entry = models.Named(name)
		monitor.IncResolution("found")
	default:
		monitor.IncResolution("none")
	}

	if serr := c.Store(ctx, addr, result.Entry.Name, result.Entry.HasName); serr != nil {
		result.StoreErr = serr
		c.log.Warn().Err(serr).Str("address", string(addr)).Msg("name write failed")
	}

	return result, nil
}
