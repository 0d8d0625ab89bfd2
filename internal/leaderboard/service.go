package leaderboard

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/lazylions/lazy-leaderboard/internal/cache"
	"github.com/lazylions/lazy-leaderboard/internal/holder"
	"github.com/lazylions/lazy-leaderboard/internal/models"
	"github.com/lazylions/lazy-leaderboard/internal/monitor"
	"github.com/lazylions/lazy-leaderboard/pkg/concurrent"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

// HolderFetcher 排行榜所需的上游数据
type HolderFetcher interface {
	FetchOwnerCounts(ctx context.Context, contract string, limit int) ([]models.OwnerCount, error)
	FetchTokenHolders(ctx context.Context, maxPages, pageSize int) ([]models.TokenHolder, error)
	FetchLockedBalances(ctx context.Context) (map[models.Address]int64, error)
}

// NameReader 只读名称缓存
type NameReader interface {
	ResolveBatch(ctx context.Context, addrs []string) map[string]cache.NameResult
}

type Config struct {
	LionsContract string
	CubsContract  string
	NFTLimit      int
	NFTPageSize   int
	TokenMaxPages int
	TokenPageSize int // 上游每页条数，同时是代币榜默认页大小
	SnapshotTTL   time.Duration
	Labels        map[models.Address]string
}

// Entry 排行榜一行
type Entry struct {
	Rank         int            `json:"rank"`
	Address      models.Address `json:"address"`
	Short        string         `json:"short"`
	EnsName      *string        `json:"ensName"`
	EnsResolved  bool           `json:"ensResolved"` // 缓存中有结论，EnsName 为空表示已知没有名称
	Label        string         `json:"label,omitempty"`
	WalletAmount int64          `json:"walletAmount"`
	LockedAmount int64          `json:"lockedAmount"`
	Total        int64          `json:"total"`
}

type Query struct {
	Source    Source
	Page      int
	PageSize  int
	SortKey   holder.SortKey
	Direction holder.Direction
	WithNames bool
}

type Result struct {
	Source    Source    `json:"source"`
	SortKey   string    `json:"sortKey"`
	Direction string    `json:"sortDirection"`
	UpdatedAt time.Time `json:"updatedAt"`
	models.Page[Entry]
}

type snapshot struct {
	records   []models.HolderRecord
	fetchedAt time.Time
}

// Service 排行榜查询，按来源缓存快照，每次请求在副本上排序分页
type Service struct {
	fetcher HolderFetcher
	names   NameReader
	cfg     Config

	snapshots *gocache.Cache
	locks     concurrent.KeyedMutex[Source]

	log zerolog.Logger
}

func NewService(fetcher HolderFetcher, names NameReader, cfg Config) *Service {
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 10 * time.Minute
	}
	if cfg.NFTPageSize <= 0 {
		cfg.NFTPageSize = 25
	}
	if cfg.TokenPageSize <= 0 {
		cfg.TokenPageSize = 50
	}
	if cfg.TokenMaxPages <= 0 {
		cfg.TokenMaxPages = 10
	}

	return &Service{
		fetcher:   fetcher,
		names:     names,
		cfg:       cfg,
		snapshots: gocache.New(cfg.SnapshotTTL, 2*cfg.SnapshotTTL),
		log:       logger.Component("leaderboard"),
	}
}

// Leaderboard 返回指定来源的一页排行
func (s *Service) Leaderboard(ctx context.Context, q Query) (*Result, error) {
	snap, err := s.snapshot(ctx, q.Source)
	if err != nil {
		monitor.IncLeaderboardRequest(string(q.Source), "error")
		return nil, err
	}

	if q.SortKey == "" {
		q.SortKey = holder.SortTotal
	}
	if q.Direction == "" {
		q.Direction = holder.Desc
	}
	if q.PageSize <= 0 {
		q.PageSize = s.defaultPageSize(q.Source)
	}

	sorted := holder.Sort(snap.records, q.SortKey, q.Direction)
	entries := make([]Entry, len(sorted))
	for i, r := range sorted {
		entries[i] = Entry{
			Rank:         i + 1,
			Address:      r.Address,
			Short:        r.Address.Short(),
			Label:        s.cfg.Labels[r.Address],
			WalletAmount: r.WalletAmount,
			LockedAmount: r.LockedAmount,
			Total:        r.Total,
		}
	}

	page := models.Paginate(entries, q.Page, q.PageSize)
	if q.WithNames && s.names != nil && len(page.Items) > 0 {
		s.attachNames(ctx, page.Items)
	}

	monitor.IncLeaderboardRequest(string(q.Source), "ok")
	return &Result{
		Source:    q.Source,
		SortKey:   string(q.SortKey),
		Direction: string(q.Direction),
		UpdatedAt: snap.fetchedAt,
		Page:      page,
	}, nil
}

func (s *Service) defaultPageSize(src Source) int {
	if src.IsNFT() {
		return s.cfg.NFTPageSize
	}
	return s.cfg.TokenPageSize
}

// attachNames 只读取当前页的名称
func (s *Service) attachNames(ctx context.Context, items []Entry) {
	addrs := make([]string, len(items))
	for i, e := range items {
		addrs[i] = string(e.Address)
	}
	names := s.names.ResolveBatch(ctx, addrs)
	for i := range items {
		res := names[string(items[i].Address)]
		items[i].EnsName = res.Ptr()
		items[i].EnsResolved = res.Hit
	}
}

func (s *Service) snapshot(ctx context.Context, src Source) (*snapshot, error) {
	if v, ok := s.snapshots.Get(string(src)); ok {
		return v.(*snapshot), nil
	}

	unlock := s.locks.Lock(src)
	defer unlock()

	// 等锁期间可能已被其它请求填充
	if v, ok := s.snapshots.Get(string(src)); ok {
		return v.(*snapshot), nil
	}

	start := time.Now()
	records, err := s.load(ctx, src)
	if err != nil {
		s.log.Error().Err(err).Str("source", string(src)).Msg("leaderboard load failed")
		return nil, err
	}

	snap := &snapshot{records: records, fetchedAt: time.Now().UTC()}
	s.snapshots.SetDefault(string(src), snap)

	s.log.Info().
		Str("source", string(src)).
		Int("rows", len(records)).
		Dur("elapsed", time.Since(start)).
		Msg("leaderboard snapshot loaded")

	return snap, nil
}

func (s *Service) load(ctx context.Context, src Source) ([]models.HolderRecord, error) {
	switch src {
	case SourceLions:
		return s.loadNFT(ctx, s.cfg.LionsContract)
	case SourceCubs:
		return s.loadNFT(ctx, s.cfg.CubsContract)
	case SourceLazy:
		return s.loadToken(ctx)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, src)
}

func (s *Service) loadNFT(ctx context.Context, contract string) ([]models.HolderRecord, error) {
	counts, err := s.fetcher.FetchOwnerCounts(ctx, contract, s.cfg.NFTLimit)
	if err != nil {
		return nil, err
	}

	records := make([]models.HolderRecord, len(counts))
	for i, c := range counts {
		records[i] = models.NewHolderRecord(c.Address, c.Count, 0)
	}
	return records, nil
}

// loadToken 锁仓余额先于钱包余额拉取，任一失败整体失败
func (s *Service) loadToken(ctx context.Context) ([]models.HolderRecord, error) {
	locked, err := s.fetcher.FetchLockedBalances(ctx)
	if err != nil {
		return nil, err
	}

	wallet, err := s.fetcher.FetchTokenHolders(ctx, s.cfg.TokenMaxPages, s.cfg.TokenPageSize)
	if err != nil {
		return nil, err
	}

	return holder.Merge(wallet, locked), nil
}
