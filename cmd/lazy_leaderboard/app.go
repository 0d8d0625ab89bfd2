package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazylions/lazy-leaderboard/config"
	"github.com/lazylions/lazy-leaderboard/internal/cache"
	"github.com/lazylions/lazy-leaderboard/internal/cleaner"
	"github.com/lazylions/lazy-leaderboard/internal/dal"
	"github.com/lazylions/lazy-leaderboard/internal/dao"
	"github.com/lazylions/lazy-leaderboard/internal/ens"
	"github.com/lazylions/lazy-leaderboard/internal/holder"
	"github.com/lazylions/lazy-leaderboard/internal/leaderboard"
	"github.com/lazylions/lazy-leaderboard/internal/monitor"
	"github.com/lazylions/lazy-leaderboard/internal/refresh"
	"github.com/lazylions/lazy-leaderboard/internal/upstream"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

const (
	backendRedis  = "redis"
	backendMemory = "memory"
	backendSQL    = "sql"
)

// app 进程内所有组件，按需构建
type app struct {
	cfg *config.Config

	store     cache.Store
	names     *cache.NameCache
	cleaner   *cleaner.Cleaner
	chainbase *upstream.ChainbaseClient
	agg       *holder.Aggregator
	resolver  *ens.Resolver
	job       *refresh.Job
	board     *leaderboard.Service
}

// setup 加载配置并初始化日志与指标
func setup(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if err := config.Init(path); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg := config.Get()

	if err := initLogger(cfg); err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	monitor.InitMetrics()
	return cfg, nil
}

func initLogger(cfg *config.Config) error {
	return logger.NewBuilder().
		SetDir(cfg.Logger.Dir).
		SetMaxSize(cfg.Logger.MaxSize).
		SetMaxBackups(cfg.Logger.MaxBackups).
		SetMaxAge(cfg.Logger.MaxAge).
		SetLevel(cfg.Logger.Level).
		EnableCompression(cfg.Logger.Compress).
		EnableConsoleOutput(cfg.Logger.Console).
		Build()
}

func newApp(cfg *config.Config) *app {
	return &app{cfg: cfg}
}

// initStore 按 backend 选择名称缓存存储
func (a *app) initStore() error {
	switch a.cfg.Store.Backend {
	case backendRedis, "":
		store, err := cache.NewRedisStoreFromURL(a.cfg.Store.RedisURL)
		if err != nil {
			return fmt.Errorf("init redis store: %w", err)
		}
		a.store = store
	case backendMemory:
		a.store = cache.NewMemoryStore(10 * time.Minute)
	case backendSQL:
		if err := dal.InitDB(a.cfg.MySQL); err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		dal.AutoMigrate(dal.DB())
		dao.InitDAO(dal.DB())

		a.store = cache.NewSQLStore(dao.EnsNameCache())
		a.cleaner = cleaner.NewCleaner(dao.EnsNameCache(), a.cfg.MySQL.CleanInterval)
	default:
		return fmt.Errorf("unsupported store backend %q", a.cfg.Store.Backend)
	}

	a.names = cache.NewNameCache(a.store, cache.WithTTL(a.cfg.ENS.TTL))
	logger.Info().Str("backend", a.store.Name()).Dur("ttl", a.names.TTL()).Msg("name store ready")
	return nil
}

// initSources 上游 HTTP 客户端与地址汇总
func (a *app) initSources() error {
	src := a.cfg.Sources
	httpClient, err := upstream.NewHTTPClient(src.HTTPTimeout, src.ProxyAddr)
	if err != nil {
		return fmt.Errorf("init http client: %w", err)
	}
	opt := upstream.WithHTTPClient(httpClient)

	alchemy := upstream.NewAlchemyClient(src.AlchemyBaseURL, src.AlchemyAPIKey, opt)
	a.chainbase = upstream.NewChainbaseClient(src.ChainbaseBaseURL, src.ChainbaseAPIKey, src.ChainID, src.TokenContract, opt)
	creatorBid := upstream.NewCreatorBidClient(src.CreatorBidBaseURL, src.CreatorBidAgentID, opt)

	pager := holder.NewPager(a.chainbase, holder.PagerConfig{
		PageDelay:           a.cfg.Paging.PageDelay,
		RateLimitBackoff:    a.cfg.Paging.RateLimitBackoff,
		MaxRateLimitRetries: a.cfg.Paging.MaxRateLimitRetries,
	})
	a.agg = holder.NewAggregator(alchemy, pager, creatorBid)

	a.board = leaderboard.NewService(a.agg, a.names, leaderboard.Config{
		LionsContract: src.LionsContract,
		CubsContract:  src.CubsContract,
		NFTLimit:      a.cfg.Leaderboard.NFTLimit,
		NFTPageSize:   a.cfg.Leaderboard.NFTPageSize,
		TokenMaxPages: a.cfg.Paging.MaxPages,
		TokenPageSize: a.cfg.Leaderboard.TokenPageSize,
		SnapshotTTL:   a.cfg.Leaderboard.SnapshotTTL,
		Labels:        leaderboard.DefaultLabels(src.TokenContract),
	})
	return nil
}

// initResolver 链上解析与刷新任务
func (a *app) initResolver(ctx context.Context) error {
	resolver, err := ens.Dial(ctx, a.cfg.ENS.RPCURL, a.cfg.ENS.Registry)
	if err != nil {
		return fmt.Errorf("dial ens rpc: %w", err)
	}
	a.resolver = resolver

	a.job = refresh.NewJob(a.agg, a.names, a.resolver, refresh.JobConfig{
		Collections:   []string{a.cfg.Sources.LionsContract, a.cfg.Sources.CubsContract},
		MaxPages:      a.cfg.Paging.MaxPages,
		PageSize:      a.cfg.Paging.PageSize,
		ResolverDelay: a.cfg.ENS.ResolverDelay,
	})
	return nil
}

func (a *app) close() {
	if a.cleaner != nil {
		a.cleaner.Stop()
	}
	if a.resolver != nil {
		a.resolver.Close()
	}
	if rs, ok := a.store.(*cache.RedisStore); ok {
		if err := rs.Close(); err != nil {
			logger.Warn().Err(err).Msg("close redis store failed")
		}
	}
	dal.CloseDB()
	config.Stop()
}
