package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lazylions/lazy-leaderboard/internal/cache"
	"github.com/lazylions/lazy-leaderboard/internal/models"
	"github.com/lazylions/lazy-leaderboard/internal/monitor"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

// AddressAggregator 汇总需要刷新名称的地址集合
type AddressAggregator interface {
	Aggregate(ctx context.Context, collections []string, maxPages, pageSize int) (*models.AddressSet, error)
}

type JobConfig struct {
	Collections   []string
	MaxPages      int
	PageSize      int
	ResolverDelay time.Duration // 每次实时解析后的间隔
}

// Summary 一次刷新的统计
type Summary struct {
	Processed     int           `json:"processed"`
	EnsFound      int           `json:"ensFound"`
	Resolved      int           `json:"resolved"`
	CacheHits     int           `json:"cacheHits"`
	ResolveErrors int           `json:"resolveErrors"`
	Duration      time.Duration `json:"-"`
	StartedAt     time.Time     `json:"-"`
}

// Job 名称刷新任务
type Job struct {
	aggregator AddressAggregator
	names      *cache.NameCache
	resolver   cache.NameResolver
	cfg        JobConfig
	log        zerolog.Logger
}

func NewJob(aggregator AddressAggregator, names *cache.NameCache, resolver cache.NameResolver, cfg JobConfig) *Job {
	return &Job{
		aggregator: aggregator,
		names:      names,
		resolver:   resolver,
		cfg:        cfg,
		log:        logger.Component("refresh"),
	}
}

// Run 汇总地址并逐个预热名称缓存。
// 只有汇总失败才返回错误；ctx 取消时返回已完成部分的统计。
func (j *Job) Run(ctx context.Context) (summary Summary, err error) {
	summary.StartedAt = time.Now()
	defer func() {
		summary.Duration = time.Since(summary.StartedAt)
	}()

	addrs, err := j.aggregator.Aggregate(ctx, j.cfg.Collections, j.cfg.MaxPages, j.cfg.PageSize)
	if err != nil {
		monitor.IncRefreshRun("failed")
		j.log.Error().Err(err).Msg("address aggregation failed")
		return summary, fmt.Errorf("aggregate addresses: %w", err)
	}

	j.log.Info().Int("addresses", addrs.Len()).Msg("name refresh started")

	for _, addr := range addrs.Items() {
		res, err := j.names.ResolveOrLookup(ctx, addr, j.resolver)
		if err != nil {
			monitor.IncRefreshRun("canceled")
			j.log.Warn().Err(err).Int("processed", summary.Processed).Msg("name refresh interrupted")
			return summary, err
		}

		summary.Processed++
		if res.Entry.HasName {
			summary.EnsFound++
		}
		if res.FromCache {
			summary.CacheHits++
			continue
		}

		summary.Resolved++
		if res.ResolveErr != nil {
			summary.ResolveErrors++
		}
		if err = sleepCtx(ctx, j.cfg.ResolverDelay); err != nil {
			monitor.IncRefreshRun("canceled")
			return summary, err
		}
	}

	elapsed := time.Since(summary.StartedAt)
	monitor.IncRefreshRun("ok")
	monitor.ObserveRefresh(elapsed.Seconds(), summary.Processed, summary.EnsFound)

	j.log.Info().
		Int("processed", summary.Processed).
		Int("ens_found", summary.EnsFound).
		Int("resolved", summary.Resolved).
		Int("cache_hits", summary.CacheHits).
		Int("resolve_errors", summary.ResolveErrors).
		Dur("elapsed", elapsed).
		Msg("name refresh finished")

	return summary, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
