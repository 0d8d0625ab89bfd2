package holder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lazylions/lazy-leaderboard/internal/models"
	"github.com/lazylions/lazy-leaderboard/internal/monitor"
	"github.com/lazylions/lazy-leaderboard/internal/upstream"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

// PageSource 分页的 top-holders 接口
type PageSource interface {
	Source() string
	TopHolders(ctx context.Context, page, limit int) (*upstream.TopHoldersPage, error)
}

type PagerConfig struct {
	PageDelay           time.Duration
	RateLimitBackoff    time.Duration
	MaxRateLimitRetries int // 0 表示不限次数
}

func DefaultPagerConfig() PagerConfig {
	return PagerConfig{
		PageDelay:           300 * time.Millisecond,
		RateLimitBackoff:    2 * time.Second,
		MaxRateLimitRetries: 30,
	}
}

// Pager 顺序拉取分页数据，限流时退避重试同一页
type Pager struct {
	source  PageSource
	cfg     PagerConfig
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewPager(source PageSource, cfg PagerConfig) *Pager {
	limit := rate.Inf
	if cfg.PageDelay > 0 {
		limit = rate.Every(cfg.PageDelay)
	}
	return &Pager{
		source:  source,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.Component("pager"),
	}
}

// FetchPage 拉取单页。返回 upstream.ErrRateLimited、*upstream.Error 或 upstream.ErrEmptyPage
func (p *Pager) FetchPage(ctx context.Context, page, size int) ([]models.TokenHolder, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := p.source.TopHolders(ctx, page, size)
	if err != nil {
		return nil, err
	}
	monitor.IncPagesFetched(p.source.Source())

	holders := make([]models.TokenHolder, 0, len(resp.Holders))
	for _, raw := range resp.Holders {
		amount, err := ParseAmount(raw.Amount)
		if err != nil {
			p.log.Warn().Err(err).Str("address", raw.Address).Int("page", page).Msg("unparsable holder amount, using 0")
		}
		holders = append(holders, models.TokenHolder{
			Address: models.NormalizeAddress(raw.Address),
			Amount:  amount,
		})
	}
	return holders, nil
}

// fetchWithRetry 限流时等待 RateLimitBackoff 后重试同一页，零行页返回 ErrEmptyPage
func (p *Pager) fetchWithRetry(ctx context.Context, page, size int) ([]models.TokenHolder, error) {
	retries := 0
	for {
		holders, err := p.FetchPage(ctx, page, size)
		if err == nil {
			// 没有任何有效行的页按空页处理
			if len(holders) == 0 {
				return nil, fmt.Errorf("page %d has no rows: %w", page, upstream.ErrEmptyPage)
			}
			return holders, nil
		}
		if !upstream.IsRateLimited(err) {
			return nil, err
		}

		if p.cfg.MaxRateLimitRetries > 0 && retries >= p.cfg.MaxRateLimitRetries {
			return nil, fmt.Errorf("page %d after %d retries: %w", page, retries, upstream.ErrRateLimitExceeded)
		}
		retries++
		monitor.IncRateLimitRetry(p.source.Source())
		p.log.Warn().
			Int("page", page).
			Int("retry", retries).
			Dur("backoff", p.cfg.RateLimitBackoff).
			Msg("rate limited, backing off")

		if err = sleepCtx(ctx, p.cfg.RateLimitBackoff); err != nil {
			return nil, err
		}
	}
}

// FetchAllPagesSequential 按 1..n 顺序拉取；非限流错误（含空页）立即中止
func (p *Pager) FetchAllPagesSequential(ctx context.Context, n, size int) ([]models.TokenHolder, error) {
	var all []models.TokenHolder
	for page := 1; page <= n; page++ {
		holders, err := p.fetchWithRetry(ctx, page, size)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		all = append(all, holders...)
	}
	return all, nil
}

// FetchPagesUntilEmpty 按 1..n 顺序拉取，遇到失败页或空页时停止并返回已拉取的数据；
// 只有 ctx 取消才返回错误
func (p *Pager) FetchPagesUntilEmpty(ctx context.Context, n, size int) ([]models.TokenHolder, error) {
	var all []models.TokenHolder
	for page := 1; page <= n; page++ {
		holders, err := p.fetchWithRetry(ctx, page, size)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lvl := zerolog.WarnLevel
			if errors.Is(err, upstream.ErrEmptyPage) {
				lvl = zerolog.InfoLevel
			}
			p.log.WithLevel(lvl).Err(err).Int("page", page).Int("collected", len(all)).Msg("stop paging early")
			break
		}
		all = append(all, holders...)
	}
	return all, nil
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
