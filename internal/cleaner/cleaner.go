package cleaner

import (
	"context"
	"sync"
	"time"

	"github.com/lazylions/lazy-leaderboard/pkg/goplus"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

// ExpiredDeleter 删除过期缓存行
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Cleaner 定时清理 SQL 存储中已过期的名称缓存
type Cleaner struct {
	deleter  ExpiredDeleter
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

func NewCleaner(deleter ExpiredDeleter, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Cleaner{
		deleter:  deleter,
		interval: interval,
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// Start 启动清理任务
func (c *Cleaner) Start() {
	goplus.Go(func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		logger.Info().Dur("interval", c.interval).Msg("cleaner started")

		// 启动时立即执行一次
		c.clean()

		for {
			select {
			case <-ticker.C:
				c.clean()
			case <-c.done:
				logger.Info().Msg("cleaner stopped")
				return
			}
		}
	})
}

func (c *Cleaner) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *Cleaner) clean() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := c.now()
	deleted, err := c.deleter.DeleteExpired(ctx, cutoff)
	if err != nil {
		logger.Error().Err(err).Msg("clean expired names failed")
		return 0
	}

	if deleted > 0 {
		logger.Info().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("cleaned expired name cache rows")
	}
	return deleted
}
