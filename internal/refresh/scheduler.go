package refresh

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"github.com/lazylions/lazy-leaderboard/internal/monitor"
	natsx "github.com/lazylions/lazy-leaderboard/internal/nats"
	"github.com/lazylions/lazy-leaderboard/pkg/goplus"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerStartup  = "startup"
)

var (
	ErrAlreadyRunning  = errors.New("refresh already running")
	ErrInvalidSchedule = errors.New("invalid refresh schedule")
)

// Runner 可被调度的刷新任务
type Runner interface {
	Run(ctx context.Context) (Summary, error)
}

// EventPublisher 刷新完成事件发布
type EventPublisher interface {
	PublishRefresh(ev *natsx.RefreshEvent) error
}

// ParseSchedule 解析 "HH:MM"（UTC）
func ParseSchedule(s string) (hour, minute int, err error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSchedule, s)
	}
	hour, err = strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSchedule, s)
	}
	minute, err = strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSchedule, s)
	}
	return hour, minute, nil
}

// NextRun 返回 now 之后下一个 hour:minute（UTC）
func NextRun(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

type SchedulerOpt func(*Scheduler)

func WithPublisher(p EventPublisher) SchedulerOpt {
	return func(s *Scheduler) {
		s.publisher = p
	}
}

func WithRunOnStart(enable bool) SchedulerOpt {
	return func(s *Scheduler) {
		s.runOnStart = enable
	}
}

func withClock(now func() time.Time) SchedulerOpt {
	return func(s *Scheduler) {
		s.now = now
	}
}

// Scheduler 每日定时刷新。同一时刻只允许一个任务运行，重叠的触发直接跳过。
type Scheduler struct {
	runner     Runner
	publisher  EventPublisher
	hour       int
	minute     int
	runOnStart bool
	now        func() time.Time

	pool    *ants.Pool
	running atomic.Bool

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	mu          sync.RWMutex
	runs        int64
	skipped     int64
	lastRunAt   time.Time
	lastSummary *Summary
	lastErr     error
	nextRunAt   time.Time

	log zerolog.Logger
}

func NewScheduler(runner Runner, schedule string, opts ...SchedulerOpt) (*Scheduler, error) {
	hour, minute, err := ParseSchedule(schedule)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		runner: runner,
		hour:   hour,
		minute: minute,
		now:    time.Now,
		log:    logger.Component("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}

	// 阻塞模式：running 复位后 worker 可能尚未归还，下一次 Submit 等待而不是返回 ErrPoolOverload。
	// 重叠触发由 running 拦截，不依赖池
	s.pool, err = ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// Start 启动定时循环
func (s *Scheduler) Start() {
	if s.runOnStart {
		s.Trigger(TriggerStartup)
	}

	goplus.Go(func() {
		for {
			next := NextRun(s.now(), s.hour, s.minute)
			s.mu.Lock()
			s.nextRunAt = next
			s.mu.Unlock()

			s.log.Info().Time("next_run", next).Msg("refresh scheduled")

			timer := time.NewTimer(next.Sub(s.now()))
			select {
			case <-s.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.Trigger(TriggerSchedule)
			}
		}
	})
}

// Trigger 异步提交一次刷新，已有任务在运行时跳过并返回 false
func (s *Scheduler) Trigger(trigger string) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.markSkipped(trigger)
		return false
	}

	err := s.pool.Submit(func() {
		defer s.running.Store(false)
		_, _ = s.execute(s.ctx, trigger)
	})
	if err != nil {
		s.running.Store(false)
		s.log.Error().Err(err).Str("trigger", trigger).Msg("submit refresh failed")
		return false
	}
	return true
}

// RunNow 同步执行一次刷新
func (s *Scheduler) RunNow(ctx context.Context) (Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.markSkipped(TriggerManual)
		return Summary{}, ErrAlreadyRunning
	}

	type result struct {
		summary Summary
		err     error
	}
	done := make(chan result, 1)

	err := s.pool.Submit(func() {
		sum, err := s.execute(ctx, TriggerManual)
		s.running.Store(false)
		done <- result{summary: sum, err: err}
	})
	if err != nil {
		s.running.Store(false)
		return Summary{}, err
	}

	r := <-done
	return r.summary, r.err
}

func (s *Scheduler) execute(ctx context.Context, trigger string) (summary Summary, err error) {
	s.log.Info().Str("trigger", trigger).Msg("refresh run starting")

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("refresh panicked: %v", r)
			}
		}()
		summary, err = s.runner.Run(ctx)
	}()

	s.mu.Lock()
	s.runs++
	s.lastRunAt = s.now()
	s.lastSummary = &summary
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Str("trigger", trigger).Msg("refresh run failed")
	}

	s.publish(trigger, summary, err)
	return summary, err
}

func (s *Scheduler) publish(trigger string, summary Summary, runErr error) {
	if s.publisher == nil {
		return
	}

	ev := &natsx.RefreshEvent{
		Processed:     summary.Processed,
		EnsFound:      summary.EnsFound,
		Resolved:      summary.Resolved,
		CacheHits:     summary.CacheHits,
		ResolveErrors: summary.ResolveErrors,
		DurationMs:    summary.Duration.Milliseconds(),
		Trigger:       trigger,
		FinishedAt:    s.now().Unix(),
	}
	if runErr != nil {
		ev.Error = runErr.Error()
	}

	if err := s.publisher.PublishRefresh(ev); err != nil {
		s.log.Warn().Err(err).Msg("publish refresh event failed")
	}
}

func (s *Scheduler) markSkipped(trigger string) {
	s.mu.Lock()
	s.skipped++
	s.mu.Unlock()

	monitor.IncRefreshRun("skipped")
	s.log.Warn().Str("trigger", trigger).Msg("refresh already running, skipped")
}

// Running 当前是否有任务在执行
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// GetStats 调度器状态
func (s *Scheduler) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"schedule": fmt.Sprintf("%02d:%02d UTC", s.hour, s.minute),
		"running":  s.running.Load(),
		"runs":     s.runs,
		"skipped":  s.skipped,
	}
	if !s.nextRunAt.IsZero() {
		stats["next_run"] = s.nextRunAt.Format(time.RFC3339)
	}
	if !s.lastRunAt.IsZero() {
		stats["last_run"] = s.lastRunAt.Format(time.RFC3339)
	}
	if s.lastSummary != nil {
		stats["last_processed"] = s.lastSummary.Processed
		stats["last_ens_found"] = s.lastSummary.EnsFound
		stats["last_duration_ms"] = s.lastSummary.Duration.Milliseconds()
	}
	if s.lastErr != nil {
		stats["last_error"] = s.lastErr.Error()
	}
	return stats
}

// Stop 停止定时循环并等待运行中的任务退出
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		if err := s.pool.ReleaseTimeout(10 * time.Second); err != nil {
			s.log.Warn().Err(err).Msg("refresh pool release timeout")
		}
	})
}
