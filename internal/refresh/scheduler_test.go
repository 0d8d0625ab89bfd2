package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	natsx "github.com/lazylions/lazy-leaderboard/internal/nats"
)

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	summary Summary
	err     error
	calls   int
	mu      sync.Mutex
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{started: make(chan struct{}, 4), release: make(chan struct{})}
}

func (r *blockingRunner) Run(ctx context.Context) (Summary, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	r.started <- struct{}{}
	select {
	case <-r.release:
	case <-ctx.Done():
		return r.summary, ctx.Err()
	}
	return r.summary, r.err
}

type instantRunner struct {
	summary Summary
	err     error
	panics  bool
}

func (r *instantRunner) Run(ctx context.Context) (Summary, error) {
	if r.panics {
		panic("boom")
	}
	return r.summary, r.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*natsx.RefreshEvent
}

func (p *recordingPublisher) PublishRefresh(ev *natsx.RefreshEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func TestParseSchedule(t *testing.T) {
	h, m, err := ParseSchedule("20:15")
	require.NoError(t, err)
	assert.Equal(t, 20, h)
	assert.Equal(t, 15, m)

	h, m, err = ParseSchedule(" 0:05 ")
	require.NoError(t, err)
	assert.Equal(t, 0, h)
	assert.Equal(t, 5, m)

	for _, bad := range []string{"", "2015", "24:00", "12:60", "ab:cd", "-1:10"} {
		_, _, err = ParseSchedule(bad)
		assert.ErrorIs(t, err, ErrInvalidSchedule, bad)
	}
}

func TestNextRun(t *testing.T) {
	before := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 1, 20, 15, 0, 0, time.UTC), NextRun(before, 20, 15))

	exact := time.Date(2025, 3, 1, 20, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 2, 20, 15, 0, 0, time.UTC), NextRun(exact, 20, 15))

	after := time.Date(2025, 12, 31, 21, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 1, 20, 15, 0, 0, time.UTC), NextRun(after, 20, 15))

	// 非 UTC 输入按 UTC 计算
	tz := time.FixedZone("UTC+8", 8*3600)
	local := time.Date(2025, 3, 2, 4, 0, 0, 0, tz) // 2025-03-01 20:00 UTC
	assert.Equal(t, time.Date(2025, 3, 1, 20, 15, 0, 0, time.UTC), NextRun(local, 20, 15))
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler(&instantRunner{}, "25:00")
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestScheduler_RunNow(t *testing.T) {
	pub := &recordingPublisher{}
	s, err := NewScheduler(&instantRunner{summary: Summary{Processed: 5, EnsFound: 2}}, "20:15", WithPublisher(pub))
	require.NoError(t, err)
	defer s.Stop()

	summary, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Processed)
	assert.Equal(t, 2, summary.EnsFound)

	require.Len(t, pub.events, 1)
	assert.Equal(t, TriggerManual, pub.events[0].Trigger)
	assert.Equal(t, 5, pub.events[0].Processed)
	assert.Empty(t, pub.events[0].Error)

	stats := s.GetStats()
	assert.Equal(t, int64(1), stats["runs"])
	assert.Equal(t, 5, stats["last_processed"])
	assert.Equal(t, "20:15 UTC", stats["schedule"])
}

func TestScheduler_RunNowSequential(t *testing.T) {
	s, err := NewScheduler(&instantRunner{summary: Summary{Processed: 1}}, "20:15")
	require.NoError(t, err)
	defer s.Stop()

	for i := 0; i < 3; i++ {
		_, err = s.RunNow(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), s.GetStats()["runs"])
}

func TestScheduler_BackToBackTriggers(t *testing.T) {
	s, err := NewScheduler(&instantRunner{summary: Summary{Processed: 1}}, "20:15")
	require.NoError(t, err)
	defer s.Stop()

	for i := 0; i < 5; i++ {
		require.True(t, s.Trigger(TriggerSchedule))
		assert.Eventually(t, func() bool { return !s.Running() }, time.Second, time.Millisecond)
		_, err = s.RunNow(context.Background())
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool { return s.GetStats()["runs"] == int64(10) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(0), s.GetStats()["skipped"])
}

func TestScheduler_OverlapSkipped(t *testing.T) {
	runner := newBlockingRunner()
	s, err := NewScheduler(runner, "20:15")
	require.NoError(t, err)
	defer s.Stop()

	require.True(t, s.Trigger(TriggerSchedule))
	<-runner.started
	assert.True(t, s.Running())

	assert.False(t, s.Trigger(TriggerSchedule))
	_, err = s.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(runner.release)
	assert.Eventually(t, func() bool { return !s.Running() }, time.Second, 5*time.Millisecond)

	stats := s.GetStats()
	assert.Equal(t, int64(2), stats["skipped"])
	assert.Equal(t, int64(1), stats["runs"])
	assert.Equal(t, 1, runner.calls)
}

func TestScheduler_RunFailurePublished(t *testing.T) {
	pub := &recordingPublisher{}
	s, err := NewScheduler(&instantRunner{err: errors.New("alchemy down")}, "20:15", WithPublisher(pub))
	require.NoError(t, err)
	defer s.Stop()

	_, err = s.RunNow(context.Background())
	require.Error(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "alchemy down", pub.events[0].Error)
	assert.Equal(t, "alchemy down", s.GetStats()["last_error"])
}

func TestScheduler_PanicBecomesError(t *testing.T) {
	s, err := NewScheduler(&instantRunner{panics: true}, "20:15")
	require.NoError(t, err)
	defer s.Stop()

	_, err = s.RunNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.False(t, s.Running())
}

func TestScheduler_RunOnStart(t *testing.T) {
	runner := newBlockingRunner()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s, err := NewScheduler(runner, "20:15", WithRunOnStart(true), withClock(func() time.Time { return now }))
	require.NoError(t, err)

	s.Start()
	select {
	case <-runner.started:
	case <-time.After(time.Second):
		t.Fatal("startup run not triggered")
	}

	assert.Eventually(t, func() bool {
		_, ok := s.GetStats()["next_run"]
		return ok
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "2025-03-01T20:15:00Z", s.GetStats()["next_run"])

	close(runner.release)
	s.Stop()
	assert.False(t, s.Running())
}
