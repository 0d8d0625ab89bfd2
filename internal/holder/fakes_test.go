package holder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lazylions/lazy-leaderboard/internal/upstream"
)

// pageResult 单次请求的预置结果
type pageResult struct {
	page *upstream.TopHoldersPage
	err  error
}

// fakePages 每页按顺序返回预置结果，用完后重复最后一个
type fakePages struct {
	mu      sync.Mutex
	results map[int][]pageResult
	calls   []int
}

func newFakePages() *fakePages {
	return &fakePages{results: map[int][]pageResult{}}
}

func (f *fakePages) Source() string { return "fake" }

func (f *fakePages) on(page int, results ...pageResult) *fakePages {
	f.results[page] = append(f.results[page], results...)
	return f
}

func (f *fakePages) TopHolders(ctx context.Context, page, limit int) (*upstream.TopHoldersPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, page)

	rs, ok := f.results[page]
	if !ok || len(rs) == 0 {
		return nil, upstream.ErrEmptyPage
	}
	r := rs[0]
	if len(rs) > 1 {
		f.results[page] = rs[1:]
	}
	return r.page, r.err
}

func holders(pairs ...any) pageResult {
	p := &upstream.TopHoldersPage{}
	for i := 0; i+1 < len(pairs); i += 2 {
		p.Holders = append(p.Holders, upstream.RawHolder{Address: pairs[i].(string), Amount: pairs[i+1]})
	}
	p.Total = int64(len(p.Holders))
	return pageResult{page: p}
}

func rateLimited() pageResult {
	return pageResult{err: &upstream.Error{Source: "fake", StatusCode: 429, Err: upstream.ErrRateLimited}}
}

func serverError() pageResult {
	return pageResult{err: &upstream.Error{Source: "fake", StatusCode: 500, Body: "boom"}}
}

func emptyPage() pageResult {
	return pageResult{err: upstream.ErrEmptyPage}
}

// zeroRows data 是数组但没有任何行
func zeroRows() pageResult {
	return pageResult{page: &upstream.TopHoldersPage{Holders: []upstream.RawHolder{}}}
}

type fakeOwners struct {
	owners map[string][]upstream.CollectionOwner
	err    error
}

func (f *fakeOwners) GetOwnersForCollection(ctx context.Context, contract string) ([]upstream.CollectionOwner, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.owners[contract], nil
}

type fakeLocked struct {
	members []upstream.LockedMember
	err     error
}

func (f *fakeLocked) LockedBalances(ctx context.Context) ([]upstream.LockedMember, error) {
	return f.members, f.err
}

var errUpstream = errors.New("upstream down")

func fastPagerConfig() PagerConfig {
	return PagerConfig{RateLimitBackoff: time.Millisecond, MaxRateLimitRetries: 5}
}
