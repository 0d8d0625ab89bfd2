package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited 上游返回 429
	ErrRateLimited = errors.New("rate limited")
	// ErrRateLimitExceeded 同一页限流重试次数用尽
	ErrRateLimitExceeded = errors.New("rate limit retries exhausted")
	// ErrEmptyPage 响应中没有 data 数组
	ErrEmptyPage = errors.New("empty or malformed page")
	// ErrMalformed 响应不是预期的 JSON 结构
	ErrMalformed = errors.New("malformed response")
)

// Error 上游接口非 2xx 响应
type Error struct {
	Source     string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: status %d: %v: %s", e.Source, e.StatusCode, e.Err, body)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Source, e.StatusCode, body)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRateLimited 判断错误链中是否包含限流
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
