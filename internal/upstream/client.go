package upstream

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/proxy"

	"github.com/lazylions/lazy-leaderboard/internal/monitor"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

const defaultTimeout = 15 * time.Second

type ClientOpt func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) ClientOpt {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) ClientOpt {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithHeader(key, value string) ClientOpt {
	return func(c *Client) {
		if value != "" {
			c.headers[key] = value
		}
	}
}

// Client 上游 JSON 接口的公共 HTTP 客户端
type Client struct {
	source     string
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
}

func NewClient(source, baseURL string, opts ...ClientOpt) *Client {
	c := &Client{
		source:     source,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		headers:    map[string]string{"accept": "application/json"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTPClient 创建带超时的 http.Client，proxyAddr 非空时走 SOCKS5
func NewHTTPClient(timeout time.Duration, proxyAddr string) (*http.Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := &http.Client{Timeout: timeout}
	if proxyAddr == "" {
		return hc, nil
	}

	dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, &net.Dialer{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("create proxy dialer failed: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	hc.Transport = transport

	logger.Info().Str("proxy", proxyAddr).Msg("upstream proxy enabled")
	return hc, nil
}

func (c *Client) Source() string {
	return c.source
}

// get 发起 GET 请求；429 返回包装了 ErrRateLimited 的 *Error，其它非 2xx 返回 *Error
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		monitor.ObserveUpstream(c.source, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%s request failed: %w", c.source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	monitor.ObserveUpstream(c.source, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s read body failed: %w", c.source, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &Error{Source: c.source, StatusCode: resp.StatusCode, Body: string(body), Err: ErrRateLimited}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Source: c.source, StatusCode: resp.StatusCode, Body: string(body)}
	}

	logger.Debug().
		Str("source", c.source).
		Str("path", path).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("took", time.Since(start)).
		Msg("upstream response")

	return body, nil
}
