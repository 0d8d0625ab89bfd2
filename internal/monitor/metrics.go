package monitor

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 指标收集器
type Metrics struct {
	// 名称缓存
	cacheHitTotal   *prometheus.CounterVec
	cacheMissTotal  *prometheus.CounterVec
	cacheErrorTotal *prometheus.CounterVec
	// 上游接口
	upstreamRequests  *prometheus.CounterVec
	upstreamDuration  *prometheus.HistogramVec
	rateLimitRetries  *prometheus.CounterVec
	pagesFetchedTotal *prometheus.CounterVec
	// 名称解析
	resolutionsTotal *prometheus.CounterVec
	// 刷新任务
	refreshRunsTotal      *prometheus.CounterVec
	refreshDurationSecs   prometheus.Histogram
	refreshAddressesCount prometheus.Gauge
	refreshNamesFound     prometheus.Gauge
	// 排行榜
	leaderboardRequests *prometheus.CounterVec
	natsConnected       prometheus.Gauge
}

// NewMetrics 创建指标收集器
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		cacheHitTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hit_total",
				Help:      "缓存命中总数（按缓存类型）",
			},
			[]string{"cache_type"}, // name, snapshot
		),
		cacheMissTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_miss_total",
				Help:      "缓存未命中总数（按缓存类型）",
			},
			[]string{"cache_type"},
		),
		cacheErrorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_error_total",
				Help:      "缓存读写失败总数",
			},
			[]string{"op"}, // get, set
		),
		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of upstream API requests",
			},
			[]string{"source", "status"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "上游请求耗时分布（秒）",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"source"},
		),
		rateLimitRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_retries_total",
				Help:      "限流后重试总数",
			},
			[]string{"source"},
		),
		pagesFetchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_fetched_total",
				Help:      "Total number of holder pages fetched",
			},
			[]string{"source"},
		),
		resolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "name_resolutions_total",
				Help:      "Total number of live name resolutions",
			},
			[]string{"result"}, // found, none, error
		),
		refreshRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_runs_total",
				Help:      "刷新任务执行总数",
			},
			[]string{"status"}, // success, error, skipped
		),
		refreshDurationSecs: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "refresh_duration_seconds",
				Help:      "刷新任务耗时分布（秒）",
				Buckets:   []float64{1, 10, 30, 60, 120, 300, 600, 1800},
			},
		),
		refreshAddressesCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "refresh_addresses",
				Help:      "Number of addresses processed by the last refresh",
			},
		),
		refreshNamesFound: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "refresh_names_found",
				Help:      "Number of names found by the last refresh",
			},
		),
		leaderboardRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "leaderboard_requests_total",
				Help:      "排行榜请求总数",
			},
			[]string{"source", "status"},
		),
		natsConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "nats_connected",
				Help:      "NATS connection status (1=connected, 0=disconnected)",
			},
		),
	}

	prometheus.MustRegister(
		m.cacheHitTotal,
		m.cacheMissTotal,
		m.cacheErrorTotal,
		m.upstreamRequests,
		m.upstreamDuration,
		m.rateLimitRetries,
		m.pagesFetchedTotal,
		m.resolutionsTotal,
		m.refreshRunsTotal,
		m.refreshDurationSecs,
		m.refreshAddressesCount,
		m.refreshNamesFound,
		m.leaderboardRequests,
		m.natsConnected,
	)

	return m
}

func (m *Metrics) IncCacheHit(cacheType string) {
	m.cacheHitTotal.WithLabelValues(cacheType).Inc()
}

func (m *Metrics) IncCacheMiss(cacheType string) {
	m.cacheMissTotal.WithLabelValues(cacheType).Inc()
}

func (m *Metrics) IncCacheError(op string) {
	m.cacheErrorTotal.WithLabelValues(op).Inc()
}

// ObserveUpstream 记录一次上游请求，status 为 HTTP 状态码或 error
func (m *Metrics) ObserveUpstream(source, status string, seconds float64) {
	m.upstreamRequests.WithLabelValues(source, status).Inc()
	m.upstreamDuration.WithLabelValues(source).Observe(seconds)
}

func (m *Metrics) IncRateLimitRetry(source string) {
	m.rateLimitRetries.WithLabelValues(source).Inc()
}

func (m *Metrics) IncPagesFetched(source string) {
	m.pagesFetchedTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) IncResolution(result string) {
	m.resolutionsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncRefreshRun(status string) {
	m.refreshRunsTotal.WithLabelValues(status).Inc()
}

// ObserveRefresh 记录一次完成的刷新
func (m *Metrics) ObserveRefresh(seconds float64, processed, found int) {
	m.refreshDurationSecs.Observe(seconds)
	m.refreshAddressesCount.Set(float64(processed))
	m.refreshNamesFound.Set(float64(found))
}

func (m *Metrics) IncLeaderboardRequest(source, status string) {
	m.leaderboardRequests.WithLabelValues(source, status).Inc()
}

func (m *Metrics) SetNATSConnected(connected bool) {
	if connected {
		m.natsConnected.Set(1)
	} else {
		m.natsConnected.Set(0)
	}
}

var globalMetrics *Metrics
var metricsMu sync.Once

// GetMetrics 获取全局指标收集器
func GetMetrics() *Metrics {
	metricsMu.Do(func() {
		globalMetrics = NewMetrics("lazy_leaderboard")
	})
	return globalMetrics
}

// InitMetrics 初始化指标收集器（供main使用）
func InitMetrics() {
	GetMetrics()
}
