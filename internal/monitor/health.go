package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lazylions/lazy-leaderboard/pkg/goplus"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

// HealthServer HTTP 健康检查和指标服务器
type HealthServer struct {
	addr         string
	store        StoreRef
	publisher    PublisherRef
	scheduler    SchedulerRef
	server       *http.Server
	mu           sync.RWMutex
	healthy      bool
	healthySince time.Time
	startTime    time.Time
	metrics      *Metrics
}

// StoreRef 缓存存储引用接口
type StoreRef interface {
	Name() string
	Ping(ctx context.Context) error
}

// PublisherRef NATS发布器引用接口
type PublisherRef interface {
	IsConnected() bool
}

// SchedulerRef 刷新调度器引用接口
type SchedulerRef interface {
	GetStats() map[string]any
}

// NewHealthServer 创建健康检查服务器，publisher / scheduler 可为 nil
func NewHealthServer(addr string, store StoreRef, publisher PublisherRef, scheduler SchedulerRef) *HealthServer {
	return &HealthServer{
		addr:         addr,
		store:        store,
		publisher:    publisher,
		scheduler:    scheduler,
		healthy:      true,
		healthySince: time.Now(),
		startTime:    time.Now(),
		metrics:      GetMetrics(),
	}
}

// Handler 返回路由，便于测试
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", h.healthHandler)
	mux.HandleFunc("/health/ready", h.readyHandler)
	mux.HandleFunc("/health/live", h.liveHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/status", h.statusHandler)

	return mux
}

// Start 启动HTTP服务器
func (h *HealthServer) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	goplus.Go(func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("health server error")
		}
	})

	logger.Info().Str("addr", h.addr).Msg("health server started")

	return nil
}

// Stop 停止服务器
func (h *HealthServer) Stop(ctx context.Context) error {
	h.mu.Lock()
	h.healthy = false
	h.mu.Unlock()

	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

func (h *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := h.getHealthStatus(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}

func (h *HealthServer) readyHandler(w http.ResponseWriter, r *http.Request) {
	if !h.isReady(r.Context()) {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *HealthServer) liveHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := h.getHealthStatus(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// isReady 存储可达才算就绪
func (h *HealthServer) isReady(ctx context.Context) bool {
	h.mu.RLock()
	healthy := h.healthy
	h.mu.RUnlock()

	if !healthy {
		return false
	}

	return h.pingStore(ctx) == nil
}

func (h *HealthServer) pingStore(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.store.Ping(ctx)
}

func (h *HealthServer) getHealthStatus(ctx context.Context) HealthStatus {
	h.mu.RLock()
	healthy := h.healthy
	healthySince := h.healthySince
	h.mu.RUnlock()

	store := StoreStatus{}
	if h.store != nil {
		store.Backend = h.store.Name()
		if err := h.pingStore(ctx); err != nil {
			store.Error = err.Error()
		} else {
			store.Reachable = true
		}
	}

	natsConnected := false
	if h.publisher != nil {
		natsConnected = h.publisher.IsConnected()
	}

	var refresh map[string]any
	if h.scheduler != nil {
		refresh = h.scheduler.GetStats()
	}

	return HealthStatus{
		Healthy:      healthy,
		HealthySince: healthySince.Format(time.RFC3339),
		Uptime:       time.Since(h.startTime).String(),
		Store:        store,
		NATS: NATSStatus{
			Connected: natsConnected,
		},
		Refresh: refresh,
	}
}

// HealthStatus 健康状态结构
type HealthStatus struct {
	Healthy      bool           `json:"healthy"`
	HealthySince string         `json:"healthy_since"`
	Uptime       string         `json:"uptime"`
	Store        StoreStatus    `json:"store"`
	NATS         NATSStatus     `json:"nats"`
	Refresh      map[string]any `json:"refresh,omitempty"`
}

type StoreStatus struct {
	Backend   string `json:"backend"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

// NATSStatus NATS连接状态
type NATSStatus struct {
	Connected bool `json:"connected"`
}
