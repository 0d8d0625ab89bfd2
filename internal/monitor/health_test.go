package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	err error
}

func (s *fakeStore) Name() string                   { return "memory" }
func (s *fakeStore) Ping(ctx context.Context) error { return s.err }

type fakeScheduler struct{}

func (fakeScheduler) GetStats() map[string]any {
	return map[string]any{"runs": 2}
}

func TestHealthServer_Ready(t *testing.T) {
	store := &fakeStore{}
	h := NewHealthServer(":0", store, nil, fakeScheduler{})
	handler := h.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	store.err = errors.New("connection refused")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthServer_Status(t *testing.T) {
	h := NewHealthServer(":0", &fakeStore{err: errors.New("down")}, nil, fakeScheduler{})

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Healthy)
	assert.Equal(t, "memory", status.Store.Backend)
	assert.False(t, status.Store.Reachable)
	assert.Equal(t, "down", status.Store.Error)
	assert.EqualValues(t, 2, status.Refresh["runs"])
}

func TestHealthServer_StopMarksUnhealthy(t *testing.T) {
	h := NewHealthServer(":0", nil, nil, nil)
	require.NoError(t, h.Stop(context.Background()))

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
