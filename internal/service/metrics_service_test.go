package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceRecordsOptimizations(t *testing.T) {
	m := NewMetricsService()

	m.ObserveOptimization("temperature", OutcomeFeasible, 990, 0, 200*time.Millisecond)
	m.ObserveOptimization("memory", OutcomeBestEffort, 420, 2, 400*time.Millisecond)
	m.ObserveOptimization("memory", OutcomeFailed, 0, 0, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `optimization_runs_total{algorithm="temperature",outcome="feasible"} 1`)
	assert.Contains(t, body, `optimization_runs_total{algorithm="memory",outcome="failed"} 1`)
	assert.Contains(t, body, "optimization_last_fitness 420")
	assert.Contains(t, body, "optimization_last_conflicts 2")

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(3), snapshot.OptimizationRuns)
	assert.Equal(t, uint64(1), snapshot.FeasibleRuns)
	assert.InDelta(t, 200.0, snapshot.AverageRunDurationMs, 1e-6)
}

func TestMetricsServiceCacheRatioAndHandler(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/optimizations", http.StatusOK, 10*time.Millisecond)
	m.SetQueueDepth(4)

	snapshot := m.Snapshot()
	assert.InDelta(t, 2.0/3.0, snapshot.CacheHitRatio, 1e-9)
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "optimization_queue_depth 4")
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestMetricsServiceNilIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveOptimization("temperature", OutcomeFeasible, 1, 0, time.Second)
	m.RecordCacheOperation(true, time.Second)
	assert.Zero(t, m.Snapshot().OptimizationRuns)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
