package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/defense-scheduler/internal/service"
)

func TestMetricsHandlerEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"database": func(ctx context.Context) error { return nil },
	})
	broken := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})

	router := gin.New()
	router.GET("/metrics", healthy.Prometheus)
	router.GET("/metrics/system", healthy.Snapshot)
	router.GET("/health", healthy.Health)
	router.GET("/ready", healthy.Ready)
	router.GET("/broken/ready", broken.Ready)
	router.GET("/broken/metrics", broken.Prometheus)

	cases := []struct {
		path   string
		status int
		body   string
	}{
		{"/metrics", http.StatusOK, "goroutines_total"},
		{"/metrics/system", http.StatusOK, "optimization_runs"},
		{"/health", http.StatusOK, "ok"},
		{"/ready", http.StatusOK, `"database":"ok"`},
		{"/broken/ready", http.StatusServiceUnavailable, "connection refused"},
		{"/broken/metrics", http.StatusServiceUnavailable, ""},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, tc.path, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, tc.path)
		assert.Contains(t, w.Body.String(), tc.body, tc.path)
	}
}
