package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/defense-scheduler/internal/dto"
	"github.com/noah-isme/defense-scheduler/internal/service"
	appErrors "github.com/noah-isme/defense-scheduler/pkg/errors"
)

type exporterMock struct {
	captured dto.ExportRequest
	path     string
	err      error
}

func (m *exporterMock) Export(ctx context.Context, req dto.ExportRequest) (*dto.ExportResponse, error) {
	m.captured = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ExportResponse{RunID: req.RunID, Format: req.Format, URL: "/api/v1/optimization-exports/token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *exporterMock) ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error) {
	if m.err != nil {
		return nil, m.err
	}
	file, err := os.Open(m.path)
	if err != nil {
		return nil, err
	}
	return &service.ExportDownload{File: file, Filename: "schedule.csv", Format: dto.ExportFormatCSV}, nil
}

func newExportRouter(mock *exporterMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &ExportHandler{service: mock}
	router := gin.New()
	router.POST("/optimizations/:id/export", h.Export)
	router.GET("/optimization-exports/:token", h.Download)
	return router
}

func TestExportHandlerExport(t *testing.T) {
	mock := &exporterMock{}
	w := perform(newExportRouter(mock), http.MethodPost, "/optimizations/run-1/export?format=json", nil)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "run-1", mock.captured.RunID)
	assert.Equal(t, dto.ExportFormatJSON, mock.captured.Format)
	assert.Contains(t, w.Body.String(), "/api/v1/optimization-exports/token")
}

func TestExportHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.csv")
	require.NoError(t, os.WriteFile(path, []byte("project_id\np1\n"), 0o600))

	w := perform(newExportRouter(&exporterMock{path: path}), http.MethodGet, "/optimization-exports/token", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="schedule.csv"`)
	assert.Equal(t, "project_id\np1\n", w.Body.String())
}

func TestExportHandlerDownloadForbidden(t *testing.T) {
	mock := &exporterMock{err: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")}
	w := perform(newExportRouter(mock), http.MethodGet, "/optimization-exports/bad", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
