package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/defense-scheduler/internal/dto"
	"github.com/noah-isme/defense-scheduler/internal/middleware"
	"github.com/noah-isme/defense-scheduler/internal/models"
	"github.com/noah-isme/defense-scheduler/internal/service"
	appErrors "github.com/noah-isme/defense-scheduler/pkg/errors"
	"github.com/noah-isme/defense-scheduler/pkg/response"
)

const maxInlineProjects = 5000

type optimizer interface {
	Run(ctx context.Context, req dto.OptimizeRequest) (*dto.OptimizationResponse, error)
	Enqueue(ctx context.Context, req dto.OptimizeRequest) (*dto.OptimizationResponse, error)
	Get(ctx context.Context, runID string) (*dto.OptimizationResponse, error)
	Save(ctx context.Context, req dto.SaveOptimizationRequest) (*dto.SaveOptimizationResponse, error)
	ListRuns(ctx context.Context, query dto.OptimizationRunQuery) ([]models.OptimizationRun, bool, error)
	ListAssignments(ctx context.Context, runID string) ([]models.OptimizationAssignment, error)
}

// OptimizationHandler exposes the defense scheduling endpoints.
type OptimizationHandler struct {
	service optimizer
	prefix  string
}

// NewOptimizationHandler constructs the handler. prefix is the API prefix used
// to build Location headers.
func NewOptimizationHandler(svc *service.OptimizationService, prefix string) *OptimizationHandler {
	return &OptimizationHandler{service: svc, prefix: prefix}
}

// Run godoc
// @Summary Optimize a defense schedule
// @Description Runs the optimizer synchronously for a stored session or an inline problem and keeps the result as a preview.
// @Tags Optimization
// @Accept json
// @Produce json
// @Param payload body dto.OptimizeRequest true "Optimization request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /optimizations [post]
func (h *OptimizationHandler) Run(c *gin.Context) {
	req, ok := bindOptimizeRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"mode": "preview"})
}

// Enqueue godoc
// @Summary Queue a defense schedule optimization
// @Tags Optimization
// @Accept json
// @Produce json
// @Param payload body dto.OptimizeRequest true "Optimization request"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /optimizations/jobs [post]
func (h *OptimizationHandler) Enqueue(c *gin.Context) {
	req, ok := bindOptimizeRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, result, h.prefix+"/optimizations/"+result.RunID)
}

// Get godoc
// @Summary Get a preview or queued optimization run
// @Tags Optimization
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /optimizations/{id} [get]
func (h *OptimizationHandler) Get(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Save godoc
// @Summary Persist an optimization run as a new session version
// @Tags Optimization
// @Accept json
// @Produce json
// @Param payload body dto.SaveOptimizationRequest true "Save payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /optimizations/save [post]
func (h *OptimizationHandler) Save(c *gin.Context) {
	var req dto.SaveOptimizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	result, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListRuns godoc
// @Summary List stored optimization runs of a session
// @Tags Optimization
// @Produce json
// @Param sessionId query string true "Defense session ID"
// @Success 200 {object} response.Envelope
// @Router /optimization-runs [get]
func (h *OptimizationHandler) ListRuns(c *gin.Context) {
	var query dto.OptimizationRunQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	runs, cacheHit, err := h.service.ListRuns(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, runs, &models.Pagination{Page: 1, PageSize: len(runs), TotalCount: len(runs)}, middleware.ExtractMeta(c))
}

// Assignments godoc
// @Summary List assignments of a stored optimization run
// @Tags Optimization
// @Produce json
// @Param id path string true "Stored run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /optimization-runs/{id}/assignments [get]
func (h *OptimizationHandler) Assignments(c *gin.Context) {
	assignments, err := h.service.ListAssignments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

func bindOptimizeRequest(c *gin.Context) (dto.OptimizeRequest, bool) {
	var req dto.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid optimization payload"))
		return req, false
	}
	if req.Problem != nil && len(req.Problem.Projects) > maxInlineProjects {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "problem.projects exceeds supported limit"))
		return req, false
	}
	return req, true
}
