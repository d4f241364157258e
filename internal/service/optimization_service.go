package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/defense-scheduler/internal/dto"
	"github.com/noah-isme/defense-scheduler/internal/models"
	"github.com/noah-isme/defense-scheduler/internal/scheduler"
	"github.com/noah-isme/defense-scheduler/pkg/config"
	appErrors "github.com/noah-isme/defense-scheduler/pkg/errors"
	"github.com/noah-isme/defense-scheduler/pkg/events"
	"github.com/noah-isme/defense-scheduler/pkg/jobs"
)

// Outcome labels used for metrics.
const (
	OutcomeFeasible   = "feasible"
	OutcomeBestEffort = "best_effort"
	OutcomeFailed     = "failed"
)

// OptimizationJobType tags queued optimization jobs.
const OptimizationJobType = "optimization.run"

type defenseSessionLoader interface {
	LoadSession(ctx context.Context, sessionID string) (*models.DefenseSessionData, error)
}

type optimizationRunStore interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, run *models.OptimizationRun) error
	InsertAssignments(ctx context.Context, exec sqlx.ExtContext, assignments []models.OptimizationAssignment) error
	ListBySession(ctx context.Context, sessionID string) ([]models.OptimizationRun, error)
	FindByID(ctx context.Context, id string) (*models.OptimizationRun, error)
	ListAssignments(ctx context.Context, runID string) ([]models.OptimizationAssignment, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type resultCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

type jobSubmitter interface {
	TryEnqueue(job jobs.Job) error
	Pending() int
}

// OptimizationConfig governs optimization service behaviour.
type OptimizationConfig struct {
	Defaults    scheduler.Options
	ProposalTTL time.Duration
}

// OptimizationService runs the scheduling engine for stored sessions or inline
// problems, keeps previews for ProposalTTL and persists chosen results.
type OptimizationService struct {
	sessions  defenseSessionLoader
	runs      optimizationRunStore
	tx        txProvider
	cache     resultCache
	publisher events.Publisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	defaults  scheduler.Options
	ttl       time.Duration
	store     *runStore

	mu    sync.RWMutex
	queue jobSubmitter
}

type optimizationJob struct {
	Problem   *scheduler.Problem
	Options   scheduler.Options
	SessionID string
}

// OptionsFromConfig derives engine defaults from service configuration.
func OptionsFromConfig(cfg config.SchedulerConfig) scheduler.Options {
	opts := scheduler.DefaultOptions()
	if kind, err := scheduler.ParseKind(cfg.Algorithm); err == nil {
		opts.Algorithm = kind
	}
	if cfg.Iterations > 0 {
		opts.Iterations = cfg.Iterations
	}
	if cfg.PopulationSize > 0 {
		opts.PopulationSize = cfg.PopulationSize
	}
	if cfg.Restarts > 0 {
		opts.Restarts = cfg.Restarts
	}
	if cfg.Workers > 0 {
		opts.Workers = cfg.Workers
	}
	if cfg.MaxDuration > 0 {
		opts.MaxDuration = cfg.MaxDuration
	}
	if cfg.Seed != 0 {
		opts.Seed = cfg.Seed
	}
	return opts
}

// NewOptimizationService wires optimization dependencies. Cache, publisher and
// metrics are optional.
func NewOptimizationService(
	sessions defenseSessionLoader,
	runs optimizationRunStore,
	tx txProvider,
	cache resultCache,
	publisher events.Publisher,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg OptimizationConfig,
) *OptimizationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.Defaults.Algorithm == "" {
		cfg.Defaults = scheduler.DefaultOptions()
	}
	return &OptimizationService{
		sessions:  sessions,
		runs:      runs,
		tx:        tx,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		defaults:  cfg.Defaults,
		ttl:       cfg.ProposalTTL,
		store:     newRunStore(cfg.ProposalTTL),
	}
}

// AttachQueue enables background runs. The queue's handler should be HandleJob.
func (s *OptimizationService) AttachQueue(queue jobSubmitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = queue
}

// Run optimizes synchronously and returns the completed preview.
func (s *OptimizationService) Run(ctx context.Context, req dto.OptimizeRequest) (*dto.OptimizationResponse, error) {
	problem, opts, sessionID, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	record := dto.OptimizationResponse{
		RunID:       uuid.NewString(),
		SessionID:   sessionID,
		Status:      dto.OptimizationStatusRunning,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(record)

	resp, err := s.execute(ctx, record, problem, opts)
	if err != nil {
		s.store.Delete(record.RunID)
		return nil, err
	}
	return resp, nil
}

// Enqueue validates the request and schedules it on the worker queue.
func (s *OptimizationService) Enqueue(ctx context.Context, req dto.OptimizeRequest) (*dto.OptimizationResponse, error) {
	s.mu.RLock()
	queue := s.queue
	s.mu.RUnlock()
	if queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "background optimization is disabled")
	}

	problem, opts, sessionID, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	record := dto.OptimizationResponse{
		RunID:       uuid.NewString(),
		SessionID:   sessionID,
		Status:      dto.OptimizationStatusQueued,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(record)

	job := jobs.Job{
		ID:      record.RunID,
		Type:    OptimizationJobType,
		Payload: optimizationJob{Problem: problem, Options: opts, SessionID: sessionID},
	}
	if err := queue.TryEnqueue(job); err != nil {
		s.store.Delete(record.RunID)
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Wrap(err, appErrors.ErrQueueFull.Code, appErrors.ErrQueueFull.Status, appErrors.ErrQueueFull.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue optimization")
	}
	s.metrics.SetQueueDepth(queue.Pending())
	s.logger.Info("optimization queued", zap.String("run_id", record.RunID), zap.String("session_id", sessionID))
	return &record, nil
}

// HandleJob executes a queued optimization. It is the jobs.Handler of the
// optimization queue.
func (s *OptimizationService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(optimizationJob)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	record, found := s.store.Get(job.ID)
	if !found {
		record = dto.OptimizationResponse{RunID: job.ID, SessionID: payload.SessionID, RequestedAt: job.Enqueued}
	}
	record.Status = dto.OptimizationStatusRunning
	s.store.Save(record)

	s.mu.RLock()
	if s.queue != nil {
		s.metrics.SetQueueDepth(s.queue.Pending())
	}
	s.mu.RUnlock()

	_, err := s.execute(ctx, record, payload.Problem, payload.Options)
	return err
}

// HandleJobFailure marks a job failed once the queue gives up on it.
func (s *OptimizationService) HandleJobFailure(job jobs.Job, err error) {
	record, found := s.store.Get(job.ID)
	if !found {
		record = dto.OptimizationResponse{RunID: job.ID, RequestedAt: job.Enqueued}
	}
	completed := time.Now().UTC()
	record.Status = dto.OptimizationStatusFailed
	record.Error = err.Error()
	record.CompletedAt = &completed
	s.store.Save(record)

	ctx := context.Background()
	s.cacheRecord(ctx, record)
	s.publish(ctx, events.RunCompletedEvent{
		RunID:       record.RunID,
		SessionID:   record.SessionID,
		Status:      string(record.Status),
		Error:       record.Error,
		CompletedAt: completed,
	})
}

// Get returns a preview or queued run from memory, falling back to the cache.
func (s *OptimizationService) Get(ctx context.Context, runID string) (*dto.OptimizationResponse, error) {
	if record, ok := s.store.Get(runID); ok {
		return &record, nil
	}
	if s.cache != nil {
		var record dto.OptimizationResponse
		hit, err := s.cache.Get(ctx, runCacheKey(runID), &record)
		if err == nil && hit {
			return &record, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "optimization run not found or expired")
}

// Save persists a completed run as the next version of its session.
func (s *OptimizationService) Save(ctx context.Context, req dto.SaveOptimizationRequest) (*dto.SaveOptimizationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save optimization payload")
	}
	record, err := s.Get(ctx, req.RunID)
	if err != nil {
		return nil, err
	}
	if record.Status != dto.OptimizationStatusCompleted || record.Outcome == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("optimization run is %s", record.Status))
	}
	if !record.Outcome.Feasible && !req.AllowBestEffort {
		return nil, appErrors.Clone(appErrors.ErrBestEffort, "schedule has unresolved violations; set allowBestEffort to save it")
	}
	sessionID := lo.Ternary(req.SessionID != "", req.SessionID, record.SessionID)
	if sessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sessionId is required for runs built from an inline problem")
	}
	if s.tx == nil || s.runs == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "run persistence is not configured")
	}

	meta, err := json.Marshal(map[string]any{
		"previewId": record.RunID,
		"breakdown": record.Outcome.Breakdown,
		"summary":   record.Outcome.Summary,
		"runs":      record.Outcome.Runs,
		"notes":     record.Outcome.Notes,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode run metadata")
	}
	run := &models.OptimizationRun{
		SessionID:       sessionID,
		Algorithm:       string(record.Outcome.Algorithm),
		Score:           record.Outcome.Breakdown.Total,
		Feasible:        record.Outcome.Feasible,
		CoveragePercent: record.Outcome.Summary.CoveragePercent,
		Conflicts:       record.Outcome.Summary.Conflicts,
		Iterations:      record.Outcome.Iterations,
		Meta:            types.JSONText(meta),
	}

	start := time.Now()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.runs.CreateVersioned(ctx, tx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store optimization run")
	}
	rows := lo.Map(record.Assignments, func(a scheduler.Assignment, _ int) models.OptimizationAssignment {
		return models.OptimizationAssignment{
			RunID:         run.ID,
			ProjectID:     a.ProjectID,
			ClassroomID:   a.ClassroomID,
			TimeslotID:    a.TimeslotID,
			ResponsibleID: a.Responsible(),
			JuryIDs:       a.Jury(),
		}
	})
	if err = s.runs.InsertAssignments(ctx, tx, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store assignments")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit optimization run")
	}
	s.metrics.ObserveDBQuery("optimization_run_save", time.Since(start))

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, sessionCachePattern(sessionID))
	}
	s.logger.Info("optimization run saved",
		zap.String("run_id", run.ID), zap.String("session_id", sessionID), zap.Int("version", run.Version), zap.Bool("feasible", run.Feasible))

	return &dto.SaveOptimizationResponse{ID: run.ID, SessionID: sessionID, Version: run.Version, Feasible: run.Feasible}, nil
}

// ListRuns returns the stored versions of a session, newest first, and whether
// they came from the cache.
func (s *OptimizationService) ListRuns(ctx context.Context, query dto.OptimizationRunQuery) ([]models.OptimizationRun, bool, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "sessionId is required")
	}
	key := sessionRunsCacheKey(query.SessionID)
	if s.cache != nil {
		var cached []models.OptimizationRun
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, true, nil
		}
	}

	start := time.Now()
	runs, err := s.runs.ListBySession(ctx, query.SessionID)
	s.metrics.ObserveDBQuery("optimization_runs_list", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list optimization runs")
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, runs, s.ttl)
	}
	return runs, false, nil
}

// ListAssignments returns the assignments of a stored run.
func (s *OptimizationService) ListAssignments(ctx context.Context, runID string) ([]models.OptimizationAssignment, error) {
	start := time.Now()
	if _, err := s.runs.FindByID(ctx, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "optimization run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load optimization run")
	}
	assignments, err := s.runs.ListAssignments(ctx, runID)
	s.metrics.ObserveDBQuery("optimization_assignments_list", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

func (s *OptimizationService) prepare(ctx context.Context, req dto.OptimizeRequest) (*scheduler.Problem, scheduler.Options, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, scheduler.Options{}, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid optimization payload")
	}
	opts := applyOptions(s.defaults, req.Options)
	if err := opts.Validate(); err != nil {
		return nil, scheduler.Options{}, "", mapEngineError(err)
	}

	var (
		problem *scheduler.Problem
		err     error
	)
	if req.Problem != nil {
		problem, err = problemFromPayload(*req.Problem)
	} else {
		problem, err = s.loadSessionProblem(ctx, req.SessionID)
	}
	if err != nil {
		return nil, scheduler.Options{}, "", err
	}
	return problem, opts, req.SessionID, nil
}

func (s *OptimizationService) loadSessionProblem(ctx context.Context, sessionID string) (*scheduler.Problem, error) {
	if s.sessions == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "session storage is not configured")
	}
	start := time.Now()
	data, err := s.sessions.LoadSession(ctx, sessionID)
	s.metrics.ObserveDBQuery("defense_session_load", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "defense session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defense session")
	}
	problem, err := problemFromSession(data)
	if err != nil {
		return nil, mapEngineError(err)
	}
	return problem, nil
}

func (s *OptimizationService) execute(ctx context.Context, record dto.OptimizationResponse, problem *scheduler.Problem, opts scheduler.Options) (*dto.OptimizationResponse, error) {
	logger := s.logger.With(zap.String("run_id", record.RunID))
	start := time.Now()
	outcome, err := scheduler.Optimize(ctx, problem, opts, logger)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveOptimization(string(opts.Algorithm), OutcomeFailed, 0, 0, elapsed)
		return nil, mapEngineError(err)
	}

	completed := time.Now().UTC()
	record.Status = dto.OptimizationStatusCompleted
	record.Outcome = outcome
	record.Assignments = outcome.Assignments()
	record.CompletedAt = &completed
	s.store.Save(record)
	s.cacheRecord(ctx, record)

	label := lo.Ternary(outcome.Feasible, OutcomeFeasible, OutcomeBestEffort)
	s.metrics.ObserveOptimization(string(outcome.Algorithm), label, outcome.Breakdown.Total, outcome.Summary.Conflicts, elapsed)
	s.publish(ctx, events.RunCompletedEvent{
		RunID:           record.RunID,
		SessionID:       record.SessionID,
		Status:          string(record.Status),
		Algorithm:       string(outcome.Algorithm),
		Score:           outcome.Breakdown.Total,
		Feasible:        outcome.Feasible,
		CoveragePercent: outcome.Summary.CoveragePercent,
		Conflicts:       outcome.Summary.Conflicts,
		CompletedAt:     completed,
	})
	return &record, nil
}

func (s *OptimizationService) cacheRecord(ctx context.Context, record dto.OptimizationResponse) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, runCacheKey(record.RunID), record, s.ttl)
}

func (s *OptimizationService) publish(ctx context.Context, event events.RunCompletedEvent) {
	if err := s.publisher.PublishRunCompleted(ctx, event); err != nil {
		s.logger.Warn("failed to publish run event", zap.String("run_id", event.RunID), zap.Error(err))
	}
}

func mapEngineError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrInsufficientInput):
		return appErrors.Wrap(err, appErrors.ErrInsufficientInput.Code, appErrors.ErrInsufficientInput.Status, appErrors.ErrInsufficientInput.Message)
	case errors.Is(err, scheduler.ErrInvalidWeights):
		return appErrors.Wrap(err, appErrors.ErrInvalidWeights.Code, appErrors.ErrInvalidWeights.Status, appErrors.ErrInvalidWeights.Message)
	case errors.Is(err, scheduler.ErrInvalidOptions):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid optimization options")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "optimization failed")
	}
}

func runCacheKey(runID string) string {
	return "optimization:run:" + runID
}

func sessionRunsCacheKey(sessionID string) string {
	return "optimization:session:" + sessionID + ":runs"
}

func sessionCachePattern(sessionID string) string {
	return "optimization:session:" + sessionID + ":*"
}

type runStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]storedRun
}

type storedRun struct {
	record  dto.OptimizationResponse
	updated time.Time
}

func newRunStore(ttl time.Duration) *runStore {
	return &runStore{ttl: ttl, items: make(map[string]storedRun)}
}

func (s *runStore) Save(record dto.OptimizationResponse) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, item := range s.items {
		if now.Sub(item.updated) > s.ttl {
			delete(s.items, id)
		}
	}
	s.items[record.RunID] = storedRun{record: record, updated: now}
}

func (s *runStore) Get(id string) (dto.OptimizationResponse, bool) {
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return dto.OptimizationResponse{}, false
	}
	if time.Since(item.updated) > s.ttl {
		s.Delete(id)
		return dto.OptimizationResponse{}, false
	}
	return item.record, true
}

func (s *runStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
