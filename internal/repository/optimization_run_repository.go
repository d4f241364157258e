package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/defense-scheduler/internal/models"
)

// OptimizationRunRepository persists versioned optimization results.
type OptimizationRunRepository struct {
	db *sqlx.DB
}

// NewOptimizationRunRepository constructs the repository.
func NewOptimizationRunRepository(db *sqlx.DB) *OptimizationRunRepository {
	return &OptimizationRunRepository{db: db}
}

func (r *OptimizationRunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a run with the next version number of its session.
func (r *OptimizationRunRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, run *models.OptimizationRun) error {
	if run == nil {
		return fmt.Errorf("optimization run payload is nil")
	}
	if run.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if len(run.Meta) == 0 {
		run.Meta = types.JSONText(`{}`)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM optimization_runs WHERE session_id = $1`
	if err := sqlx.GetContext(ctx, target, &run.Version, nextVersionQuery, run.SessionID); err != nil {
		return fmt.Errorf("compute next optimization run version: %w", err)
	}

	const insertQuery = `
INSERT INTO optimization_runs (id, session_id, version, algorithm, score, feasible, coverage_percent, conflicts, iterations, meta, created_at)
VALUES (:id, :session_id, :version, :algorithm, :score, :feasible, :coverage_percent, :conflicts, :iterations, :meta, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, run); err != nil {
		return fmt.Errorf("insert optimization run: %w", err)
	}
	return nil
}

// InsertAssignments stores the placed defenses of a run.
func (r *OptimizationRunRepository) InsertAssignments(ctx context.Context, exec sqlx.ExtContext, assignments []models.OptimizationAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO optimization_assignments (id, run_id, project_id, classroom_id, timeslot_id, responsible_id, jury_ids, created_at)
VALUES (:id, :run_id, :project_id, :classroom_id, :timeslot_id, :responsible_id, :jury_ids, :created_at)`

	for i := range assignments {
		a := &assignments[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, a); err != nil {
			return fmt.Errorf("insert optimization assignment %s: %w", a.ProjectID, err)
		}
	}
	return nil
}

// ListBySession returns every stored version of a session, newest first.
func (r *OptimizationRunRepository) ListBySession(ctx context.Context, sessionID string) ([]models.OptimizationRun, error) {
	const query = `SELECT id, session_id, version, algorithm, score, feasible, coverage_percent, conflicts, iterations, meta, created_at
FROM optimization_runs WHERE session_id = $1 ORDER BY version DESC`
	var runs []models.OptimizationRun
	if err := r.db.SelectContext(ctx, &runs, query, sessionID); err != nil {
		return nil, fmt.Errorf("list optimization runs: %w", err)
	}
	return runs, nil
}

// FindByID loads a stored run. Misses return sql.ErrNoRows.
func (r *OptimizationRunRepository) FindByID(ctx context.Context, id string) (*models.OptimizationRun, error) {
	const query = `SELECT id, session_id, version, algorithm, score, feasible, coverage_percent, conflicts, iterations, meta, created_at
FROM optimization_runs WHERE id = $1`
	var run models.OptimizationRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListAssignments returns the assignments of a stored run.
func (r *OptimizationRunRepository) ListAssignments(ctx context.Context, runID string) ([]models.OptimizationAssignment, error) {
	const query = `SELECT a.id, a.run_id, a.project_id, a.classroom_id, a.timeslot_id, a.responsible_id, a.jury_ids, a.created_at
FROM optimization_assignments a LEFT JOIN timeslots t ON t.id = a.timeslot_id
WHERE a.run_id = $1 ORDER BY t.slot_index ASC NULLS LAST, a.timeslot_id ASC, a.classroom_id ASC`
	var assignments []models.OptimizationAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, runID); err != nil {
		return nil, fmt.Errorf("list optimization assignments: %w", err)
	}
	return assignments, nil
}
