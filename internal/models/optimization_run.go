package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// OptimizationRun is a persisted, versioned schedule produced by the optimizer.
type OptimizationRun struct {
	ID              string         `db:"id" json:"id"`
	SessionID       string         `db:"session_id" json:"session_id"`
	Version         int            `db:"version" json:"version"`
	Algorithm       string         `db:"algorithm" json:"algorithm"`
	Score           float64        `db:"score" json:"score"`
	Feasible        bool           `db:"feasible" json:"feasible"`
	CoveragePercent float64        `db:"coverage_percent" json:"coverage_percent"`
	Conflicts       int            `db:"conflicts" json:"conflicts"`
	Iterations      int            `db:"iterations" json:"iterations"`
	Meta            types.JSONText `db:"meta" json:"meta"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

// OptimizationAssignment is one placed defense of a persisted run.
type OptimizationAssignment struct {
	ID            string         `db:"id" json:"id"`
	RunID         string         `db:"run_id" json:"run_id"`
	ProjectID     string         `db:"project_id" json:"project_id"`
	ClassroomID   string         `db:"classroom_id" json:"classroom_id"`
	TimeslotID    string         `db:"timeslot_id" json:"timeslot_id"`
	ResponsibleID string         `db:"responsible_id" json:"responsible_id"`
	JuryIDs       pq.StringArray `db:"jury_ids" json:"jury_ids"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}
