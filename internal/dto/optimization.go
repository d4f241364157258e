package dto

import (
	"time"

	"github.com/noah-isme/defense-scheduler/internal/scheduler"
)

// OptimizationStatus is the lifecycle state of a preview or queued run.
type OptimizationStatus string

const (
	OptimizationStatusQueued    OptimizationStatus = "queued"
	OptimizationStatusRunning   OptimizationStatus = "running"
	OptimizationStatusCompleted OptimizationStatus = "completed"
	OptimizationStatusFailed    OptimizationStatus = "failed"
)

// ProjectPayload describes a defense in an inline problem.
type ProjectPayload struct {
	ID            string `json:"id" validate:"required,max=64"`
	Title         string `json:"title" validate:"omitempty,max=255"`
	Kind          string `json:"kind" validate:"omitempty,oneof=FINAL INTERIM Final Interim final interim"`
	ResponsibleID string `json:"responsibleId" validate:"required,max=64,excludes=;"`
	JuryCount     int    `json:"juryCount" validate:"gte=0,lte=10"`
}

// InstructorPayload describes an instructor in an inline problem.
type InstructorPayload struct {
	ID   string `json:"id" validate:"required,max=64,excludes=;"`
	Name string `json:"name" validate:"omitempty,max=255"`
}

// ClassroomPayload describes a room in an inline problem.
type ClassroomPayload struct {
	ID       string `json:"id" validate:"required,max=64"`
	Capacity int    `json:"capacity" validate:"gte=0"`
}

// TimeslotPayload describes a slot in an inline problem.
type TimeslotPayload struct {
	ID    string    `json:"id" validate:"required,max=64"`
	Index int       `json:"index" validate:"gte=0"`
	Start time.Time `json:"start"`
}

// ProblemPayload carries a complete problem instead of a stored session.
// Empty collections are reported as insufficient input, not validation errors.
type ProblemPayload struct {
	Projects    []ProjectPayload    `json:"projects" validate:"max=5000,dive"`
	Instructors []InstructorPayload `json:"instructors" validate:"max=2000,dive"`
	Classrooms  []ClassroomPayload  `json:"classrooms" validate:"max=500,dive"`
	Timeslots   []TimeslotPayload   `json:"timeslots" validate:"max=2000,dive"`
}

// WeightsPayload overrides individual fitness weights.
type WeightsPayload struct {
	Coverage          *float64 `json:"coverage"`
	Consecutive       *float64 `json:"consecutive"`
	LoadBalance       *float64 `json:"loadBalance"`
	ClassroomSwitch   *float64 `json:"classroomSwitch"`
	Gap               *float64 `json:"gap"`
	Conflict          *float64 `json:"conflict"`
	EarlySlot         *float64 `json:"earlySlot"`
	ResponsibleWeight *float64 `json:"responsibleWeight"`
	JuryWeight        *float64 `json:"juryWeight"`
}

// OptionsPayload overrides the configured search defaults. Nil fields keep the default.
type OptionsPayload struct {
	Algorithm          string          `json:"algorithm" validate:"omitempty,max=32"`
	Iterations         *int            `json:"iterations" validate:"omitempty,gte=1,lte=100000"`
	PopulationSize     *int            `json:"populationSize" validate:"omitempty,gte=2,lte=500"`
	MutationRate       *float64        `json:"mutationRate"`
	InitialTemperature *float64        `json:"initialTemperature"`
	CoolingRate        *float64        `json:"coolingRate"`
	TabuTenure         *int            `json:"tabuTenure" validate:"omitempty,gte=1,lte=1000"`
	NeighborhoodSize   *int            `json:"neighborhoodSize" validate:"omitempty,gte=1,lte=500"`
	MaxDurationMs      *int            `json:"maxDurationMs" validate:"omitempty,gte=0,lte=600000"`
	StallLimit         *int            `json:"stallLimit" validate:"omitempty,gte=0"`
	Restarts           *int            `json:"restarts" validate:"omitempty,gte=1,lte=16"`
	Workers            *int            `json:"workers" validate:"omitempty,gte=1,lte=32"`
	Seed               *int64          `json:"seed"`
	ResolveEachMove    *bool           `json:"resolveEachMove"`
	Weights            *WeightsPayload `json:"weights"`
}

// OptimizeRequest starts an optimization for a stored session or an inline problem.
type OptimizeRequest struct {
	SessionID string          `json:"sessionId" validate:"required_without=Problem,max=64"`
	Problem   *ProblemPayload `json:"problem" validate:"required_without=SessionID"`
	Options   *OptionsPayload `json:"options"`
}

// OptimizationResponse reports the state and outcome of a run.
type OptimizationResponse struct {
	RunID       string                 `json:"runId"`
	SessionID   string                 `json:"sessionId,omitempty"`
	Status      OptimizationStatus     `json:"status"`
	Outcome     *scheduler.Outcome     `json:"outcome,omitempty"`
	Assignments []scheduler.Assignment `json:"assignments,omitempty"`
	Error       string                 `json:"error,omitempty"`
	RequestedAt time.Time              `json:"requestedAt"`
	CompletedAt *time.Time             `json:"completedAt,omitempty"`
}

// SaveOptimizationRequest persists a completed run as a new session version.
type SaveOptimizationRequest struct {
	RunID           string `json:"runId" validate:"required,max=64"`
	SessionID       string `json:"sessionId" validate:"omitempty,max=64"`
	AllowBestEffort bool   `json:"allowBestEffort"`
}

// SaveOptimizationResponse identifies the stored version.
type SaveOptimizationResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Version   int    `json:"version"`
	Feasible  bool   `json:"feasible"`
}

// OptimizationRunQuery filters persisted runs.
type OptimizationRunQuery struct {
	SessionID string `form:"sessionId" validate:"required,max=64"`
}

// ExportFormat selects the file format of a schedule export.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
)

// ExportRequest asks for a downloadable copy of a run's assignments.
type ExportRequest struct {
	RunID  string       `json:"-" validate:"required,max=64"`
	Format ExportFormat `json:"format" form:"format" validate:"omitempty,oneof=csv json"`
}

// ExportResponse points to a signed download.
type ExportResponse struct {
	RunID     string       `json:"runId"`
	Format    ExportFormat `json:"format"`
	URL       string       `json:"url"`
	ExpiresAt time.Time    `json:"expiresAt"`
}
