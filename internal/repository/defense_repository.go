package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/defense-scheduler/internal/models"
)

// DefenseRepository reads the scheduling inputs of a defense session.
type DefenseRepository struct {
	db *sqlx.DB
}

// NewDefenseRepository constructs the repository.
func NewDefenseRepository(db *sqlx.DB) *DefenseRepository {
	return &DefenseRepository{db: db}
}

// FindSession loads a session by id. Misses return sql.ErrNoRows.
func (r *DefenseRepository) FindSession(ctx context.Context, id string) (*models.DefenseSession, error) {
	const query = `SELECT id, name, status, created_at, updated_at FROM defense_sessions WHERE id = $1`
	var session models.DefenseSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListProjects returns the projects of a session in a stable order.
func (r *DefenseRepository) ListProjects(ctx context.Context, sessionID string) ([]models.DefenseProject, error) {
	const query = `SELECT id, session_id, title, kind, responsible_instructor_id, jury_count, created_at
FROM defense_projects WHERE session_id = $1 ORDER BY created_at ASC, id ASC`
	var projects []models.DefenseProject
	if err := r.db.SelectContext(ctx, &projects, query, sessionID); err != nil {
		return nil, fmt.Errorf("list defense projects: %w", err)
	}
	return projects, nil
}

// ListInstructors returns the instructors taking part in a session.
func (r *DefenseRepository) ListInstructors(ctx context.Context, sessionID string) ([]models.Instructor, error) {
	const query = `SELECT i.id, i.name, i.email FROM instructors i
JOIN defense_session_instructors dsi ON dsi.instructor_id = i.id
WHERE dsi.session_id = $1 ORDER BY i.id ASC`
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, sessionID); err != nil {
		return nil, fmt.Errorf("list session instructors: %w", err)
	}
	return instructors, nil
}

// ListClassrooms returns the rooms reserved for a session.
func (r *DefenseRepository) ListClassrooms(ctx context.Context, sessionID string) ([]models.Classroom, error) {
	const query = `SELECT id, session_id, name, capacity FROM classrooms WHERE session_id = $1 ORDER BY name ASC, id ASC`
	var classrooms []models.Classroom
	if err := r.db.SelectContext(ctx, &classrooms, query, sessionID); err != nil {
		return nil, fmt.Errorf("list session classrooms: %w", err)
	}
	return classrooms, nil
}

// ListTimeslots returns the slots of a session ordered by index.
func (r *DefenseRepository) ListTimeslots(ctx context.Context, sessionID string) ([]models.Timeslot, error) {
	const query = `SELECT id, session_id, slot_index, starts_at FROM timeslots WHERE session_id = $1 ORDER BY slot_index ASC`
	var timeslots []models.Timeslot
	if err := r.db.SelectContext(ctx, &timeslots, query, sessionID); err != nil {
		return nil, fmt.Errorf("list session timeslots: %w", err)
	}
	return timeslots, nil
}

// LoadSession gathers everything the optimizer needs for one session.
func (r *DefenseRepository) LoadSession(ctx context.Context, sessionID string) (*models.DefenseSessionData, error) {
	session, err := r.FindSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	data := &models.DefenseSessionData{Session: *session}
	if data.Projects, err = r.ListProjects(ctx, sessionID); err != nil {
		return nil, err
	}
	if data.Instructors, err = r.ListInstructors(ctx, sessionID); err != nil {
		return nil, err
	}
	if data.Classrooms, err = r.ListClassrooms(ctx, sessionID); err != nil {
		return nil, err
	}
	if data.Timeslots, err = r.ListTimeslots(ctx, sessionID); err != nil {
		return nil, err
	}
	return data, nil
}
