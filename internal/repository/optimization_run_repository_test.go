package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/defense-scheduler/internal/models"
)

func TestOptimizationRunRepositoryCreateVersionedInTransaction(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOptimizationRunRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM optimization_runs WHERE session_id = $1")).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO optimization_runs")).
		WithArgs(sqlmock.AnyArg(), "sess-1", 3, "temperature", 987.5, true, 100.0, 0, 500, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO optimization_assignments")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "p1", "r1", "s1", "i1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO optimization_assignments")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "p2", "r1", "s2", "i1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	run := &models.OptimizationRun{
		SessionID:       "sess-1",
		Algorithm:       "temperature",
		Score:           987.5,
		Feasible:        true,
		CoveragePercent: 100,
		Iterations:      500,
	}
	require.NoError(t, repo.CreateVersioned(ctx, tx, run))
	assert.Equal(t, 3, run.Version)
	assert.NotEmpty(t, run.ID)
	assert.JSONEq(t, `{}`, string(run.Meta))

	assignments := []models.OptimizationAssignment{
		{RunID: run.ID, ProjectID: "p1", ClassroomID: "r1", TimeslotID: "s1", ResponsibleID: "i1", JuryIDs: pq.StringArray{"i2"}},
		{RunID: run.ID, ProjectID: "p2", ClassroomID: "r1", TimeslotID: "s2", ResponsibleID: "i1", JuryIDs: pq.StringArray{"i2"}},
	}
	require.NoError(t, repo.InsertAssignments(ctx, tx, assignments))
	require.NoError(t, tx.Commit())

	for _, a := range assignments {
		assert.NotEmpty(t, a.ID)
		assert.False(t, a.CreatedAt.IsZero())
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptimizationRunRepositoryCreateVersionedRequiresSession(t *testing.T) {
	db, _ := newRepoMock(t)
	repo := NewOptimizationRunRepository(db)

	err := repo.CreateVersioned(context.Background(), nil, &models.OptimizationRun{})
	assert.Error(t, err)
	assert.Error(t, repo.CreateVersioned(context.Background(), nil, nil))
}

func TestOptimizationRunRepositoryListBySession(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOptimizationRunRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "session_id", "version", "algorithm", "score", "feasible", "coverage_percent", "conflicts", "iterations", "meta", "created_at"}).
		AddRow("run-2", "sess-1", 2, "memory", 990.0, true, 100.0, 0, 400, types.JSONText(`{}`), now).
		AddRow("run-1", "sess-1", 1, "temperature", 450.0, false, 90.0, 1, 500, types.JSONText(`{"notes":["best effort"]}`), now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM optimization_runs WHERE session_id = $1 ORDER BY version DESC")).
		WithArgs("sess-1").
		WillReturnRows(rows)

	runs, err := repo.ListBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Version)
	assert.False(t, runs[1].Feasible)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptimizationRunRepositoryFindByIDNotFound(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOptimizationRunRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM optimization_runs WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestOptimizationRunRepositoryListAssignmentsScansJury(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOptimizationRunRepository(db)

	rows := sqlmock.NewRows([]string{"id", "run_id", "project_id", "classroom_id", "timeslot_id", "responsible_id", "jury_ids", "created_at"}).
		AddRow("a1", "run-1", "p1", "r1", "s1", "i1", "{i2,i3}", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM optimization_assignments a LEFT JOIN timeslots t ON t.id = a.timeslot_id")).
		WithArgs("run-1").
		WillReturnRows(rows)

	list, err := repo.ListAssignments(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pq.StringArray{"i2", "i3"}, list[0].JuryIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
