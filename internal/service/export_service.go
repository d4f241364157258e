package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/defense-scheduler/internal/dto"
	"github.com/noah-isme/defense-scheduler/internal/models"
	"github.com/noah-isme/defense-scheduler/internal/scheduler"
	appErrors "github.com/noah-isme/defense-scheduler/pkg/errors"
	"github.com/noah-isme/defense-scheduler/pkg/storage"
)

type runSource interface {
	Get(ctx context.Context, runID string) (*dto.OptimizationResponse, error)
	ListAssignments(ctx context.Context, runID string) ([]models.OptimizationAssignment, error)
}

type fileStore interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Prune(ttl time.Duration) ([]string, error)
}

type tokenSigner interface {
	Sign(runID, name string) (string, time.Time, error)
	Verify(token string, allowExpired bool) (storage.Grant, error)
	TTL() time.Duration
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix       string
	CleanupInterval time.Duration
}

// ExportDownload is a resolved download ready to stream.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    dto.ExportFormat
	ExpiresAt time.Time
}

// ExportService writes run assignments to disk and hands out signed links.
type ExportService struct {
	runs      runSource
	store     fileStore
	signer    tokenSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(runs runSource, store fileStore, signer tokenSigner, validate *validator.Validate, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ExportService{
		runs:      runs,
		store:     store,
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Export renders the run's assignments and returns a signed download link.
// Completed previews are read from memory; saved runs from the database.
func (s *ExportService) Export(ctx context.Context, req dto.ExportRequest) (*dto.ExportResponse, error) {
	if req.Format == "" {
		req.Format = dto.ExportFormatCSV
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}

	assignments, err := s.assignmentsFor(ctx, req.RunID)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if req.Format == dto.ExportFormatJSON {
		payload, err = scheduler.EncodeAssignmentsJSON(assignments)
	} else {
		payload, err = scheduler.EncodeAssignmentsCSV(assignments)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	name := path.Join(req.RunID, fmt.Sprintf("schedule_%s.%s", s.now().UTC().Format("20060102_150405"), req.Format))
	stored, err := s.store.Save(name, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Sign(req.RunID, stored)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export")
	}

	s.logger.Info("schedule exported",
		zap.String("run_id", req.RunID),
		zap.String("format", string(req.Format)),
		zap.Int("assignments", len(assignments)),
	)
	return &dto.ExportResponse{
		RunID:     req.RunID,
		Format:    req.Format,
		URL:       fmt.Sprintf("%s/optimization-exports/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveDownload verifies a token and opens the file it grants.
func (s *ExportService) ResolveDownload(_ context.Context, token string) (*ExportDownload, error) {
	grant, err := s.signer.Verify(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}
	file, err := s.store.Open(grant.Name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	return &ExportDownload{
		File:      file,
		Filename:  path.Base(grant.Name),
		Format:    dto.ExportFormat(strings.TrimPrefix(path.Ext(grant.Name), ".")),
		ExpiresAt: grant.ExpiresAt,
	}, nil
}

// StartCleanup periodically removes exports older than the link lifetime.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Cleanup removes exports whose links have expired.
func (s *ExportService) Cleanup() {
	removed, err := s.store.Prune(s.signer.TTL())
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
}

func (s *ExportService) assignmentsFor(ctx context.Context, runID string) ([]scheduler.Assignment, error) {
	record, err := s.runs.Get(ctx, runID)
	if err == nil {
		if record.Status != dto.OptimizationStatusCompleted {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("run is %s", record.Status))
		}
		return record.Assignments, nil
	}

	if !errors.Is(err, appErrors.ErrNotFound) {
		return nil, err
	}
	rows, err := s.runs.ListAssignments(ctx, runID)
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(row models.OptimizationAssignment, _ int) scheduler.Assignment {
		return scheduler.Assignment{
			ProjectID:   row.ProjectID,
			ClassroomID: row.ClassroomID,
			TimeslotID:  row.TimeslotID,
			Instructors: append([]string{row.ResponsibleID}, row.JuryIDs...),
		}
	}), nil
}
