package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/jobs"
)

// ReportJobType tags report jobs on the queue.
const ReportJobType = "report"

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	ListByCreator(ctx context.Context, userID string, limit int) ([]models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListUnfinished(ctx context.Context, limit int) ([]models.ReportJob, error)
	PurgeFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

// ReportServiceConfig governs queue recovery and cleanup.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// ReportService owns the attendance report job lifecycle.
type ReportService struct {
	repo       reportJobStore
	queue      jobDispatcher
	exporter   *ExportService
	attendance *AttendanceService
	classes    classLookup
	guard      *authz.Guard
	effects    WorkflowEffects
	logger     *zap.Logger
	cfg        ReportServiceConfig
}

// NewReportService constructs the report service. attendance supplies the read rules
// shared with the attendance summary endpoint.
func NewReportService(repo reportJobStore, queue jobDispatcher, exporter *ExportService, attendance *AttendanceService, classes classLookup, guard *authz.Guard, effects WorkflowEffects, cfg ReportServiceConfig) *ReportService {
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ReportService{
		repo:       repo,
		queue:      queue,
		exporter:   exporter,
		attendance: attendance,
		classes:    classes,
		guard:      guard,
		effects:    effects,
		logger:     effects.logger(),
		cfg:        cfg,
	}
}

// Request validates access, persists the job and enqueues it.
func (s *ReportService) Request(ctx context.Context, claims *models.JWTClaims, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	if _, err := s.guard.Reverify(ctx, claims, models.RoleStudent, models.RoleFaculty, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validateRequest(ctx, claims, &req); err != nil {
		return nil, err
	}

	job := &models.ReportJob{
		Type: req.Type,
		Params: models.ReportJobParams{
			ClassID:     req.ClassID,
			SubjectName: req.SubjectName,
			StudentID:   req.StudentID,
			Format:      req.Format,
		},
		Status:    models.ReportStatusQueued,
		CreatedBy: claims.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, storeError(err, "report", "create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ReportJobType}); err != nil {
		status := models.ReportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		_ = s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Internal(err, "failed to enqueue report job")
	}
	s.effects.audit(ctx, claims.UserID, models.AuditActionReportRequest, "report_job", job.ID, nil, job.Params)
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// Status exposes job progress to its creator and to admins.
func (s *ReportService) Status(ctx context.Context, claims *models.JWTClaims, id string) (*dto.ReportStatusResponse, error) {
	if err := authz.RequireRole(claims, models.RoleStudent, models.RoleFaculty, models.RoleAdmin); err != nil {
		return nil, err
	}
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "report", "load report job")
	}
	if err := authz.RequireCreator(job.CreatedBy, claims, "report", true); err != nil {
		return nil, err
	}
	return reportStatus(job), nil
}

// Mine lists the caller's recent report jobs.
func (s *ReportService) Mine(ctx context.Context, claims *models.JWTClaims) ([]dto.ReportStatusResponse, error) {
	if err := authz.RequireRole(claims, models.RoleStudent, models.RoleFaculty, models.RoleAdmin); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByCreator(ctx, claims.UserID, 20)
	if err != nil {
		return nil, storeError(err, "report", "list report jobs")
	}
	out := make([]dto.ReportStatusResponse, 0, len(items))
	for i := range items {
		out = append(out, *reportStatus(&items[i]))
	}
	return out, nil
}

func reportStatus(job *models.ReportJob) *dto.ReportStatusResponse {
	resp := &dto.ReportStatusResponse{
		ID:         job.ID,
		Type:       job.Type,
		Format:     job.Params.Format,
		Status:     job.Status,
		Progress:   job.Progress,
		ResultURL:  job.ResultURL,
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp
}

// ResolveDownload validates token and opens the stored export file. The token is the
// credential, so no claims are needed.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	jobID, relPath, expiresAt, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, storeError(err, "report", "load report job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}
	file, err := s.exporter.Open(relPath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to open export file")
	}
	return &ReportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Params.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// RecoverPendingJobs re-enqueues jobs left QUEUED or PROCESSING by a previous run.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListUnfinished(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover unfinished report jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ReportJobType}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending job", "job_id", job.ID, "error", err)
		}
	}
}

// StartCleanup purges expired export files and their job rows every CleanupInterval
// until ctx ends.
func (s *ReportService) StartCleanup(ctx context.Context) {
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
				s.cleanup(ctx)
			}
		}
	}()
}

func (s *ReportService) cleanup(ctx context.Context) {
	removed, err := s.exporter.Cleanup(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Sugar().Warnw("report file cleanup failed", "error", err)
	} else if len(removed) > 0 {
		s.logger.Sugar().Infow("expired report files removed", "count", len(removed))
	}
	purged, err := s.repo.PurgeFinishedBefore(ctx, time.Now().UTC().Add(-s.cfg.ResultTTL))
	if err != nil {
		s.logger.Sugar().Warnw("report row cleanup failed", "error", err)
		return
	}
	if purged > 0 {
		s.logger.Sugar().Infow("expired report jobs purged", "count", purged)
	}
}

func (s *ReportService) validateRequest(ctx context.Context, claims *models.JWTClaims, req *dto.ReportRequest) error {
	req.ClassID = strings.TrimSpace(req.ClassID)
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.SubjectName = strings.TrimSpace(req.SubjectName)
	if !req.Format.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}

	switch req.Type {
	case models.ReportTypeClassAttendance:
		if req.ClassID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "classId is required for class reports")
		}
		if claims.Role == models.RoleStudent {
			return appErrors.Clone(appErrors.ErrForbidden, authz.InsufficientRole)
		}
		class, err := s.classes.FindByID(ctx, req.ClassID)
		if err != nil {
			return storeError(err, "class", "load class")
		}
		if claims.Role == models.RoleAdmin {
			return nil
		}
		if req.SubjectName != "" {
			return authz.RequireClassTeacherOrSubjectTeacher(class, req.SubjectName, claims.UserID)
		}
		return authz.RequireTeachesClass(class, claims.UserID)
	case models.ReportTypeStudentAttendance:
		if req.StudentID == "" && claims.Role == models.RoleStudent {
			req.StudentID = claims.UserID
		}
		if req.StudentID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "studentId is required for student reports")
		}
		return s.attendance.requireSummaryReader(ctx, claims, req.StudentID)
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unsupported report type")
	}
}

// ReportWorker bridges queue jobs to ExportService.
type ReportWorker struct {
	repo       reportJobStore
	exporter   exportGenerator
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

// NewReportWorker constructs a worker. maxRetries must match the queue's retry budget so
// the last attempt marks the job failed.
func NewReportWorker(repo reportJobStore, exporter exportGenerator, maxRetries int, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ReportWorker{repo: repo, exporter: exporter, logger: logger, maxRetries: maxRetries, now: time.Now}
}

// Handle processes a queue job.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return jobs.Permanent(fmt.Errorf("report job %s: %w", job.ID, err))
	}
	if err != nil {
		return err
	}
	if record.Status.Terminal() {
		return nil
	}
	processing := models.ReportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{Status: &processing, Progress: &progress}); err != nil {
		if errors.Is(err, repository.ErrStaleVersion) || errors.Is(err, sql.ErrNoRows) {
			return jobs.Permanent(fmt.Errorf("report job %s: %w", job.ID, err))
		}
		return err
	}

	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		params := repository.UpdateReportJobParams{ErrorMessage: &msg}
		if job.Attempt >= w.maxRetries {
			failed := models.ReportStatusFailed
			done := 100
			now := w.now().UTC()
			params.Status, params.Progress, params.FinishedAt = &failed, &done, &now
		} else {
			queued := models.ReportStatusQueued
			reset := 0
			params.Status, params.Progress = &queued, &reset
		}
		if updateErr := w.repo.Update(ctx, job.ID, params); updateErr != nil {
			w.logger.Sugar().Warnw("failed to record report failure", "job_id", job.ID, "error", updateErr)
		}
		return err
	}

	finished := models.ReportStatusFinished
	progress = 100
	now := w.now().UTC()
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &result.URL,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark job finished", "job_id", job.ID, "error", err)
		return err
	}
	return nil
}
