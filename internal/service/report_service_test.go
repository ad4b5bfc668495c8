package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/jobs"
)

type reportRepoStub struct {
	jobs map[string]*models.ReportJob
}

func newReportRepoStub() *reportRepoStub {
	return &reportRepoStub{jobs: map[string]*models.ReportJob{}}
}

func (r *reportRepoStub) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *reportRepoStub) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (r *reportRepoStub) ListByCreator(ctx context.Context, userID string, limit int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range r.jobs {
		if job.CreatedBy == userID {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *reportRepoStub) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if job.Status.Terminal() {
		return repository.ErrStaleVersion
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		url := *params.ResultURL
		job.ResultURL = &url
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *reportRepoStub) ListUnfinished(ctx context.Context, limit int) ([]models.ReportJob, error) {
	var open []models.ReportJob
	for _, job := range r.jobs {
		if !job.Status.Terminal() {
			open = append(open, *job)
		}
	}
	return open, nil
}

func (r *reportRepoStub) PurgeFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, job := range r.jobs {
		if job.Status.Terminal() && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
			n++
		}
	}
	return n, nil
}

type reportFixture struct {
	*exportFixture
	repo    *reportRepoStub
	queue   *recordingDispatcher
	reports *ReportService
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	fx := newExportFixture(t)
	repo := newReportRepoStub()
	queue := &recordingDispatcher{}
	svc := NewReportService(repo, queue, fx.export, fx.marks, fx.env.classes, fx.env.guard, fx.env.effects, ReportServiceConfig{})
	return &reportFixture{exportFixture: fx, repo: repo, queue: queue, reports: svc}
}

func TestReportRequestAccess(t *testing.T) {
	fx := newReportFixture(t)
	ctx := context.Background()

	allowed := []struct {
		name  string
		actor string
		req   dto.ReportRequest
	}{
		{"class teacher", "f1", dto.ReportRequest{Type: models.ReportTypeClassAttendance, ClassID: "c1", Format: models.ReportFormatCSV}},
		{"subject teacher own subject", "f2", dto.ReportRequest{Type: models.ReportTypeClassAttendance, ClassID: "c1", SubjectName: "Math", Format: models.ReportFormatPDF}},
		{"admin any class", "a1", dto.ReportRequest{Type: models.ReportTypeClassAttendance, ClassID: "c1", Format: models.ReportFormatCSV}},
		{"student self by default", "s1", dto.ReportRequest{Type: models.ReportTypeStudentAttendance, Format: models.ReportFormatCSV}},
		{"faculty of student's class", "f2", dto.ReportRequest{Type: models.ReportTypeStudentAttendance, StudentID: "s2", Format: models.ReportFormatCSV}},
	}
	for _, tc := range allowed {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := fx.reports.Request(ctx, fx.env.claims(tc.actor), tc.req)
			require.NoError(t, err)
			assert.Equal(t, models.ReportStatusQueued, resp.Status)
			assert.Equal(t, tc.actor, fx.repo.jobs[resp.ID].CreatedBy)
		})
	}
	require.Len(t, fx.queue.jobs, len(allowed))
	assert.Equal(t, ReportJobType, fx.queue.jobs[0].Type)
	for _, job := range fx.repo.jobs {
		if job.CreatedBy == "s1" {
			assert.Equal(t, "s1", job.Params.StudentID)
		}
	}
	assert.Contains(t, fx.env.users.auditActions(), models.AuditActionReportRequest)

	denied := []struct {
		name  string
		actor string
		req   dto.ReportRequest
		code  *appErrors.Error
	}{
		{"subject teacher other subject", "f2", dto.ReportRequest{Type: models.ReportTypeClassAttendance, ClassID: "c1", SubjectName: "Physics", Format: models.ReportFormatCSV}, appErrors.ErrForbidden},
		{"faculty outside class", "f3", dto.ReportRequest{Type: models.ReportTypeClassAttendance, ClassID: "c1", Format: models.ReportFormatCSV}, appErrors.ErrForbidden},
		{"student class report", "s1", dto.ReportRequest{Type: models.ReportTypeClassAttendance, ClassID: "c1", Format: models.ReportFormatCSV}, appErrors.ErrForbidden},
		{"student other student", "s1", dto.ReportRequest{Type: models.ReportTypeStudentAttendance, StudentID: "s2", Format: models.ReportFormatCSV}, appErrors.ErrForbidden},
		{"hr", "h1", dto.ReportRequest{Type: models.ReportTypeStudentAttendance, StudentID: "s2", Format: models.ReportFormatCSV}, appErrors.ErrForbidden},
		{"bad format", "a1", dto.ReportRequest{Type: models.ReportTypeClassAttendance, ClassID: "c1", Format: "xlsx"}, appErrors.ErrValidation},
		{"bad type", "a1", dto.ReportRequest{Type: "grades", Format: models.ReportFormatCSV}, appErrors.ErrValidation},
		{"missing class", "a1", dto.ReportRequest{Type: models.ReportTypeClassAttendance, Format: models.ReportFormatCSV}, appErrors.ErrValidation},
		{"unknown class", "a1", dto.ReportRequest{Type: models.ReportTypeClassAttendance, ClassID: "c9", Format: models.ReportFormatCSV}, appErrors.ErrNotFound},
	}
	for _, tc := range denied {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.reports.Request(ctx, fx.env.claims(tc.actor), tc.req)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, tc.code), err.Error())
		})
	}
	assert.Len(t, fx.queue.jobs, len(allowed))
}

func TestReportRequestEnqueueFailureMarksJobFailed(t *testing.T) {
	fx := newReportFixture(t)
	fx.queue.err = errors.New("queue full")

	_, err := fx.reports.Request(context.Background(), fx.env.claims("a1"), dto.ReportRequest{
		Type: models.ReportTypeClassAttendance, ClassID: "c1", Format: models.ReportFormatCSV,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
	require.Len(t, fx.repo.jobs, 1)
	for _, job := range fx.repo.jobs {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
	}
}

func TestReportLifecycleThroughWorker(t *testing.T) {
	fx := newReportFixture(t)
	ctx := context.Background()

	resp, err := fx.reports.Request(ctx, fx.env.claims("f1"), dto.ReportRequest{
		Type: models.ReportTypeClassAttendance, ClassID: "c1", Format: models.ReportFormatCSV,
	})
	require.NoError(t, err)

	status, err := fx.reports.Status(ctx, fx.env.claims("f1"), resp.ID)
	require.NoError(t, err)
	assert.Nil(t, status.ResultURL)

	worker := NewReportWorker(fx.repo, fx.export, 3, nil)
	require.NoError(t, worker.Handle(ctx, fx.queue.jobs[0]))

	status, err = fx.reports.Status(ctx, fx.env.claims("a1"), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.ResultURL)

	_, err = fx.reports.Status(ctx, fx.env.claims("f2"), resp.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	mine, err := fx.reports.Mine(ctx, fx.env.claims("f1"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.ReportTypeClassAttendance, mine[0].Type)

	token := filepath.Base(*status.ResultURL)
	download, err := fx.reports.ResolveDownload(ctx, token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ReportFormatCSV, download.Format)
	assert.Contains(t, download.Filename, "class_attendance_c1_")

	_, err = fx.reports.ResolveDownload(ctx, token+"x")
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestReportDownloadRequiresFinishedJob(t *testing.T) {
	fx := newReportFixture(t)
	ctx := context.Background()
	job := &models.ReportJob{
		ID:        "job-pending",
		Type:      models.ReportTypeStudentAttendance,
		Params:    models.ReportJobParams{StudentID: "s1", Format: models.ReportFormatCSV},
		Status:    models.ReportStatusProcessing,
		CreatedBy: "s1",
	}
	fx.repo.jobs[job.ID] = job
	result, err := fx.export.Generate(ctx, job)
	require.NoError(t, err)
	job.ResultURL = &result.URL

	_, err = fx.reports.ResolveDownload(ctx, result.Token)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestReportRecoverPendingJobs(t *testing.T) {
	fx := newReportFixture(t)
	fx.repo.jobs["queued"] = &models.ReportJob{ID: "queued", Status: models.ReportStatusQueued}
	fx.repo.jobs["running"] = &models.ReportJob{ID: "running", Status: models.ReportStatusProcessing}
	fx.repo.jobs["done"] = &models.ReportJob{ID: "done", Status: models.ReportStatusFinished}

	fx.reports.RecoverPendingJobs(context.Background())
	require.Len(t, fx.queue.jobs, 2)
	ids := []string{fx.queue.jobs[0].ID, fx.queue.jobs[1].ID}
	assert.ElementsMatch(t, []string{"queued", "running"}, ids)
}

func TestReportCleanupPurgesExpiredRows(t *testing.T) {
	fx := newReportFixture(t)
	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC()
	fx.repo.jobs["old"] = &models.ReportJob{ID: "old", Status: models.ReportStatusFailed, FinishedAt: &old}
	fx.repo.jobs["recent"] = &models.ReportJob{ID: "recent", Status: models.ReportStatusFinished, FinishedAt: &recent}
	fx.repo.jobs["queued"] = &models.ReportJob{ID: "queued", Status: models.ReportStatusQueued}

	fx.reports.cleanup(context.Background())

	assert.NotContains(t, fx.repo.jobs, "old")
	assert.Contains(t, fx.repo.jobs, "recent")
	assert.Contains(t, fx.repo.jobs, "queued")
}

type exportStub struct {
	result *ExportResult
	err    error
}

func (e exportStub) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func queuedReport(repo *reportRepoStub) {
	repo.jobs["job-1"] = &models.ReportJob{
		ID:        "job-1",
		Type:      models.ReportTypeClassAttendance,
		Params:    models.ReportJobParams{ClassID: "c1", Format: models.ReportFormatCSV},
		Status:    models.ReportStatusQueued,
		CreatedBy: "a1",
	}
}

func TestReportWorkerRetriesThenFails(t *testing.T) {
	repo := newReportRepoStub()
	queuedReport(repo)
	worker := NewReportWorker(repo, exportStub{err: errors.New("boom")}, 2, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusQueued, repo.jobs["job-1"].Status)
	assert.Equal(t, "boom", *repo.jobs["job-1"].ErrorMessage)

	err = worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusFailed, repo.jobs["job-1"].Status)
	assert.NotNil(t, repo.jobs["job-1"].FinishedAt)
}

func TestReportWorkerDropsMissingJob(t *testing.T) {
	worker := NewReportWorker(newReportRepoStub(), exportStub{}, 3, nil)
	err := worker.Handle(context.Background(), jobs.Job{ID: "ghost"})
	require.Error(t, err)
	assert.True(t, jobs.IsPermanent(err))
}

func TestReportWorkerSkipsTerminalJob(t *testing.T) {
	repo := newReportRepoStub()
	queuedReport(repo)
	repo.jobs["job-1"].Status = models.ReportStatusFinished
	worker := NewReportWorker(repo, exportStub{err: errors.New("must not run")}, 3, nil)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1"}))
	assert.Equal(t, models.ReportStatusFinished, repo.jobs["job-1"].Status)
}

func TestReportWorkerSuccess(t *testing.T) {
	repo := newReportRepoStub()
	queuedReport(repo)
	worker := NewReportWorker(repo, exportStub{result: &ExportResult{URL: "/api/v1/reports/download/token"}}, 3, nil)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1"}))
	assert.Equal(t, models.ReportStatusFinished, repo.jobs["job-1"].Status)
	assert.Equal(t, "/api/v1/reports/download/token", *repo.jobs["job-1"].ResultURL)
}
