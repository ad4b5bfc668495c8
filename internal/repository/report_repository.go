package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-api/internal/models"
)

const reportJobColumns = `id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message`

// ReportRepository stores report job rows. Rows in a terminal status are immutable.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts job, filling id, status and created_at when unset.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO report_jobs (` + reportJobColumns + `)
VALUES (:id, :type, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, `SELECT `+reportJobColumns+` FROM report_jobs WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get report job: %w", err)
	}
	return &job, nil
}

// ListByCreator returns the most recent jobs requested by a user.
func (r *ReportRepository) ListByCreator(ctx context.Context, userID string, limit int) ([]models.ReportJob, error) {
	var jobs []models.ReportJob
	query := `SELECT ` + reportJobColumns + ` FROM report_jobs WHERE created_by = $1 ORDER BY created_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &jobs, query, userID, clampLimit(limit, 100, 20)); err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	return jobs, nil
}

// UpdateReportJobParams lists the columns a worker may change. Nil fields are left alone.
type UpdateReportJobParams struct {
	Status       *models.ReportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update applies params unless the job already reached a terminal status, in which
// case ErrStaleVersion is returned.
func (r *ReportRepository) Update(ctx context.Context, id string, params UpdateReportJobParams) error {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Status != nil {
		add("status", string(*params.Status))
	}
	if params.Progress != nil {
		add("progress", *params.Progress)
	}
	if params.ResultURL != nil {
		add("result_url", *params.ResultURL)
	}
	if params.ErrorMessage != nil {
		add("error_message", *params.ErrorMessage)
	}
	if params.FinishedAt != nil {
		add("finished_at", *params.FinishedAt)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE report_jobs SET %s WHERE id = $%d AND status NOT IN ('FINISHED', 'FAILED')",
		strings.Join(set, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update report job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return r.missingOrTerminal(ctx, id)
	}
	return nil
}

// missingOrTerminal explains an update that touched no row.
func (r *ReportRepository) missingOrTerminal(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM report_jobs WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("check report job: %w", err)
	}
	if !exists {
		return sql.ErrNoRows
	}
	return ErrStaleVersion
}

// ListUnfinished returns jobs a restart may have interrupted, oldest first.
func (r *ReportRepository) ListUnfinished(ctx context.Context, limit int) ([]models.ReportJob, error) {
	query := `SELECT ` + reportJobColumns + ` FROM report_jobs
WHERE status IN ('QUEUED', 'PROCESSING') ORDER BY created_at ASC LIMIT $1`
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, clampLimit(limit, 500, 50)); err != nil {
		return nil, fmt.Errorf("list unfinished report jobs: %w", err)
	}
	return jobs, nil
}

// PurgeFinishedBefore deletes terminal jobs that ended before cutoff and returns the count.
func (r *ReportRepository) PurgeFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM report_jobs WHERE status IN ('FINISHED', 'FAILED') AND finished_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge report jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
