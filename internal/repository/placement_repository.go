package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-api/internal/models"
)

const jobSelect = `SELECT j.id, j.title, j.company, j.job_type, j.mode, j.location, j.salary, j.openings, j.status, j.eligibility,
       j.description, j.responsibilities, j.deadline, j.created_by, u.name AS creator_name, j.version, j.created_at, j.updated_at
FROM jobs j
LEFT JOIN users u ON u.id = j.created_by`

const applicationSelect = `SELECT a.id, a.job_id, j.title AS job_title, j.company, j.created_by AS job_owner, a.student_id,
       u.name AS student_name, a.status, a.resume_url, a.resume_name, a.notes, a.version, a.created_at, a.updated_at
FROM job_applications a
LEFT JOIN jobs j ON j.id = a.job_id
LEFT JOIN users u ON u.id = a.student_id`

const interviewSelect = `SELECT i.id, i.application_id, i.job_id, j.title AS job_title, j.company, i.student_id, u.name AS student_name,
       i.scheduled_by, i.scheduled_at, i.mode, i.round_type, i.meeting_link, i.status, i.notes, i.created_at, i.updated_at
FROM interviews i
LEFT JOIN jobs j ON j.id = i.job_id
LEFT JOIN users u ON u.id = i.student_id`

const offerSelect = `SELECT o.id, o.application_id, o.job_id, j.title AS job_title, j.company, o.student_id, u.name AS student_name,
       o.issued_by, o.ctc, o.status, o.offer_letter_url, o.offer_letter_name, o.issued_on, o.created_at, o.updated_at
FROM offers o
LEFT JOIN jobs j ON j.id = o.job_id
LEFT JOIN users u ON u.id = o.student_id`

// PlacementRepository persists jobs, applications, interviews and offers.
type PlacementRepository struct {
	db *sqlx.DB
}

// NewPlacementRepository constructs the repository.
func NewPlacementRepository(db *sqlx.DB) *PlacementRepository {
	return &PlacementRepository{db: db}
}

// CreateJob inserts a job posting.
func (r *PlacementRepository) CreateJob(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	job.Version = 1
	if job.Responsibilities == nil {
		job.Responsibilities = models.StringList{}
	}
	const query = `INSERT INTO jobs (id, title, company, job_type, mode, location, salary, openings, status, eligibility, description,
	responsibilities, deadline, created_by, version, created_at, updated_at)
	VALUES (:id, :title, :company, :job_type, :mode, :location, :salary, :openings, :status, :eligibility, :description,
	:responsibilities, :deadline, :created_by, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return wrapWrite(err, "create job")
	}
	return nil
}

// GetJob fetches a job by ID.
func (r *PlacementRepository) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := r.db.GetContext(ctx, &job, jobSelect+" WHERE j.id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// ListJobs returns one page of jobs, newest first, and the number of matches.
func (r *PlacementRepository) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, int, error) {
	var p predicates
	if filter.Status != "" {
		p.eq("j.status", string(filter.Status))
	}
	if filter.CreatedBy != "" {
		p.eq("j.created_by", filter.CreatedBy)
	}
	jobs := make([]models.Job, 0)
	query := jobSelect + p.where() + " ORDER BY j.created_at DESC, j.id" + window(filter.Limit, filter.Offset)
	if err := r.db.SelectContext(ctx, &jobs, query, p.args...); err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM jobs j"+p.where(), p.args...); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}
	return jobs, total, nil
}

// UpdateJob stores the job when the version still matches.
func (r *PlacementRepository) UpdateJob(ctx context.Context, job *models.Job, expectedVersion int) error {
	now := time.Now().UTC()
	const query = `UPDATE jobs SET title = $1, company = $2, job_type = $3, mode = $4, location = $5, salary = $6, openings = $7,
status = $8, eligibility = $9, description = $10, responsibilities = $11, deadline = $12, version = version + 1, updated_at = $13
WHERE id = $14 AND version = $15`
	result, err := r.db.ExecContext(ctx, query, job.Title, job.Company, job.JobType, job.Mode, job.Location, job.Salary, job.Openings,
		string(job.Status), job.Eligibility, job.Description, job.Responsibilities, job.Deadline, now, job.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if err := expectOneRow(result, "update job"); err != nil {
		return err
	}
	job.Version = expectedVersion + 1
	job.UpdatedAt = now
	return nil
}

// DeleteJob removes a job together with its applications, interviews and offers.
func (r *PlacementRepository) DeleteJob(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete job: %w", err)
	}
	for _, table := range []string{"offers", "interviews", "job_applications"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE job_id = $1", id); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("delete job %s: %w", table, err)
		}
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM jobs WHERE id = $1", id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete job: %w", err)
	}
	if err := expectRow(result, "delete job"); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete job: %w", err)
	}
	return nil
}

// CreateApplication inserts an application. Applying twice to a job yields ErrDuplicate.
func (r *PlacementRepository) CreateApplication(ctx context.Context, application *models.JobApplication) error {
	if application.ID == "" {
		application.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	application.CreatedAt = now
	application.UpdatedAt = now
	application.Version = 1
	const query = `INSERT INTO job_applications (id, job_id, student_id, status, resume_url, resume_name, notes, version, created_at, updated_at)
	VALUES (:id, :job_id, :student_id, :status, :resume_url, :resume_name, :notes, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, application); err != nil {
		return wrapWrite(err, "create job application")
	}
	return nil
}

// GetApplication fetches an application with its job owner.
func (r *PlacementRepository) GetApplication(ctx context.Context, id string) (*models.JobApplication, error) {
	var application models.JobApplication
	if err := r.db.GetContext(ctx, &application, applicationSelect+" WHERE a.id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get job application: %w", err)
	}
	return &application, nil
}

// ListApplications returns one page of applications, newest first.
func (r *PlacementRepository) ListApplications(ctx context.Context, filter models.PlacementFilter) ([]models.JobApplication, int, error) {
	p := placementPredicates("a", filter)
	applications := make([]models.JobApplication, 0)
	query := applicationSelect + p.where() + " ORDER BY a.created_at DESC, a.id" + window(filter.Limit, filter.Offset)
	if err := r.db.SelectContext(ctx, &applications, query, p.args...); err != nil {
		return nil, 0, fmt.Errorf("list job applications: %w", err)
	}
	total, err := r.count(ctx, "job_applications a", p)
	if err != nil {
		return nil, 0, err
	}
	return applications, total, nil
}

// UpdateApplication stores a stage change when the version still matches.
func (r *PlacementRepository) UpdateApplication(ctx context.Context, application *models.JobApplication, expectedVersion int) error {
	return advanceApplication(ctx, r.db, application, expectedVersion)
}

// CreateInterview books the round and moves the application to Interview Scheduled atomically.
func (r *PlacementRepository) CreateInterview(ctx context.Context, interview *models.Interview, application *models.JobApplication, expectedVersion int) error {
	if interview.ID == "" {
		interview.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	interview.CreatedAt = now
	interview.UpdatedAt = now
	const query = `INSERT INTO interviews (id, application_id, job_id, student_id, scheduled_by, scheduled_at, mode, round_type, meeting_link,
	status, notes, created_at, updated_at)
	VALUES (:id, :application_id, :job_id, :student_id, :scheduled_by, :scheduled_at, :mode, :round_type, :meeting_link,
	:status, :notes, :created_at, :updated_at)`
	return r.withApplication(ctx, application, expectedVersion, "interview", query, interview)
}

// CreateOffer records the offer and moves the application to Offered atomically.
func (r *PlacementRepository) CreateOffer(ctx context.Context, offer *models.Offer, application *models.JobApplication, expectedVersion int) error {
	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	offer.CreatedAt = now
	offer.UpdatedAt = now
	offer.IssuedOn = now
	const query = `INSERT INTO offers (id, application_id, job_id, student_id, issued_by, ctc, status, offer_letter_url, offer_letter_name,
	issued_on, created_at, updated_at)
	VALUES (:id, :application_id, :job_id, :student_id, :issued_by, :ctc, :status, :offer_letter_url, :offer_letter_name,
	:issued_on, :created_at, :updated_at)`
	return r.withApplication(ctx, application, expectedVersion, "offer", query, offer)
}

// ListInterviews returns one page of interviews, soonest first.
func (r *PlacementRepository) ListInterviews(ctx context.Context, filter models.PlacementFilter) ([]models.Interview, int, error) {
	p := placementPredicates("i", filter)
	interviews := make([]models.Interview, 0)
	query := interviewSelect + p.where() + " ORDER BY i.scheduled_at ASC, i.id" + window(filter.Limit, filter.Offset)
	if err := r.db.SelectContext(ctx, &interviews, query, p.args...); err != nil {
		return nil, 0, fmt.Errorf("list interviews: %w", err)
	}
	total, err := r.count(ctx, "interviews i", p)
	if err != nil {
		return nil, 0, err
	}
	return interviews, total, nil
}

// ListOffers returns one page of offers, newest first.
func (r *PlacementRepository) ListOffers(ctx context.Context, filter models.PlacementFilter) ([]models.Offer, int, error) {
	p := placementPredicates("o", filter)
	offers := make([]models.Offer, 0)
	query := offerSelect + p.where() + " ORDER BY o.issued_on DESC, o.id" + window(filter.Limit, filter.Offset)
	if err := r.db.SelectContext(ctx, &offers, query, p.args...); err != nil {
		return nil, 0, fmt.Errorf("list offers: %w", err)
	}
	total, err := r.count(ctx, "offers o", p)
	if err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

func (r *PlacementRepository) withApplication(ctx context.Context, application *models.JobApplication, expectedVersion int, op, insert string, record interface{}) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", op, err)
	}
	if _, err := tx.NamedExecContext(ctx, insert, record); err != nil {
		tx.Rollback() //nolint:errcheck
		return wrapWrite(err, "create "+op)
	}
	if err := advanceApplication(ctx, tx, application, expectedVersion); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", op, err)
	}
	return nil
}

func (r *PlacementRepository) count(ctx context.Context, from string, p predicates) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM "+from+p.where(), p.args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", from, err)
	}
	return total, nil
}

// placementPredicates filters a table carrying job_id and student_id. The job owner
// is resolved through a subquery so the count needs no join.
func placementPredicates(alias string, filter models.PlacementFilter) predicates {
	var p predicates
	if filter.JobID != "" {
		p.eq(alias+".job_id", filter.JobID)
	}
	if filter.StudentID != "" {
		p.eq(alias+".student_id", filter.StudentID)
	}
	if filter.JobOwner != "" {
		p.raw(alias + ".job_id IN (SELECT id FROM jobs WHERE created_by = " + p.next(filter.JobOwner) + ")")
	}
	return p
}

func advanceApplication(ctx context.Context, exec sqlx.ExecerContext, application *models.JobApplication, expectedVersion int) error {
	now := time.Now().UTC()
	const query = `UPDATE job_applications SET status = $1, notes = $2, version = version + 1, updated_at = $3
WHERE id = $4 AND version = $5`
	result, err := exec.ExecContext(ctx, query, string(application.Status), application.Notes, now, application.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update job application: %w", err)
	}
	if err := expectOneRow(result, "update job application"); err != nil {
		return err
	}
	application.Version = expectedVersion + 1
	application.UpdatedAt = now
	return nil
}
