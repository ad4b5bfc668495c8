package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-api/internal/models"
)

const assignmentSelect = `SELECT a.id, a.faculty_id, u.name AS faculty_name, a.class_id, c.class_name, a.title, a.description,
       a.subject, a.due_date, a.status,
       (SELECT COUNT(*) FROM assignment_submissions s WHERE s.assignment_id = a.id AND s.status = 'Pending') AS submissions_pending,
       (SELECT COUNT(*) FROM assignment_submissions s WHERE s.assignment_id = a.id) AS submissions_total,
       a.created_at, a.updated_at
FROM assignments a
LEFT JOIN users u ON u.id = a.faculty_id
LEFT JOIN classes c ON c.id = a.class_id`

const assignmentSubmissionSelect = `SELECT s.id, s.assignment_id, s.student_id, u.name AS student_name, s.file_url, s.text_answer,
       s.status, s.faculty_remark, s.reviewed_by, s.submitted_at, s.version, s.created_at, s.updated_at
FROM assignment_submissions s
LEFT JOIN users u ON u.id = s.student_id`

// AssignmentRepository persists assignments and their submissions.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, faculty_id, class_id, title, description, subject, due_date, status, created_at, updated_at)
VALUES (:id, :faculty_id, :class_id, :title, :description, :subject, :due_date, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return wrapWrite(err, "create assignment")
	}
	return nil
}

// GetByID fetches an assignment with its submission counts.
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, assignmentSelect+" WHERE a.id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return &assignment, nil
}

// List returns one page of assignments and the number of matches. A faculty listing is
// newest first, every other listing is ordered by due date.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	var p predicates
	if filter.FacultyID != "" {
		p.eq("a.faculty_id", filter.FacultyID)
	}
	if filter.ClassID != "" {
		p.eq("a.class_id", filter.ClassID)
	}
	if filter.Status != "" {
		p.eq("a.status", string(filter.Status))
	}
	if filter.DueFrom != nil {
		p.raw("a.due_date >= " + p.next(*filter.DueFrom))
	}
	order := " ORDER BY a.due_date ASC, a.id"
	if filter.FacultyID != "" {
		order = " ORDER BY a.created_at DESC, a.id"
	}

	assignments := make([]models.Assignment, 0)
	query := assignmentSelect + p.where() + order + window(filter.Limit, filter.Offset)
	if err := r.db.SelectContext(ctx, &assignments, query, p.args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM assignments a"+p.where(), p.args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}
	return assignments, total, nil
}

// CreateSubmission inserts the first submission of a student. A second one for the same
// assignment yields ErrDuplicate.
func (r *AssignmentRepository) CreateSubmission(ctx context.Context, submission *models.AssignmentSubmission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	submission.CreatedAt = now
	submission.UpdatedAt = now
	submission.SubmittedAt = now
	submission.Version = 1
	const query = `INSERT INTO assignment_submissions
	(id, assignment_id, student_id, file_url, text_answer, status, faculty_remark, reviewed_by, submitted_at, version, created_at, updated_at)
	VALUES (:id, :assignment_id, :student_id, :file_url, :text_answer, :status, :faculty_remark, :reviewed_by, :submitted_at, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return wrapWrite(err, "create assignment submission")
	}
	return nil
}

// GetSubmission fetches a submission by ID.
func (r *AssignmentRepository) GetSubmission(ctx context.Context, id string) (*models.AssignmentSubmission, error) {
	return r.getSubmission(ctx, " WHERE s.id = $1", id)
}

// FindSubmission fetches the submission of a student for an assignment.
func (r *AssignmentRepository) FindSubmission(ctx context.Context, assignmentID, studentID string) (*models.AssignmentSubmission, error) {
	return r.getSubmission(ctx, " WHERE s.assignment_id = $1 AND s.student_id = $2", assignmentID, studentID)
}

func (r *AssignmentRepository) getSubmission(ctx context.Context, where string, args ...interface{}) (*models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	if err := r.db.GetContext(ctx, &submission, assignmentSubmissionSelect+where, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get assignment submission: %w", err)
	}
	return &submission, nil
}

// ListSubmissions returns the submissions of an assignment, latest first.
func (r *AssignmentRepository) ListSubmissions(ctx context.Context, assignmentID string) ([]models.AssignmentSubmission, error) {
	submissions := make([]models.AssignmentSubmission, 0)
	query := assignmentSubmissionSelect + " WHERE s.assignment_id = $1 ORDER BY s.submitted_at DESC, s.id"
	if err := r.db.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list assignment submissions: %w", err)
	}
	return submissions, nil
}

// SubmissionsByStudent returns the student's submissions keyed by assignment ID.
func (r *AssignmentRepository) SubmissionsByStudent(ctx context.Context, studentID string, assignmentIDs []string) (map[string]models.AssignmentSubmission, error) {
	result := make(map[string]models.AssignmentSubmission, len(assignmentIDs))
	if len(assignmentIDs) == 0 {
		return result, nil
	}
	var submissions []models.AssignmentSubmission
	query := assignmentSubmissionSelect + " WHERE s.student_id = $1 AND s.assignment_id = ANY($2)"
	if err := r.db.SelectContext(ctx, &submissions, query, studentID, pq.Array(assignmentIDs)); err != nil {
		return nil, fmt.Errorf("list student submissions: %w", err)
	}
	for _, s := range submissions {
		result[s.AssignmentID] = s
	}
	return result, nil
}

// UpdateSubmission stores a resubmission or review when the version still matches.
func (r *AssignmentRepository) UpdateSubmission(ctx context.Context, submission *models.AssignmentSubmission, expectedVersion int) error {
	now := time.Now().UTC()
	const query = `UPDATE assignment_submissions SET file_url = $1, text_answer = $2, status = $3, faculty_remark = $4, reviewed_by = $5,
submitted_at = $6, version = version + 1, updated_at = $7
WHERE id = $8 AND version = $9`
	result, err := r.db.ExecContext(ctx, query, submission.FileURL, submission.TextAnswer, string(submission.Status), submission.FacultyRemark,
		submission.ReviewedBy, submission.SubmittedAt, now, submission.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update assignment submission: %w", err)
	}
	if err := expectOneRow(result, "update assignment submission"); err != nil {
		return err
	}
	submission.Version = expectedVersion + 1
	submission.UpdatedAt = now
	return nil
}
