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

const enrollmentSelect = `SELECT e.id, e.course_id, e.student_id, u.name AS student_name, sc.title AS course_title,
       e.round1_completed, e.round2_completed, e.round3_approved, e.round4_completed, e.completed,
       e.round2_score, e.round4_score, e.certificate_issued, e.version, e.created_at, e.updated_at
FROM skill_enrollments e
LEFT JOIN users u ON u.id = e.student_id
LEFT JOIN skill_courses sc ON sc.id = e.course_id`

const submissionSelect = `SELECT s.id, s.course_id, s.enrollment_id, s.student_id, u.name AS student_name, s.file_url, s.file_name,
       s.description, s.status, s.reviewed_by, s.feedback, s.version, s.created_at, s.updated_at
FROM skill_project_submissions s
LEFT JOIN users u ON u.id = s.student_id`

// EnrollmentRepository persists skill course enrollments and project submissions.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create inserts an enrollment. A second enrollment for the same course and student
// yields ErrDuplicate.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.SkillEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	enrollment.Version = 1
	const query = `INSERT INTO skill_enrollments
	(id, course_id, student_id, round1_completed, round2_completed, round3_approved, round4_completed, completed,
	 round2_score, round4_score, certificate_issued, version, created_at, updated_at)
	VALUES (:id, :course_id, :student_id, :round1_completed, :round2_completed, :round3_approved, :round4_completed, :completed,
	 :round2_score, :round4_score, :certificate_issued, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return wrapWrite(err, "create enrollment")
	}
	return nil
}

// GetByCourseAndStudent fetches the enrollment of a student in a course.
func (r *EnrollmentRepository) GetByCourseAndStudent(ctx context.Context, courseID, studentID string) (*models.SkillEnrollment, error) {
	var enrollment models.SkillEnrollment
	if err := r.db.GetContext(ctx, &enrollment, enrollmentSelect+` WHERE e.course_id = $1 AND e.student_id = $2`, courseID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return &enrollment, nil
}

// ListByStudent returns all enrollments of a student.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.SkillEnrollment, error) {
	var enrollments []models.SkillEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, enrollmentSelect+` WHERE e.student_id = $1 ORDER BY e.created_at DESC`, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments by student: %w", err)
	}
	return enrollments, nil
}

// ListByCourse returns all enrollments of a course.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.SkillEnrollment, error) {
	var enrollments []models.SkillEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, enrollmentSelect+` WHERE e.course_id = $1 ORDER BY u.name ASC`, courseID); err != nil {
		return nil, fmt.Errorf("list enrollments by course: %w", err)
	}
	return enrollments, nil
}

// UpdateProgress stores progress flags and scores when the version still matches.
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, enrollment *models.SkillEnrollment, expectedVersion int) error {
	now := time.Now().UTC()
	const query = `UPDATE skill_enrollments SET round1_completed = $1, round2_completed = $2, round3_approved = $3,
round4_completed = $4, completed = $5, round2_score = $6, round4_score = $7, certificate_issued = $8,
version = version + 1, updated_at = $9
WHERE id = $10 AND version = $11`
	result, err := r.db.ExecContext(ctx, query,
		enrollment.Round1Completed, enrollment.Round2Completed, enrollment.Round3Approved,
		enrollment.Round4Completed, enrollment.Completed, enrollment.Round2Score, enrollment.Round4Score,
		enrollment.CertificateIssued, now, enrollment.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update enrollment progress: %w", err)
	}
	if err := expectOneRow(result, "update enrollment progress"); err != nil {
		return err
	}
	enrollment.Version = expectedVersion + 1
	enrollment.UpdatedAt = now
	return nil
}

// Delete removes the enrollment and every submission of the student for the course.
func (r *EnrollmentRepository) Delete(ctx context.Context, courseID, studentID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete enrollment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM skill_project_submissions WHERE course_id = $1 AND student_id = $2`, courseID, studentID); err != nil {
		return fmt.Errorf("delete submissions: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM skill_enrollments WHERE course_id = $1 AND student_id = $2`, courseID, studentID)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete enrollment rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete enrollment: %w", err)
	}
	return nil
}

// ReplaceSubmission deletes earlier submissions of the student for the course and inserts
// the new one in the same transaction.
func (r *EnrollmentRepository) ReplaceSubmission(ctx context.Context, submission *models.SkillProjectSubmission) (err error) {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	submission.CreatedAt = now
	submission.UpdatedAt = now
	submission.Version = 1
	if submission.Status == "" {
		submission.Status = models.ProjectPending
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace submission: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM skill_project_submissions WHERE course_id = $1 AND student_id = $2`, submission.CourseID, submission.StudentID); err != nil {
		return fmt.Errorf("delete prior submissions: %w", err)
	}
	const insert = `INSERT INTO skill_project_submissions
	(id, course_id, enrollment_id, student_id, file_url, file_name, description, status, reviewed_by, feedback, version, created_at, updated_at)
	VALUES (:id, :course_id, :enrollment_id, :student_id, :file_url, :file_name, :description, :status, :reviewed_by, :feedback, :version, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insert, submission); err != nil {
		return wrapWrite(err, "insert submission")
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace submission: %w", err)
	}
	return nil
}

// GetSubmission fetches a submission within a course.
func (r *EnrollmentRepository) GetSubmission(ctx context.Context, courseID, submissionID string) (*models.SkillProjectSubmission, error) {
	var submission models.SkillProjectSubmission
	if err := r.db.GetContext(ctx, &submission, submissionSelect+` WHERE s.course_id = $1 AND s.id = $2`, courseID, submissionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return &submission, nil
}

// ListSubmissions returns submissions of a course. A non-empty status narrows the list.
func (r *EnrollmentRepository) ListSubmissions(ctx context.Context, courseID string, status models.ProjectStatus) ([]models.SkillProjectSubmission, error) {
	var submissions []models.SkillProjectSubmission
	query := submissionSelect + ` WHERE s.course_id = $1 AND ($2 = '' OR s.status = $2) ORDER BY s.created_at DESC`
	if err := r.db.SelectContext(ctx, &submissions, query, courseID, string(status)); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// ReviewSubmission stores a review decision and the resulting enrollment progress in one
// transaction. Both rows are version checked.
func (r *EnrollmentRepository) ReviewSubmission(ctx context.Context, submission *models.SkillProjectSubmission, submissionVersion int, enrollment *models.SkillEnrollment, enrollmentVersion int) (err error) {
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review submission: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateSubmission = `UPDATE skill_project_submissions SET status = $1, reviewed_by = $2, feedback = $3, version = version + 1, updated_at = $4
WHERE id = $5 AND version = $6`
	result, err := tx.ExecContext(ctx, updateSubmission, string(submission.Status), submission.ReviewedBy, submission.Feedback, now, submission.ID, submissionVersion)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if err = expectOneRow(result, "update submission"); err != nil {
		return err
	}

	const updateEnrollment = `UPDATE skill_enrollments SET round3_approved = $1, version = version + 1, updated_at = $2
WHERE id = $3 AND version = $4`
	result, err = tx.ExecContext(ctx, updateEnrollment, enrollment.Round3Approved, now, enrollment.ID, enrollmentVersion)
	if err != nil {
		return fmt.Errorf("update enrollment review: %w", err)
	}
	if err = expectOneRow(result, "update enrollment review"); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit review submission: %w", err)
	}
	submission.Version = submissionVersion + 1
	submission.UpdatedAt = now
	enrollment.Version = enrollmentVersion + 1
	enrollment.UpdatedAt = now
	return nil
}

// CountPendingReviews counts pending submissions across courses created by facultyID.
func (r *EnrollmentRepository) CountPendingReviews(ctx context.Context, facultyID string) (int, error) {
	const query = `SELECT COUNT(*) FROM skill_project_submissions s
JOIN skill_courses sc ON sc.id = s.course_id
WHERE sc.created_by = $1 AND s.status = 'Pending'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, facultyID); err != nil {
		return 0, fmt.Errorf("count pending reviews: %w", err)
	}
	return count, nil
}
