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

const leaveSelect = `SELECT l.id, l.student_id, u.name AS student_name, u.class_name, l.reason, l.start_date, l.end_date,
       l.file_url, l.file_name, l.status, l.reviewed_by, l.reviewed_at, l.remarks, l.version, l.created_at, l.updated_at
FROM leave_requests l
JOIN users u ON u.id = l.student_id`

// LeaveRepository persists student leave requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create inserts a pending leave request.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveRequest) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	leave.CreatedAt = now
	leave.UpdatedAt = now
	leave.Version = 1
	if leave.Status == "" {
		leave.Status = models.LeavePending
	}
	const query = `INSERT INTO leave_requests
	(id, student_id, reason, start_date, end_date, file_url, file_name, status, reviewed_by, reviewed_at, remarks, version, created_at, updated_at)
	VALUES (:id, :student_id, :reason, :start_date, :end_date, :file_url, :file_name, :status, :reviewed_by, :reviewed_at, :remarks, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return wrapWrite(err, "create leave request")
	}
	return nil
}

// GetByID fetches a leave request with the student's name and class.
func (r *LeaveRepository) GetByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	var leave models.LeaveRequest
	if err := r.db.GetContext(ctx, &leave, leaveSelect+` WHERE l.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get leave request: %w", err)
	}
	return &leave, nil
}

// ListByStudent returns a student's requests, newest first.
func (r *LeaveRepository) ListByStudent(ctx context.Context, studentID string) ([]models.LeaveRequest, error) {
	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, leaveSelect+` WHERE l.student_id = $1 ORDER BY l.created_at DESC`, studentID); err != nil {
		return nil, fmt.Errorf("list leave requests by student: %w", err)
	}
	return leaves, nil
}

// ListForClasses returns requests of students in the named classes with the given status.
func (r *LeaveRepository) ListForClasses(ctx context.Context, classNames []string, status models.LeaveStatus) ([]models.LeaveRequest, error) {
	if len(classNames) == 0 {
		return nil, nil
	}
	query := leaveSelect + ` WHERE u.class_name = ANY($1) AND ($2 = '' OR l.status = $2) ORDER BY l.start_date ASC`
	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, query, pq.Array(classNames), string(status)); err != nil {
		return nil, fmt.Errorf("list leave requests for classes: %w", err)
	}
	return leaves, nil
}

// Review stores the decision when the version still matches.
func (r *LeaveRepository) Review(ctx context.Context, leave *models.LeaveRequest, expectedVersion int) error {
	now := time.Now().UTC()
	const query = `UPDATE leave_requests SET status = $1, reviewed_by = $2, reviewed_at = $3, remarks = $4, version = version + 1, updated_at = $3
WHERE id = $5 AND version = $6`
	result, err := r.db.ExecContext(ctx, query, string(leave.Status), leave.ReviewedBy, now, leave.Remarks, leave.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("review leave request: %w", err)
	}
	if err := expectOneRow(result, "review leave request"); err != nil {
		return err
	}
	leave.ReviewedAt = &now
	leave.UpdatedAt = now
	leave.Version = expectedVersion + 1
	return nil
}
