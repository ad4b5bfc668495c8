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

const complaintSelect = `SELECT c.id, c.title, c.description, c.category, c.raised_by_id, c.raised_by_role,
       c.current_owner, c.status, c.target_class_id, c.target_faculty_id, c.version, c.created_at, c.updated_at,
       ru.name AS raised_by_name, fu.name AS target_faculty_name, cl.class_name AS target_class_name
FROM complaints c
LEFT JOIN users ru ON ru.id = c.raised_by_id
LEFT JOIN users fu ON fu.id = c.target_faculty_id
LEFT JOIN classes cl ON cl.id = c.target_class_id`

const insertHistory = `INSERT INTO complaint_history (id, complaint_id, seq, actor_id, actor_role, action, comment, created_at)
VALUES ($1, $2, (SELECT COALESCE(MAX(seq), 0) + 1 FROM complaint_history WHERE complaint_id = $2), $3, $4, $5, $6, $7)
RETURNING seq`

// ComplaintRepository persists complaints and their append-only history.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository constructs the repository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// Create inserts the complaint together with its Created history entry.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint, created *models.ComplaintHistoryEntry) (err error) {
	if complaint.ID == "" {
		complaint.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	complaint.CreatedAt = now
	complaint.UpdatedAt = now
	complaint.Version = 1

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create complaint: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO complaints
	(id, title, description, category, raised_by_id, raised_by_role, current_owner, status, target_class_id, target_faculty_id, version, created_at, updated_at)
	VALUES (:id, :title, :description, :category, :raised_by_id, :raised_by_role, :current_owner, :status, :target_class_id, :target_faculty_id, :version, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, complaint); err != nil {
		return wrapWrite(err, "create complaint")
	}

	created.ComplaintID = complaint.ID
	if err = appendHistory(ctx, tx, created, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create complaint: %w", err)
	}
	complaint.History = []models.ComplaintHistoryEntry{*created}
	return nil
}

// GetByID fetches a complaint with populated names. History is not loaded.
func (r *ComplaintRepository) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, complaintSelect+` WHERE c.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get complaint: %w", err)
	}
	complaint.Populate()
	return &complaint, nil
}

// History returns the timeline of a complaint in append order.
func (r *ComplaintRepository) History(ctx context.Context, complaintID string) ([]models.ComplaintHistoryEntry, error) {
	const query = `SELECT h.id, h.complaint_id, h.seq, h.actor_id, h.actor_role, u.name AS actor_name, h.action, h.comment, h.created_at
FROM complaint_history h
LEFT JOIN users u ON u.id = h.actor_id
WHERE h.complaint_id = $1
ORDER BY h.seq ASC`
	var entries []models.ComplaintHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, complaintID); err != nil {
		return nil, fmt.Errorf("list complaint history: %w", err)
	}
	return entries, nil
}

// List returns one page of complaints matching the filter, newest first, and the
// number of matching complaints.
func (r *ComplaintRepository) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, int, error) {
	var p predicates
	if filter.Owner != nil {
		p.eq("c.current_owner", string(*filter.Owner))
	}
	whereIn(&p, "c.status", filter.Statuses)
	if filter.TargetFacultyID != "" {
		p.eq("c.target_faculty_id", filter.TargetFacultyID)
	}
	if filter.RaisedByID != "" {
		p.eq("c.raised_by_id", filter.RaisedByID)
	}
	if filter.RaisedByRole != nil {
		p.eq("c.raised_by_role", string(*filter.RaisedByRole))
	}
	query := complaintSelect + p.where() + " ORDER BY c.created_at DESC, c.id" + window(filter.Limit, filter.Offset)

	complaints := make([]models.Complaint, 0)
	if err := r.db.SelectContext(ctx, &complaints, query, p.args...); err != nil {
		return nil, 0, fmt.Errorf("list complaints: %w", err)
	}
	for i := range complaints {
		complaints[i].Populate()
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM complaints c"+p.where(), p.args...); err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}
	return complaints, total, nil
}

// ApplyTransition stores the new status and owner of complaint if its version still equals
// expectedVersion, and appends entry to the history in the same transaction.
func (r *ComplaintRepository) ApplyTransition(ctx context.Context, complaint *models.Complaint, expectedVersion int, entry *models.ComplaintHistoryEntry) (err error) {
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complaint transition: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `UPDATE complaints SET status = $1, current_owner = $2, version = version + 1, updated_at = $3
WHERE id = $4 AND version = $5`
	result, err := tx.ExecContext(ctx, update, string(complaint.Status), string(complaint.CurrentOwner), now, complaint.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update complaint: %w", err)
	}
	if err = expectOneRow(result, "update complaint"); err != nil {
		return err
	}

	entry.ComplaintID = complaint.ID
	if err = appendHistory(ctx, tx, entry, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit complaint transition: %w", err)
	}
	complaint.Version = expectedVersion + 1
	complaint.UpdatedAt = now
	return nil
}

func appendHistory(ctx context.Context, tx *sqlx.Tx, entry *models.ComplaintHistoryEntry, at time.Time) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = at
	err := tx.QueryRowxContext(ctx, insertHistory,
		entry.ID, entry.ComplaintID, entry.ActorID, string(entry.ActorRole), string(entry.Action), entry.Comment, at,
	).Scan(&entry.Seq)
	if err != nil {
		return fmt.Errorf("append complaint history: %w", err)
	}
	return nil
}
