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

const announcementSelect = `SELECT a.id, a.title, a.message, a.priority, a.target_audience, a.classes, a.expires_at,
       a.created_by, u.name AS creator_name, a.created_at, a.updated_at
FROM announcements a
LEFT JOIN users u ON u.id = a.created_by`

// AnnouncementRepository persists announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository constructs the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// List returns one page of announcements and the number of matches. Listings of a
// single author are newest first; every other listing puts high priority first.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	var p predicates
	whereIn(&p, "a.target_audience", filter.Audiences)
	if filter.ClassName != nil {
		p.raw(fmt.Sprintf("(cardinality(a.classes) = 0 OR %s = ANY(a.classes))", p.next(*filter.ClassName)))
	}
	if filter.CreatedBy != "" {
		p.eq("a.created_by", filter.CreatedBy)
	}
	if filter.ActiveAt != nil {
		p.raw(fmt.Sprintf("(a.expires_at IS NULL OR a.expires_at > %s)", p.next(*filter.ActiveAt)))
	}
	order := " ORDER BY CASE a.priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, a.created_at DESC, a.id"
	if filter.CreatedBy != "" {
		order = " ORDER BY a.created_at DESC, a.id"
	}

	announcements := make([]models.Announcement, 0)
	query := announcementSelect + p.where() + order + window(filter.Limit, filter.Offset)
	if err := r.db.SelectContext(ctx, &announcements, query, p.args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM announcements a"+p.where(), p.args...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}
	return announcements, total, nil
}

// GetByID returns an announcement by identifier.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, announcementSelect+" WHERE a.id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return &announcement, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	if announcement.Classes == nil {
		announcement.Classes = pq.StringArray{}
	}
	now := time.Now().UTC()
	announcement.CreatedAt = now
	announcement.UpdatedAt = now
	const query = `INSERT INTO announcements (id, title, message, priority, target_audience, classes, expires_at, created_by, created_at, updated_at)
VALUES (:id, :title, :message, :priority, :target_audience, :classes, :expires_at, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return wrapWrite(err, "create announcement")
	}
	return nil
}

// Update modifies an existing announcement.
func (r *AnnouncementRepository) Update(ctx context.Context, announcement *models.Announcement) error {
	if announcement.Classes == nil {
		announcement.Classes = pq.StringArray{}
	}
	announcement.UpdatedAt = time.Now().UTC()
	const query = `UPDATE announcements SET title = :title, message = :message, priority = :priority, target_audience = :target_audience,
classes = :classes, expires_at = :expires_at, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, announcement)
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	return expectRow(result, "update announcement")
}

// Delete removes an announcement.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM announcements WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return expectRow(result, "delete announcement")
}
