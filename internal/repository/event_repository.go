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

const eventColumns = `id, title, description, event_date, event_time, location, section, faculty_in_charge, origin, status,
       submitted_by_name, submitted_by_role, created_by, forwarded_to_admin, reviewed_by, version, created_at, updated_at`

// EventRepository persists event proposals.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts an event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	event.Version = 1

	const query = `INSERT INTO events
	(id, title, description, event_date, event_time, location, section, faculty_in_charge, origin, status,
	 submitted_by_name, submitted_by_role, created_by, forwarded_to_admin, reviewed_by, version, created_at, updated_at)
	VALUES (:id, :title, :description, :event_date, :event_time, :location, :section, :faculty_in_charge, :origin, :status,
	 :submitted_by_name, :submitted_by_role, :created_by, :forwarded_to_admin, :reviewed_by, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return wrapWrite(err, "create event")
	}
	return nil
}

// GetByID fetches an event.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := r.db.GetContext(ctx, &event, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

// List returns one page of events matching the filter and the number of matching
// events. The admin queue is newest first, every other listing is ordered by date
// and time.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	var p predicates
	whereIn(&p, "status", filter.Statuses)
	whereIn(&p, "submitted_by_role", filter.SubmittedByRoles)
	if filter.CreatedBy != "" {
		p.eq("created_by", filter.CreatedBy)
	}
	if filter.ForwardedToAdmin != nil {
		p.eq("forwarded_to_admin", *filter.ForwardedToAdmin)
	}
	if filter.AdminQueue {
		p.raw("(forwarded_to_admin = TRUE OR status = 'forwarded' OR submitted_by_role = 'admin')")
	}
	order := " ORDER BY event_date ASC, event_time ASC, id"
	if filter.AdminQueue {
		order = " ORDER BY created_at DESC, id"
	}
	query := "SELECT " + eventColumns + " FROM events" + p.where() + order + window(filter.Limit, filter.Offset)

	events := make([]models.Event, 0)
	if err := r.db.SelectContext(ctx, &events, query, p.args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM events"+p.where(), p.args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// UpdateStatus stores a reviewed state when the version still matches.
func (r *EventRepository) UpdateStatus(ctx context.Context, event *models.Event, expectedVersion int) error {
	now := time.Now().UTC()
	const query = `UPDATE events SET status = $1, forwarded_to_admin = $2, reviewed_by = $3, version = version + 1, updated_at = $4
WHERE id = $5 AND version = $6`
	result, err := r.db.ExecContext(ctx, query, string(event.Status), event.ForwardedToAdmin, event.ReviewedBy, now, event.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	if err := expectOneRow(result, "update event status"); err != nil {
		return err
	}
	event.Version = expectedVersion + 1
	event.UpdatedAt = now
	return nil
}
