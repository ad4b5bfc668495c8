package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/workflow"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type eventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	UpdateStatus(ctx context.Context, event *models.Event, expectedVersion int) error
}

// EventService handles event proposals and their review.
type EventService struct {
	store   eventStore
	guard   *authz.Guard
	effects WorkflowEffects
}

// NewEventService constructs an EventService.
func NewEventService(store eventStore, guard *authz.Guard, effects WorkflowEffects) *EventService {
	return &EventService{store: store, guard: guard, effects: effects}
}

// Create stores a proposal. Admin events are approved immediately, faculty events go
// to the admin queue and student events wait for faculty review.
func (s *EventService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateEventRequest) (*models.Event, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent, models.RoleFaculty, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" || strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title, date and time are required")
	}
	initial, err := workflow.InitialEventState(user.Role)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:            title,
		Description:      strings.TrimSpace(req.Description),
		Date:             strings.TrimSpace(req.Date),
		Time:             strings.TrimSpace(req.Time),
		Location:         req.Location,
		Section:          req.Section,
		FacultyInCharge:  req.FacultyInCharge,
		Origin:           req.Origin,
		Status:           initial.Status,
		ForwardedToAdmin: initial.ForwardedToAdmin,
		SubmittedByName:  user.Name,
		SubmittedByRole:  user.Role,
		CreatedBy:        user.ID,
	}
	if err := s.store.Create(ctx, event); err != nil {
		return nil, storeError(err, "event", "create event")
	}
	s.effects.audit(ctx, user.ID, models.AuditActionEventCreate, "event", event.ID, nil, event)
	s.effects.invalidateDashboards(ctx)
	return event, nil
}

// UpdateStatus approves, rejects or forwards an event.
func (s *EventService) UpdateStatus(ctx context.Context, claims *models.JWTClaims, id string, req dto.EventStatusRequest) (*models.Event, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	action, err := workflow.ParseEventAction(req.Action)
	if err != nil {
		return nil, err
	}
	event, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "event", "load event")
	}
	before := event.Status

	out, err := workflow.EventTransition(event, user.Role, action)
	if err != nil {
		s.effects.transition("event", string(action), err)
		return nil, err
	}

	expected := event.Version
	event.Status = out.Status
	event.ForwardedToAdmin = out.ForwardedToAdmin
	reviewer := user.ID
	event.ReviewedBy = &reviewer
	if err := s.store.UpdateStatus(ctx, event, expected); err != nil {
		err = storeError(err, "event", "update event")
		s.effects.transition("event", string(action), err)
		return nil, err
	}

	s.effects.committed(ctx, transitionRecord{
		entity:      "event",
		verb:        string(action),
		auditAction: models.AuditActionEventTransit,
		actorID:     user.ID,
		resourceID:  event.ID,
		before:      map[string]interface{}{"status": before},
		after:       map[string]interface{}{"status": event.Status, "forwardedToAdmin": event.ForwardedToAdmin},
	}, models.Notification{
		RecipientID: event.CreatedBy,
		Subject:     fmt.Sprintf("Event %q %s", event.Title, event.Status),
		Body:        fmt.Sprintf("%s marked your event as %s.", user.Name, event.Status),
		Resource:    "event",
		ResourceID:  event.ID,
	})
	return event, nil
}

// ApprovedForStudents lists approved events ordered by date and time.
func (s *EventService) ApprovedForStudents(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Event, int, error) {
	if err := authz.RequireRole(claims, models.AllRoles()...); err != nil {
		return nil, 0, err
	}
	return s.list(ctx, models.EventFilter{Statuses: []models.EventStatus{models.EventStatusApproved}}, page)
}

// MyProposals lists the caller's own submissions.
func (s *EventService) MyProposals(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Event, int, error) {
	if err := authz.RequireRole(claims, models.RoleStudent, models.RoleFaculty, models.RoleAdmin); err != nil {
		return nil, 0, err
	}
	return s.list(ctx, models.EventFilter{CreatedBy: claims.UserID}, page)
}

// FacultyRequests lists student proposals still waiting for a faculty decision.
func (s *EventService) FacultyRequests(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Event, int, error) {
	if err := authz.RequireRole(claims, models.RoleFaculty); err != nil {
		return nil, 0, err
	}
	notForwarded := false
	return s.list(ctx, models.EventFilter{
		Statuses:         []models.EventStatus{models.EventStatusPending},
		SubmittedByRoles: []models.Role{models.RoleStudent},
		ForwardedToAdmin: &notForwarded,
	}, page)
}

// AdminList lists forwarded events and events submitted by admins, newest first.
func (s *EventService) AdminList(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Event, int, error) {
	if err := authz.RequireRole(claims, models.RoleAdmin); err != nil {
		return nil, 0, err
	}
	return s.list(ctx, models.EventFilter{AdminQueue: true}, page)
}

func (s *EventService) list(ctx context.Context, filter models.EventFilter, page models.Page) ([]models.Event, int, error) {
	page = page.Normalized()
	filter.Limit, filter.Offset = page.Limit, page.Offset
	events, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, storeError(err, "event", "list events")
	}
	return events, total, nil
}
