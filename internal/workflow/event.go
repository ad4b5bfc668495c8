package workflow

import (
	"fmt"
	"strings"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// EventOutcome is the state an event moves to.
type EventOutcome struct {
	Status           models.EventStatus
	ForwardedToAdmin bool
}

// InitialEventState decides how a new proposal starts based on the submitter's role.
func InitialEventState(role models.Role) (EventOutcome, error) {
	switch role {
	case models.RoleAdmin:
		return EventOutcome{Status: models.EventStatusApproved}, nil
	case models.RoleFaculty:
		return EventOutcome{Status: models.EventStatusPending, ForwardedToAdmin: true}, nil
	case models.RoleStudent:
		return EventOutcome{Status: models.EventStatusPending}, nil
	default:
		return EventOutcome{}, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("%s cannot submit events", role))
	}
}

// ParseEventAction validates a raw status action.
func ParseEventAction(raw string) (models.EventAction, error) {
	action := models.EventAction(strings.TrimSpace(raw))
	switch action {
	case models.EventActionApprove, models.EventActionReject, models.EventActionForward:
		return action, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "invalid action. Use approved, rejected or forward")
	}
}

// EventTransition applies action by a caller holding role to e.
func EventTransition(e *models.Event, role models.Role, action models.EventAction) (EventOutcome, error) {
	if e == nil {
		return EventOutcome{}, appErrors.ErrNotFound
	}
	if !role.In(models.RoleFaculty, models.RoleAdmin) {
		return EventOutcome{}, appErrors.Clone(appErrors.ErrForbiddenTransition, "only faculty or admin can review events")
	}

	switch e.Status {
	case models.EventStatusApproved, models.EventStatusRejected:
		return EventOutcome{}, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("event is already %s", e.Status))
	}

	adminOnly := e.Status == models.EventStatusForwarded || e.ForwardedToAdmin
	if adminOnly && role != models.RoleAdmin {
		return EventOutcome{}, appErrors.Clone(appErrors.ErrForbiddenTransition, "event has been forwarded to admin")
	}

	out := EventOutcome{Status: e.Status, ForwardedToAdmin: e.ForwardedToAdmin}
	switch action {
	case models.EventActionApprove:
		out.Status = models.EventStatusApproved
	case models.EventActionReject:
		out.Status = models.EventStatusRejected
	case models.EventActionForward:
		if adminOnly || role == models.RoleAdmin {
			return EventOutcome{}, appErrors.Clone(appErrors.ErrInvalidTransition, "event is already with admin")
		}
		out.Status = models.EventStatusForwarded
		out.ForwardedToAdmin = true
	default:
		return EventOutcome{}, appErrors.Clone(appErrors.ErrValidation, "invalid action. Use approved, rejected or forward")
	}
	return out, nil
}
