package workflow

import (
	"fmt"
	"strings"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// AckDefaultComment is recorded when faculty relays an admin decision without a note.
const AckDefaultComment = "Resolved as per admin decision"

// ownerRaiser resolves to the raiser's role when the rule is applied.
const ownerRaiser models.Role = "~raiser"

type complaintRule struct {
	actor   models.Role
	action  models.ComplaintAction
	origin  models.Role // empty matches any origin
	owner   models.Role
	from    []models.ComplaintStatus
	status  models.ComplaintStatus // empty keeps the current status
	next    models.Role            // empty keeps the current owner
	label   models.ComplaintHistoryAction
	comment commentPolicy
}

type commentPolicy int

const (
	commentOptional commentPolicy = iota
	commentRequired
	commentDefaultAck
)

var complaintRules = []complaintRule{
	{
		actor: models.RoleFaculty, action: models.ComplaintActionResolve, origin: models.RoleStudent,
		owner: models.RoleFaculty, from: []models.ComplaintStatus{models.ComplaintStatusPendingFaculty},
		status: models.ComplaintStatusResolved, next: models.RoleStudent, label: models.HistoryResolved,
	},
	{
		actor: models.RoleFaculty, action: models.ComplaintActionReject, origin: models.RoleStudent,
		owner: models.RoleFaculty, from: []models.ComplaintStatus{models.ComplaintStatusPendingFaculty},
		status: models.ComplaintStatusRejected, next: models.RoleStudent, label: models.HistoryRejected,
	},
	{
		actor: models.RoleFaculty, action: models.ComplaintActionEscalate, origin: models.RoleStudent,
		owner: models.RoleFaculty, from: []models.ComplaintStatus{models.ComplaintStatusPendingFaculty},
		status: models.ComplaintStatusPendingAdmin, next: models.RoleAdmin, label: models.HistoryEscalatedToAdmin,
	},
	{
		actor: models.RoleFaculty, action: models.ComplaintActionAckAdminDecision, origin: models.RoleStudent,
		owner: models.RoleFaculty, from: []models.ComplaintStatus{models.ComplaintStatusResolved},
		next: models.RoleStudent, label: models.HistoryMarkedResolvedForStudent, comment: commentDefaultAck,
	},
	{
		actor: models.RoleAdmin, action: models.ComplaintActionResolve, origin: models.RoleStudent,
		owner: models.RoleAdmin, from: []models.ComplaintStatus{models.ComplaintStatusPendingAdmin},
		status: models.ComplaintStatusResolved, next: models.RoleFaculty, label: models.HistoryAdminResolved,
	},
	{
		actor: models.RoleAdmin, action: models.ComplaintActionResolve, origin: models.RoleFaculty,
		owner: models.RoleAdmin, from: []models.ComplaintStatus{models.ComplaintStatusPendingAdmin},
		status: models.ComplaintStatusResolved, next: models.RoleFaculty, label: models.HistoryResolved,
	},
	{
		actor: models.RoleAdmin, action: models.ComplaintActionReject,
		owner: models.RoleAdmin, from: []models.ComplaintStatus{models.ComplaintStatusPendingAdmin},
		status: models.ComplaintStatusRejected, next: ownerRaiser, label: models.HistoryRejected,
	},
	{
		actor: models.RoleAdmin, action: models.ComplaintActionComment,
		owner: models.RoleAdmin, label: models.HistoryComment, comment: commentRequired,
	},
}

// ComplaintOutcome is the state a transition produces plus the history entry to append.
type ComplaintOutcome struct {
	Status models.ComplaintStatus
	Owner  models.Role
	Entry  models.ComplaintHistoryEntry
}

// ParseComplaintAction validates a raw action name.
func ParseComplaintAction(raw string) (models.ComplaintAction, error) {
	action := models.ComplaintAction(strings.TrimSpace(raw))
	switch action {
	case models.ComplaintActionResolve, models.ComplaintActionReject, models.ComplaintActionEscalate,
		models.ComplaintActionAckAdminDecision, models.ComplaintActionComment:
		return action, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid action %q", raw))
	}
}

// ComplaintTransition resolves the outcome of actor performing action on c.
//
// Checks run in a fixed order: the action must be one the actor's role can take at all
// (a validation error otherwise), the complaint must currently be owned by that role
// and, for faculty, assigned to the actor. Only then are the status precondition and comment requirement checked.
func ComplaintTransition(c *models.Complaint, actor Actor, action models.ComplaintAction, comment string) (ComplaintOutcome, error) {
	if c == nil {
		return ComplaintOutcome{}, appErrors.ErrNotFound
	}

	var candidates []complaintRule
	roleActs := false
	for _, rule := range complaintRules {
		if rule.actor != actor.Role {
			continue
		}
		roleActs = true
		if rule.action == action {
			candidates = append(candidates, rule)
		}
	}
	if !roleActs {
		return ComplaintOutcome{}, appErrors.Clone(appErrors.ErrForbiddenTransition,
			fmt.Sprintf("%s cannot act on complaints", actor.Role))
	}
	if len(candidates) == 0 {
		return ComplaintOutcome{}, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("Valid actionType (%s) is required", strings.Join(actionsFor(actor.Role), ", ")))
	}

	if c.CurrentOwner != actor.Role {
		return ComplaintOutcome{}, appErrors.Clone(appErrors.ErrForbiddenTransition,
			fmt.Sprintf("complaint is currently with %s", c.CurrentOwner))
	}
	if actor.Role == models.RoleFaculty && c.FacultyIDValue() != actor.ID {
		return ComplaintOutcome{}, appErrors.Clone(appErrors.ErrForbiddenTransition,
			"complaint is not assigned to you")
	}

	rule, ok := matchOrigin(candidates, c.RaisedByRole)
	if !ok {
		return ComplaintOutcome{}, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("%s is not available for complaints raised by %s", action, c.RaisedByRole))
	}
	if len(rule.from) > 0 && !statusIn(c.Status, rule.from) {
		return ComplaintOutcome{}, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot %s a complaint that is %s", action, c.Status))
	}

	comment = strings.TrimSpace(comment)
	switch rule.comment {
	case commentRequired:
		if comment == "" {
			return ComplaintOutcome{}, appErrors.Clone(appErrors.ErrValidation, "comment is required")
		}
	case commentDefaultAck:
		if comment == "" {
			comment = AckDefaultComment
		}
	}

	out := ComplaintOutcome{Status: c.Status, Owner: c.CurrentOwner}
	if rule.status != "" {
		out.Status = rule.status
	}
	switch rule.next {
	case "":
	case ownerRaiser:
		out.Owner = c.RaisedByRole
	default:
		out.Owner = rule.next
	}

	out.Entry = models.ComplaintHistoryEntry{
		ComplaintID: c.ID,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Action:      rule.label,
		Comment:     comment,
	}
	if actor.Name != "" {
		name := actor.Name
		out.Entry.ActorName = &name
	}
	return out, nil
}

// InitialComplaintState returns the status and owner a new complaint starts with.
func InitialComplaintState(raiser models.Role) (models.ComplaintStatus, models.Role, error) {
	switch raiser {
	case models.RoleStudent:
		return models.ComplaintStatusPendingFaculty, models.RoleFaculty, nil
	case models.RoleFaculty:
		return models.ComplaintStatusPendingAdmin, models.RoleAdmin, nil
	default:
		return "", "", appErrors.Clone(appErrors.ErrForbidden, "only students and faculty can raise complaints")
	}
}

// IsTerminal reports whether the complaint is closed and back with its raiser.
func IsTerminal(c *models.Complaint) bool {
	if c == nil {
		return false
	}
	closed := c.Status == models.ComplaintStatusResolved || c.Status == models.ComplaintStatusRejected
	return closed && c.CurrentOwner == c.RaisedByRole
}

func actionsFor(role models.Role) []string {
	var names []string
	seen := map[models.ComplaintAction]bool{}
	for _, rule := range complaintRules {
		if rule.actor == role && !seen[rule.action] {
			seen[rule.action] = true
			names = append(names, string(rule.action))
		}
	}
	return names
}

func matchOrigin(rules []complaintRule, origin models.Role) (complaintRule, bool) {
	for _, rule := range rules {
		if rule.origin == "" || rule.origin == origin {
			return rule, true
		}
	}
	return complaintRule{}, false
}

func statusIn(status models.ComplaintStatus, allowed []models.ComplaintStatus) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}
