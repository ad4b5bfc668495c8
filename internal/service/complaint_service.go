package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/workflow"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type complaintStore interface {
	Create(ctx context.Context, c *models.Complaint, created *models.ComplaintHistoryEntry) error
	GetByID(ctx context.Context, id string) (*models.Complaint, error)
	History(ctx context.Context, complaintID string) ([]models.ComplaintHistoryEntry, error)
	List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, int, error)
	ApplyTransition(ctx context.Context, c *models.Complaint, expectedVersion int, entry *models.ComplaintHistoryEntry) error
}

type classByName interface {
	FindByName(ctx context.Context, name string) (*models.Class, error)
}

// ComplaintService routes complaints between students, faculty and admins.
type ComplaintService struct {
	store     complaintStore
	classes   classByName
	guard     *authz.Guard
	validator *validator.Validate
	effects   WorkflowEffects
}

// NewComplaintService constructs a ComplaintService.
func NewComplaintService(store complaintStore, classes classByName, guard *authz.Guard, validate *validator.Validate, effects WorkflowEffects) *ComplaintService {
	if validate == nil {
		validate = validator.New()
	}
	return &ComplaintService{store: store, classes: classes, guard: guard, validator: validate, effects: effects}
}

// CreateByStudent files a complaint against the student's class. It is routed to the
// class teacher, or the first subject teacher when the class has none.
func (s *ComplaintService) CreateByStudent(ctx context.Context, claims *models.JWTClaims, req dto.CreateComplaintRequest) (*models.Complaint, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if user.ClassNameValue() == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "you are not assigned to a class")
	}

	class, err := s.classes.FindByName(ctx, user.ClassNameValue())
	if err != nil {
		return nil, storeError(err, "class", "load class")
	}
	facultyID := assignedFaculty(class)
	if facultyID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no faculty assigned to your class")
	}

	c, err := newComplaint(user, req)
	if err != nil {
		return nil, err
	}
	c.TargetClassID = &class.ID
	c.TargetFacultyID = &facultyID
	className := class.ClassName
	c.TargetClassName = &className

	if err := s.persist(ctx, user, c); err != nil {
		return nil, err
	}
	s.effects.notify(ctx, models.Notification{
		RecipientID: facultyID,
		Subject:     "New complaint: " + c.Title,
		Body:        fmt.Sprintf("%s raised a complaint for %s.", user.Name, class.ClassName),
		Resource:    "complaint",
		ResourceID:  c.ID,
	})
	return c, nil
}

// CreateByFaculty files a complaint that goes straight to the admin queue.
func (s *ComplaintService) CreateByFaculty(ctx context.Context, claims *models.JWTClaims, req dto.CreateComplaintRequest) (*models.Complaint, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty)
	if err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	c, err := newComplaint(user, req)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, user, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ComplaintService) validate(req dto.CreateComplaintRequest) error {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "title and description are required")
	}
	return validationError(s.validator, req, "invalid complaint payload")
}

func newComplaint(user *models.User, req dto.CreateComplaintRequest) (*models.Complaint, error) {
	status, owner, err := workflow.InitialComplaintState(user.Role)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = models.DefaultComplaintCategory
	}
	name := user.Name
	return &models.Complaint{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Category:     category,
		RaisedByID:   user.ID,
		RaisedByRole: user.Role,
		RaisedByName: &name,
		CurrentOwner: owner,
		Status:       status,
	}, nil
}

func (s *ComplaintService) persist(ctx context.Context, user *models.User, c *models.Complaint) error {
	name := user.Name
	created := &models.ComplaintHistoryEntry{
		ActorID:   user.ID,
		ActorRole: user.Role,
		ActorName: &name,
		Action:    models.HistoryCreated,
	}
	if err := s.store.Create(ctx, c, created); err != nil {
		return storeError(err, "complaint", "create complaint")
	}
	c.History = []models.ComplaintHistoryEntry{*created}
	c.Populate()

	s.effects.audit(ctx, user.ID, models.AuditActionComplaintCreate, "complaint", c.ID, nil, c)
	s.effects.invalidateDashboards(ctx)
	return nil
}

// FacultyAction applies resolve, reject, escalate or ack-admin-resolution on behalf of
// the assigned faculty member.
func (s *ComplaintService) FacultyAction(ctx context.Context, claims *models.JWTClaims, id string, req dto.ComplaintActionRequest) (*models.Complaint, error) {
	return s.act(ctx, claims, models.RoleFaculty, id, req)
}

// AdminAction applies resolve, reject or comment on a complaint in the admin queue.
func (s *ComplaintService) AdminAction(ctx context.Context, claims *models.JWTClaims, id string, req dto.ComplaintActionRequest) (*models.Complaint, error) {
	return s.act(ctx, claims, models.RoleAdmin, id, req)
}

func (s *ComplaintService) act(ctx context.Context, claims *models.JWTClaims, role models.Role, id string, req dto.ComplaintActionRequest) (*models.Complaint, error) {
	user, err := s.guard.Reverify(ctx, claims, role)
	if err != nil {
		return nil, err
	}
	action, err := workflow.ParseComplaintAction(req.ActionType)
	if err != nil {
		return nil, err
	}

	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "complaint", "load complaint")
	}
	before := *c

	out, err := workflow.ComplaintTransition(c, workflow.Actor{ID: user.ID, Role: user.Role, Name: user.Name}, action, req.Comment)
	if err != nil {
		s.effects.transition("complaint", string(action), err)
		return nil, err
	}

	expected := c.Version
	c.Status = out.Status
	c.CurrentOwner = out.Owner
	entry := out.Entry
	if err := s.store.ApplyTransition(ctx, c, expected, &entry); err != nil {
		err = storeError(err, "complaint", "update complaint")
		s.effects.transition("complaint", string(action), err)
		return nil, err
	}

	history, err := s.store.History(ctx, c.ID)
	if err != nil {
		s.effects.logger().Warn("failed to reload complaint history", zap.String("complaint_id", c.ID), zap.Error(err))
		history = []models.ComplaintHistoryEntry{entry}
	}
	c.History = history
	c.Populate()

	s.effects.committed(ctx, transitionRecord{
		entity:      "complaint",
		verb:        string(action),
		auditAction: models.AuditActionComplaintTransit,
		actorID:     user.ID,
		resourceID:  c.ID,
		before:      map[string]interface{}{"status": before.Status, "currentOwner": before.CurrentOwner},
		after:       map[string]interface{}{"status": c.Status, "currentOwner": c.CurrentOwner},
	}, models.Notification{
		RecipientID: c.RaisedByID,
		Subject:     fmt.Sprintf("Complaint %q updated", c.Title),
		Body:        fmt.Sprintf("%s recorded %s. Status is now %s.", user.Name, entry.Action, c.Status),
		Resource:    "complaint",
		ResourceID:  c.ID,
	})
	return c, nil
}

// Mine lists complaints raised by the caller.
func (s *ComplaintService) Mine(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Complaint, int, error) {
	if err := authz.RequireRole(claims, models.RoleStudent, models.RoleFaculty); err != nil {
		return nil, 0, err
	}
	role := claims.Role
	return s.list(ctx, models.ComplaintFilter{RaisedByID: claims.UserID, RaisedByRole: &role}, page)
}

// FacultyInbox lists student complaints awaiting the calling faculty member.
func (s *ComplaintService) FacultyInbox(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Complaint, int, error) {
	if err := authz.RequireRole(claims, models.RoleFaculty); err != nil {
		return nil, 0, err
	}
	owner := models.RoleFaculty
	return s.list(ctx, models.ComplaintFilter{
		Owner:           &owner,
		Statuses:        []models.ComplaintStatus{models.ComplaintStatusPendingFaculty},
		TargetFacultyID: claims.UserID,
	}, page)
}

// AdminResolvedForFaculty lists student complaints the admin resolved that the faculty
// member still has to acknowledge.
func (s *ComplaintService) AdminResolvedForFaculty(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Complaint, int, error) {
	if err := authz.RequireRole(claims, models.RoleFaculty); err != nil {
		return nil, 0, err
	}
	owner := models.RoleFaculty
	raiser := models.RoleStudent
	return s.list(ctx, models.ComplaintFilter{
		Owner:           &owner,
		Statuses:        []models.ComplaintStatus{models.ComplaintStatusResolved},
		TargetFacultyID: claims.UserID,
		RaisedByRole:    &raiser,
	}, page)
}

// AdminInbox lists every complaint currently owned by admin.
func (s *ComplaintService) AdminInbox(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Complaint, int, error) {
	if err := authz.RequireRole(claims, models.RoleAdmin); err != nil {
		return nil, 0, err
	}
	owner := models.RoleAdmin
	return s.list(ctx, models.ComplaintFilter{Owner: &owner}, page)
}

// Get returns a complaint with its full history to the raiser, the assigned faculty
// member or an admin.
func (s *ComplaintService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Complaint, error) {
	if err := authz.RequireRole(claims, models.AllRoles()...); err != nil {
		return nil, err
	}
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "complaint", "load complaint")
	}
	if err := authz.RequireComplaintReader(c, claims); err != nil {
		return nil, err
	}
	history, err := s.store.History(ctx, c.ID)
	if err != nil {
		return nil, storeError(err, "complaint", "load complaint history")
	}
	c.History = history
	c.Populate()
	return c, nil
}

func (s *ComplaintService) list(ctx context.Context, filter models.ComplaintFilter, page models.Page) ([]models.Complaint, int, error) {
	page = page.Normalized()
	filter.Limit, filter.Offset = page.Limit, page.Offset
	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, storeError(err, "complaint", "list complaints")
	}
	for i := range items {
		items[i].Populate()
	}
	return items, total, nil
}

func assignedFaculty(class *models.Class) string {
	if class.ClassTeacherID != nil && *class.ClassTeacherID != "" {
		return *class.ClassTeacherID
	}
	for _, sub := range class.Subjects {
		if sub.TeacherID != nil && *sub.TeacherID != "" {
			return *sub.TeacherID
		}
	}
	return ""
}
