package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type announcementStore interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

// AnnouncementService publishes notices to students and faculty.
type AnnouncementService struct {
	store     announcementStore
	guard     *authz.Guard
	validator *validator.Validate
	effects   WorkflowEffects
	now       func() time.Time
}

// NewAnnouncementService constructs the service and registers the audience and
// priority validators.
func NewAnnouncementService(store announcementStore, guard *authz.Guard, validate *validator.Validate, effects WorkflowEffects) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	svc := &AnnouncementService{store: store, guard: guard, validator: validate, effects: effects, now: time.Now}
	svc.validator.RegisterValidation("audience", func(fl validator.FieldLevel) bool {
		switch models.AnnouncementAudience(strings.ToLower(fl.Field().String())) {
		case models.AnnouncementAudienceStudents, models.AnnouncementAudienceFaculty, models.AnnouncementAudienceAll:
			return true
		default:
			return false
		}
	})
	svc.validator.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		switch models.AnnouncementPriority(strings.ToLower(fl.Field().String())) {
		case models.AnnouncementPriorityHigh, models.AnnouncementPriorityMedium, models.AnnouncementPriorityLow:
			return true
		default:
			return false
		}
	})
	return svc
}

// Create publishes an announcement. Faculty may not address other faculty.
func (s *AnnouncementService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateAnnouncementRequest) (*models.Announcement, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.TrimSpace(req.Title) == "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "Title is required")
	case strings.TrimSpace(req.Message) == "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "Message is required")
	}
	if err := s.validator.Var(req.Priority, "required,priority"); err != nil {
		return nil, appErrors.Validation(err, "Valid priority is required")
	}
	if err := validationError(s.validator, req, "Valid targetAudience is required"); err != nil {
		return nil, err
	}
	audience := models.AnnouncementAudienceStudents
	if req.TargetAudience != "" {
		audience = models.AnnouncementAudience(strings.ToLower(req.TargetAudience))
	}
	if err := requireAudienceAllowed(user.Role, audience); err != nil {
		return nil, err
	}

	name := user.Name
	announcement := &models.Announcement{
		Title:          strings.TrimSpace(req.Title),
		Message:        strings.TrimSpace(req.Message),
		Priority:       models.AnnouncementPriority(strings.ToLower(req.Priority)),
		TargetAudience: audience,
		Classes:        pq.StringArray(trimmedStrings(req.Classes)),
		ExpiresAt:      req.ExpiresAt,
		CreatedBy:      user.ID,
		CreatorName:    &name,
	}
	if err := s.store.Create(ctx, announcement); err != nil {
		return nil, storeError(err, "announcement", "create announcement")
	}
	s.effects.audit(ctx, user.ID, models.AuditActionAnnouncementCreate, "announcement", announcement.ID, nil, announcement)
	return announcement, nil
}

// ListAll returns every unexpired announcement for admins.
func (s *AnnouncementService) ListAll(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Announcement, int, error) {
	if _, err := s.guard.Reverify(ctx, claims, models.RoleAdmin); err != nil {
		return nil, 0, err
	}
	now := s.now().UTC()
	return s.list(ctx, models.AnnouncementFilter{ActiveAt: &now}, page)
}

// ForStudent returns unexpired announcements addressed to students or everyone that
// are global or name the student's class.
func (s *AnnouncementService) ForStudent(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Announcement, int, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent)
	if err != nil {
		return nil, 0, err
	}
	now := s.now().UTC()
	class := user.ClassNameValue()
	return s.list(ctx, models.AnnouncementFilter{
		Audiences: []models.AnnouncementAudience{models.AnnouncementAudienceStudents, models.AnnouncementAudienceAll},
		ClassName: &class,
		ActiveAt:  &now,
	}, page)
}

// ForFaculty returns the caller's own announcements, newest first, expired ones included.
func (s *AnnouncementService) ForFaculty(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Announcement, int, error) {
	if _, err := s.guard.Reverify(ctx, claims, models.RoleFaculty); err != nil {
		return nil, 0, err
	}
	return s.list(ctx, models.AnnouncementFilter{CreatedBy: claims.UserID}, page)
}

// Update applies the present fields. Faculty may only edit their own announcements.
func (s *AnnouncementService) Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateAnnouncementRequest) (*models.Announcement, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := validationError(s.validator, req, "Valid priority and targetAudience are required"); err != nil {
		return nil, err
	}
	announcement, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "announcement", "load announcement")
	}
	if user.Role == models.RoleFaculty && announcement.CreatedBy != user.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You can only update your own announcements")
	}

	before := *announcement
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		announcement.Title = strings.TrimSpace(*req.Title)
	}
	if req.Message != nil && strings.TrimSpace(*req.Message) != "" {
		announcement.Message = strings.TrimSpace(*req.Message)
	}
	if req.Priority != nil && *req.Priority != "" {
		announcement.Priority = models.AnnouncementPriority(strings.ToLower(*req.Priority))
	}
	if req.TargetAudience != nil && *req.TargetAudience != "" {
		announcement.TargetAudience = models.AnnouncementAudience(strings.ToLower(*req.TargetAudience))
	}
	if err := requireAudienceAllowed(user.Role, announcement.TargetAudience); err != nil {
		return nil, err
	}
	if req.Classes != nil {
		announcement.Classes = pq.StringArray(trimmedStrings(req.Classes))
	}
	if req.ExpiresAt != nil {
		announcement.ExpiresAt = req.ExpiresAt
	}
	if err := s.store.Update(ctx, announcement); err != nil {
		return nil, storeError(err, "announcement", "update announcement")
	}
	s.effects.audit(ctx, user.ID, models.AuditActionAnnouncementUpdate, "announcement", announcement.ID, before, announcement)
	return announcement, nil
}

// Delete removes an announcement. Faculty may only delete their own.
func (s *AnnouncementService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty, models.RoleAdmin)
	if err != nil {
		return err
	}
	announcement, err := s.store.GetByID(ctx, id)
	if err != nil {
		return storeError(err, "announcement", "load announcement")
	}
	if user.Role == models.RoleFaculty && announcement.CreatedBy != user.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "You can only delete your own announcements")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return storeError(err, "announcement", "delete announcement")
	}
	s.effects.audit(ctx, user.ID, models.AuditActionAnnouncementDelete, "announcement", id, announcement, nil)
	return nil
}

func (s *AnnouncementService) list(ctx context.Context, filter models.AnnouncementFilter, page models.Page) ([]models.Announcement, int, error) {
	page = page.Normalized()
	filter.Limit, filter.Offset = page.Limit, page.Offset
	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, storeError(err, "announcement", "list announcements")
	}
	return items, total, nil
}

func requireAudienceAllowed(role models.Role, audience models.AnnouncementAudience) error {
	if role == models.RoleFaculty && audience == models.AnnouncementAudienceFaculty {
		return appErrors.Clone(appErrors.ErrForbidden, "Faculty cannot create announcements for other faculty")
	}
	return nil
}

func trimmedStrings(classes []string) []string {
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
