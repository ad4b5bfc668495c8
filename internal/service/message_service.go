package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type messageStore interface {
	Insert(ctx context.Context, message *models.Message) error
	Inbox(ctx context.Context, scope models.InboxScope, limit int64) ([]models.Message, error)
	Sent(ctx context.Context, senderID string, limit int64) ([]models.Message, error)
	UnreadCount(ctx context.Context, scope models.InboxScope) (int64, error)
	GetByID(ctx context.Context, id string) (*models.Message, error)
	MarkRead(ctx context.Context, id, userID string) error
}

type messageDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindByName(ctx context.Context, name string) (*models.Class, error)
	ListForTeacher(ctx context.Context, teacherID string) ([]models.Class, error)
}

const messageListLimit = 200

// MessageService implements the communication module: role scoped sending and the
// inbox/sent views.
type MessageService struct {
	store     messageStore
	users     userLookup
	classes   messageDirectory
	guard     *authz.Guard
	validator *validator.Validate
	effects   WorkflowEffects
	now       func() time.Time
}

// NewMessageService constructs a MessageService.
func NewMessageService(store messageStore, users userLookup, classes messageDirectory, guard *authz.Guard, validate *validator.Validate, effects WorkflowEffects) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	return &MessageService{
		store:     store,
		users:     users,
		classes:   classes,
		guard:     guard,
		validator: validate,
		effects:   effects,
		now:       time.Now,
	}
}

// Send stores a direct message after checking what the sender's role may address:
// admins reach a role, a class or a user; faculty reach classes they teach, students of
// those classes and admins; hr reaches admins only; students cannot send.
func (s *MessageService) Send(ctx context.Context, claims *models.JWTClaims, req dto.SendMessageRequest) (*models.Message, error) {
	if err := authz.RequireRole(claims, models.AllRoles()...); err != nil {
		return nil, err
	}
	if err := validationError(s.validator, req, "Subject, body, and mode are required"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Body) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Subject, body, and mode are required")
	}
	if claims.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Students cannot send messages")
	}
	sender, err := s.guard.Reverify(ctx, claims, models.RoleAdmin, models.RoleFaculty, models.RoleHR)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		Kind:       models.MessageKindDirect,
		SenderID:   sender.ID,
		SenderName: sender.Name,
		SenderRole: sender.Role,
		Subject:    strings.TrimSpace(req.Subject),
		Body:       strings.TrimSpace(req.Body),
		ReadBy:     []string{},
		CreatedAt:  s.now().UTC(),
	}
	switch sender.Role {
	case models.RoleAdmin:
		err = s.adminTarget(ctx, msg, req)
	case models.RoleFaculty:
		err = s.facultyTarget(ctx, msg, req, sender.ID)
	case models.RoleHR:
		err = s.hrTarget(ctx, msg, req)
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, msg); err != nil {
		return nil, storeError(err, "message", "send message")
	}
	s.effects.audit(ctx, sender.ID, models.AuditActionMessageSend, "message", msg.ID.Hex(), nil, map[string]string{
		"targetType": string(msg.TargetType), "targetUser": msg.TargetUser, "targetRole": string(msg.TargetRole), "targetClass": msg.TargetClass,
	})
	return msg, nil
}

func (s *MessageService) adminTarget(ctx context.Context, msg *models.Message, req dto.SendMessageRequest) error {
	switch req.Mode {
	case "role":
		role, ok := models.ParseRole(req.TargetRole)
		if !ok || !role.In(models.RoleStudent, models.RoleFaculty, models.RoleHR) {
			return appErrors.Clone(appErrors.ErrValidation, "Invalid targetRole for role broadcast")
		}
		msg.TargetType = models.MessageTargetRole
		msg.TargetRole = role
	case "class":
		if req.TargetClassID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "targetClassId is required for class broadcast")
		}
		class, err := s.classes.FindByID(ctx, req.TargetClassID)
		if err != nil {
			return storeError(err, "class", "load class")
		}
		msg.TargetType = models.MessageTargetClass
		msg.TargetClass = class.ID
	case "user":
		target, err := s.targetUser(ctx, req.TargetUserID)
		if err != nil {
			return err
		}
		msg.TargetType = models.MessageTargetUser
		msg.TargetUser = target.ID
	default:
		return appErrors.Clone(appErrors.ErrValidation, "Invalid mode. Use 'role', 'class', or 'user'")
	}
	return nil
}

func (s *MessageService) facultyTarget(ctx context.Context, msg *models.Message, req dto.SendMessageRequest, facultyID string) error {
	switch req.Mode {
	case "class":
		if req.TargetClassID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "targetClassId is required")
		}
		class, err := s.classes.FindByID(ctx, req.TargetClassID)
		if err != nil {
			return storeError(err, "class", "load class")
		}
		if !authz.TeachesClass(class, facultyID) {
			return appErrors.Clone(appErrors.ErrForbidden, "You are not assigned to this class")
		}
		msg.TargetType = models.MessageTargetClass
		msg.TargetClass = class.ID
	case "user":
		target, err := s.targetUser(ctx, req.TargetUserID)
		if err != nil {
			return err
		}
		switch target.Role {
		case models.RoleAdmin:
		case models.RoleStudent:
			taught, err := s.classes.ListForTeacher(ctx, facultyID)
			if err != nil {
				return storeError(err, "class", "list classes")
			}
			inClass := false
			for i := range taught {
				if taught[i].HasStudent(target.ID) {
					inClass = true
					break
				}
			}
			if !inClass {
				return appErrors.Clone(appErrors.ErrForbidden, "Student is not in your classes")
			}
		default:
			return appErrors.Clone(appErrors.ErrForbidden, "You can only message students in your classes or admin")
		}
		msg.TargetType = models.MessageTargetUser
		msg.TargetUser = target.ID
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "Faculty can only send class or user messages")
	}
	return nil
}

func (s *MessageService) hrTarget(ctx context.Context, msg *models.Message, req dto.SendMessageRequest) error {
	if req.Mode != "user" {
		return appErrors.Clone(appErrors.ErrForbidden, "HR can only send user messages to admin")
	}
	target, err := s.targetUser(ctx, req.TargetUserID)
	if err != nil {
		return err
	}
	if target.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "HR can only send messages to admin")
	}
	msg.TargetType = models.MessageTargetUser
	msg.TargetUser = target.ID
	return nil
}

func (s *MessageService) targetUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "targetUserId is required")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user", "load user")
	}
	return user, nil
}

// Inbox lists messages addressed to the caller directly, to the caller's role or to a
// class the caller belongs to or teaches.
func (s *MessageService) Inbox(ctx context.Context, claims *models.JWTClaims) ([]models.MessageView, error) {
	scope, err := s.scope(ctx, claims)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.Inbox(ctx, scope, messageListLimit)
	if err != nil {
		return nil, storeError(err, "message", "load inbox")
	}
	return views(messages, claims.UserID), nil
}

// Sent lists messages the caller sent.
func (s *MessageService) Sent(ctx context.Context, claims *models.JWTClaims) ([]models.MessageView, error) {
	if err := authz.RequireRole(claims, models.AllRoles()...); err != nil {
		return nil, err
	}
	messages, err := s.store.Sent(ctx, claims.UserID, messageListLimit)
	if err != nil {
		return nil, storeError(err, "message", "load sent messages")
	}
	return views(messages, claims.UserID), nil
}

// UnreadCount counts inbox messages the caller has not opened.
func (s *MessageService) UnreadCount(ctx context.Context, claims *models.JWTClaims) (int64, error) {
	scope, err := s.scope(ctx, claims)
	if err != nil {
		return 0, err
	}
	count, err := s.store.UnreadCount(ctx, scope)
	if err != nil {
		return 0, storeError(err, "message", "count unread messages")
	}
	return count, nil
}

// MarkRead flags a message in the caller's inbox as read.
func (s *MessageService) MarkRead(ctx context.Context, claims *models.JWTClaims, id string) error {
	scope, err := s.scope(ctx, claims)
	if err != nil {
		return err
	}
	msg, err := s.store.GetByID(ctx, id)
	if err != nil {
		return storeError(err, "message", "load message")
	}
	if !addressedTo(msg, scope) {
		return appErrors.Clone(appErrors.ErrNotFound, "message not found")
	}
	if err := s.store.MarkRead(ctx, id, claims.UserID); err != nil {
		return storeError(err, "message", "mark message read")
	}
	return nil
}

func (s *MessageService) scope(ctx context.Context, claims *models.JWTClaims) (models.InboxScope, error) {
	if err := authz.RequireRole(claims, models.AllRoles()...); err != nil {
		return models.InboxScope{}, err
	}
	scope := models.InboxScope{UserID: claims.UserID, Role: claims.Role}
	switch claims.Role {
	case models.RoleStudent:
		user, err := s.users.FindByID(ctx, claims.UserID)
		if err != nil {
			return scope, storeError(err, "user", "load user")
		}
		if name := user.ClassNameValue(); name != "" {
			class, err := s.classes.FindByName(ctx, name)
			switch {
			case err == nil:
				scope.ClassIDs = append(scope.ClassIDs, class.ID)
			case !errors.Is(err, sql.ErrNoRows):
				return scope, storeError(err, "class", "load class")
			}
		}
	case models.RoleFaculty:
		classes, err := s.classes.ListForTeacher(ctx, claims.UserID)
		if err != nil {
			return scope, storeError(err, "class", "list classes")
		}
		for _, c := range classes {
			scope.ClassIDs = append(scope.ClassIDs, c.ID)
		}
	}
	return scope, nil
}

func addressedTo(m *models.Message, scope models.InboxScope) bool {
	switch m.TargetType {
	case models.MessageTargetUser:
		return m.TargetUser == scope.UserID
	case models.MessageTargetRole:
		return m.TargetRole == scope.Role
	case models.MessageTargetClass:
		for _, id := range scope.ClassIDs {
			if id == m.TargetClass {
				return true
			}
		}
	}
	return false
}

func views(messages []models.Message, readerID string) []models.MessageView {
	out := make([]models.MessageView, 0, len(messages))
	for _, m := range messages {
		out = append(out, models.NewMessageView(m, readerID))
	}
	return out
}
