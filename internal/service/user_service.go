package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserService provisions and looks up accounts. Self-registration does not exist; every
// account is created by an admin.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
	cost      int
}

func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger, cost: bcrypt.DefaultCost}
}

// Create provisions an active account. A class name is only kept for students.
func (s *UserService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateUserRequest) (*models.User, error) {
	if err := authz.RequireRole(claims, models.RoleAdmin); err != nil {
		return nil, err
	}
	role, ok := models.ParseRole(string(req.Role))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be one of student, faculty, admin, hr")
	}
	req.Role = role
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validationError(s.validator, req, "invalid user payload"); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Department:   req.Department,
		Active:       true,
	}
	if className := strings.TrimSpace(req.ClassName); className != "" && role == models.RoleStudent {
		user.ClassName = &className
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}

	s.auditCreate(ctx, claims.UserID, user)
	return user, nil
}

func (s *UserService) auditCreate(ctx context.Context, actorID string, user *models.User) {
	after, err := json.Marshal(map[string]string{
		"email":     user.Email,
		"role":      string(user.Role),
		"className": user.ClassNameValue(),
	})
	if err != nil {
		s.logger.Warn("encode user audit payload", zap.Error(err))
		return
	}
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionUserCreate,
		Resource:   "user",
		ResourceID: &user.ID,
		NewValues:  after,
	}); err != nil {
		s.logger.Warn("failed to record user create audit log", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// List returns one page of users and the total matching filter.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "unknown role filter")
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Internal(err, "failed to list users")
	}
	return users, total, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user", "load user")
	}
	return user, nil
}
