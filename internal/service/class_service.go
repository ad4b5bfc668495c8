package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type classStore interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindByName(ctx context.Context, name string) (*models.Class, error)
	List(ctx context.Context) ([]models.Class, error)
	ListForTeacher(ctx context.Context, teacherID string) ([]models.Class, error)
	Create(ctx context.Context, class *models.Class) error
}

type classMemberStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	AssignClass(ctx context.Context, userID, className string) error
}

// ClassService manages classes and their membership.
type ClassService struct {
	classes   classStore
	users     classMemberStore
	guard     *authz.Guard
	validator *validator.Validate
	effects   WorkflowEffects
}

// NewClassService constructs a ClassService.
func NewClassService(classes classStore, users classMemberStore, guard *authz.Guard, validate *validator.Validate, effects WorkflowEffects) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	return &ClassService{classes: classes, users: users, guard: guard, validator: validate, effects: effects}
}

// Create registers a class with its subject teachers.
func (s *ClassService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateClassRequest) (*models.Class, error) {
	if _, err := s.guard.Reverify(ctx, claims, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validationError(s.validator, req, "invalid class payload"); err != nil {
		return nil, err
	}

	class := &models.Class{ClassName: strings.TrimSpace(req.ClassName), Department: req.Department}
	if req.ClassTeacherID != "" {
		if err := s.requireFaculty(ctx, req.ClassTeacherID); err != nil {
			return nil, err
		}
		teacherID := req.ClassTeacherID
		class.ClassTeacherID = &teacherID
	}

	seen := make(map[string]bool, len(req.Subjects))
	for _, sub := range req.Subjects {
		name := strings.TrimSpace(sub.Name)
		if seen[name] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate subject "+name)
		}
		seen[name] = true
		subject := models.ClassSubject{Name: name}
		if sub.TeacherID != "" {
			if err := s.requireFaculty(ctx, sub.TeacherID); err != nil {
				return nil, err
			}
			teacherID := sub.TeacherID
			subject.TeacherID = &teacherID
		}
		class.Subjects = append(class.Subjects, subject)
	}

	if err := s.classes.Create(ctx, class); err != nil {
		return nil, storeError(err, "class", "create class")
	}
	s.effects.audit(ctx, claims.UserID, models.AuditActionClassCreate, "class", class.ID, nil, class)
	return class, nil
}

// AssignStudent moves a student into the class.
func (s *ClassService) AssignStudent(ctx context.Context, claims *models.JWTClaims, classID, studentID string) (*models.Class, error) {
	if _, err := s.guard.Reverify(ctx, claims, models.RoleAdmin); err != nil {
		return nil, err
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, storeError(err, "class", "load class")
	}
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return nil, storeError(err, "student", "load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only students can be assigned to a class")
	}
	if err := s.users.AssignClass(ctx, student.ID, class.ClassName); err != nil {
		return nil, storeError(err, "student", "assign class")
	}
	if !class.HasStudent(student.ID) {
		class.StudentIDs = append(class.StudentIDs, student.ID)
	}
	s.effects.audit(ctx, claims.UserID, models.AuditActionClassAssign, "class", class.ID, nil, map[string]string{"studentId": student.ID})
	s.effects.invalidateDashboards(ctx)
	return class, nil
}

// Get returns a class to an admin, a teacher of the class or one of its students.
func (s *ClassService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Class, error) {
	if err := authz.RequireRole(claims, models.AllRoles()...); err != nil {
		return nil, err
	}
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "class", "load class")
	}
	switch claims.Role {
	case models.RoleAdmin, models.RoleHR:
		return class, nil
	case models.RoleFaculty:
		if err := authz.RequireTeachesClass(class, claims.UserID); err != nil {
			return nil, err
		}
		return class, nil
	default:
		if !class.HasStudent(claims.UserID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not a member of this class")
		}
		return class, nil
	}
}

// ListMine returns the classes relevant to the caller: every class for admins, taught
// classes for faculty and the own class for students.
func (s *ClassService) ListMine(ctx context.Context, claims *models.JWTClaims) ([]models.Class, error) {
	user, err := s.guard.Reverify(ctx, claims, models.AllRoles()...)
	if err != nil {
		return nil, err
	}
	var classes []models.Class
	switch user.Role {
	case models.RoleFaculty:
		classes, err = s.classes.ListForTeacher(ctx, user.ID)
	case models.RoleStudent:
		if user.ClassNameValue() == "" {
			return []models.Class{}, nil
		}
		var class *models.Class
		class, err = s.classes.FindByName(ctx, user.ClassNameValue())
		if err == nil {
			classes = []models.Class{*class}
		}
	default:
		classes, err = s.classes.List(ctx)
	}
	if err != nil {
		return nil, storeError(err, "class", "list classes")
	}
	return classes, nil
}

func (s *ClassService) requireFaculty(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "teacher", "load teacher")
	}
	if user.Role != models.RoleFaculty {
		return appErrors.Clone(appErrors.ErrValidation, user.Name+" is not a faculty member")
	}
	return nil
}
