package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/workflow"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type studentSkillStore interface {
	Create(ctx context.Context, skill *models.StudentSkill) error
	GetByID(ctx context.Context, id string) (*models.StudentSkill, error)
	List(ctx context.Context, filter models.StudentSkillFilter) ([]models.StudentSkill, int, error)
	UpdateReview(ctx context.Context, skill *models.StudentSkill, expectedVersion int) error
}

// teacherClasses is declared in leave_service.go.

// StudentSkillService validates skills students claim.
type StudentSkillService struct {
	store   studentSkillStore
	classes teacherClasses
	guard   *authz.Guard
	effects WorkflowEffects
}

// NewStudentSkillService constructs a StudentSkillService.
func NewStudentSkillService(store studentSkillStore, classes teacherClasses, guard *authz.Guard, effects WorkflowEffects) *StudentSkillService {
	return &StudentSkillService{store: store, classes: classes, guard: guard, effects: effects}
}

// Submit records a pending skill for the caller.
func (s *StudentSkillService) Submit(ctx context.Context, claims *models.JWTClaims, req dto.SubmitSkillRequest) (*models.StudentSkill, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Title is required")
	}
	name := user.Name
	skill := &models.StudentSkill{
		StudentID:      user.ID,
		StudentName:    &name,
		ClassName:      user.ClassName,
		Title:          title,
		Provider:       trimmedOrNil(&req.Provider),
		CertificateURL: trimmedOrNil(&req.CertificateURL),
		Status:         models.SkillPending,
	}
	if err := s.store.Create(ctx, skill); err != nil {
		return nil, storeError(err, "skill", "submit skill")
	}
	s.effects.audit(ctx, user.ID, models.AuditActionSkillSubmit, "student_skill", skill.ID, nil, map[string]interface{}{"title": title})
	s.effects.invalidateDashboards(ctx)
	return skill, nil
}

// Mine lists the caller's skills, newest first.
func (s *StudentSkillService) Mine(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.StudentSkill, int, error) {
	if err := authz.RequireRole(claims, models.RoleStudent); err != nil {
		return nil, 0, err
	}
	page = page.Normalized()
	items, total, err := s.store.List(ctx, models.StudentSkillFilter{StudentID: claims.UserID, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, 0, storeError(err, "skill", "list skills")
	}
	return items, total, nil
}

// ForReviewer lists skills of students in the classes the caller teaches. Admins see
// every skill.
func (s *StudentSkillService) ForReviewer(ctx context.Context, claims *models.JWTClaims, query dto.SkillQuery, page models.Page) ([]models.StudentSkill, int, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty, models.RoleAdmin)
	if err != nil {
		return nil, 0, err
	}
	page = page.Normalized()
	filter := models.StudentSkillFilter{Status: models.SkillStatus(query.Status), Limit: page.Limit, Offset: page.Offset}
	if user.Role == models.RoleFaculty {
		classes, err := s.classes.ListForTeacher(ctx, user.ID)
		if err != nil {
			return nil, 0, storeError(err, "class", "list classes")
		}
		if len(classes) == 0 {
			return []models.StudentSkill{}, 0, nil
		}
		for _, c := range classes {
			filter.ClassNames = append(filter.ClassNames, c.ClassName)
		}
	}
	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, storeError(err, "skill", "list skills")
	}
	return items, total, nil
}

// Approve marks a skill approved and clears earlier remarks.
func (s *StudentSkillService) Approve(ctx context.Context, claims *models.JWTClaims, id string, req dto.SkillDecisionRequest) (*models.StudentSkill, error) {
	return s.review(ctx, claims, id, models.SkillApproved, req)
}

// Reject marks a skill rejected. Remarks are required.
func (s *StudentSkillService) Reject(ctx context.Context, claims *models.JWTClaims, id string, req dto.SkillDecisionRequest) (*models.StudentSkill, error) {
	if strings.TrimSpace(req.Remarks) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Remarks are required when rejecting a skill")
	}
	return s.review(ctx, claims, id, models.SkillRejected, req)
}

func (s *StudentSkillService) review(ctx context.Context, claims *models.JWTClaims, id string, decision models.SkillStatus, req dto.SkillDecisionRequest) (*models.StudentSkill, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	skill, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "skill", "load skill")
	}
	if skill.StudentID == user.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You cannot approve your own skills")
	}
	if user.Role == models.RoleFaculty {
		if err := s.requireTeachesStudent(ctx, skill, user.ID); err != nil {
			return nil, err
		}
	}
	if err := workflow.SkillReview(skill.Status, decision); err != nil {
		s.effects.transition("student_skill", string(decision), err)
		return nil, err
	}

	before := skill.Status
	expected := skill.Version
	if req.Version > 0 {
		expected = req.Version
	}
	skill.Status = decision
	skill.ApprovedBy = &user.ID
	skill.ApproverName = &user.Name
	skill.Remarks = nil
	if decision == models.SkillRejected {
		remarks := strings.TrimSpace(req.Remarks)
		skill.Remarks = &remarks
	}
	if err := s.store.UpdateReview(ctx, skill, expected); err != nil {
		err = storeError(err, "skill", "review skill")
		s.effects.transition("student_skill", string(decision), err)
		return nil, err
	}

	body := fmt.Sprintf("Your skill %q was %s.", skill.Title, decision)
	if skill.Remarks != nil {
		body += " Remarks: " + *skill.Remarks
	}
	s.effects.committed(ctx, transitionRecord{
		entity:      "student_skill",
		verb:        string(decision),
		auditAction: models.AuditActionSkillReview,
		actorID:     user.ID,
		resourceID:  skill.ID,
		before:      map[string]interface{}{"status": before},
		after:       map[string]interface{}{"status": decision, "remarks": skill.Remarks},
	}, models.Notification{
		RecipientID: skill.StudentID,
		Subject:     fmt.Sprintf("Skill %s", decision),
		Body:        body,
		Resource:    "student_skill",
		ResourceID:  skill.ID,
	})
	return skill, nil
}

func (s *StudentSkillService) requireTeachesStudent(ctx context.Context, skill *models.StudentSkill, facultyID string) error {
	denied := appErrors.Clone(appErrors.ErrForbidden, "You can only approve skills from students in your assigned classes")
	if skill.ClassName == nil || *skill.ClassName == "" {
		return denied
	}
	class, err := s.classes.FindByName(ctx, *skill.ClassName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return denied
		}
		return storeError(err, "class", "load class")
	}
	if !authz.TeachesClass(class, facultyID) {
		return denied
	}
	return nil
}
