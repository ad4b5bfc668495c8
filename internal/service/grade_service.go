package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type gradeStore interface {
	CreateSheet(ctx context.Context, sheet *models.GradeSheet, studentIDs []string) error
	GetSheet(ctx context.Context, id string) (*models.GradeSheet, error)
	ListSheets(ctx context.Context, filter models.GradeSheetFilter) ([]models.GradeSheet, int, error)
	UpdateEntry(ctx context.Context, entry *models.GradeEntry) error
}

type classByID interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// GradeService manages grade sheets generated by faculty for their classes.
type GradeService struct {
	store     gradeStore
	classes   classByID
	guard     *authz.Guard
	validator *validator.Validate
	effects   WorkflowEffects
}

// NewGradeService constructs a GradeService.
func NewGradeService(store gradeStore, classes classByID, guard *authz.Guard, validate *validator.Validate, effects WorkflowEffects) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	return &GradeService{store: store, classes: classes, guard: guard, validator: validate, effects: effects}
}

// Generate creates a sheet for a class and subject with an empty entry for every
// student currently in the class.
func (s *GradeService) Generate(ctx context.Context, claims *models.JWTClaims, req dto.GenerateGradeSheetRequest) (*models.GradeSheet, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty)
	if err != nil {
		return nil, err
	}
	if err := validationError(s.validator, req, "classId, subject, title, and examType are required"); err != nil {
		return nil, err
	}
	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		return nil, storeError(err, "class", "load class")
	}
	if err := authz.RequireClassTeacherOrSubjectTeacher(class, req.Subject, user.ID); err != nil {
		return nil, err
	}

	className := class.ClassName
	facultyName := user.Name
	sheet := &models.GradeSheet{
		ClassID:     class.ID,
		ClassName:   &className,
		Subject:     req.Subject,
		FacultyID:   user.ID,
		FacultyName: &facultyName,
		Title:       strings.TrimSpace(req.Title),
		ExamType:    strings.TrimSpace(req.ExamType),
	}
	if err := s.store.CreateSheet(ctx, sheet, class.StudentIDs); err != nil {
		return nil, storeError(err, "grade sheet", "create grade sheet")
	}
	if sheet.Grades == nil {
		sheet.Grades = []models.GradeEntry{}
	}
	s.effects.audit(ctx, user.ID, models.AuditActionGradeSheetCreate, "grade_sheet", sheet.ID, nil,
		map[string]interface{}{"classId": sheet.ClassID, "subject": sheet.Subject, "title": sheet.Title, "students": len(sheet.Grades)})
	return sheet, nil
}

// FacultySheets lists the caller's sheets, newest first.
func (s *GradeService) FacultySheets(ctx context.Context, claims *models.JWTClaims, query dto.GradeSheetQuery, page models.Page) ([]models.GradeSheet, int, error) {
	if _, err := s.guard.Reverify(ctx, claims, models.RoleFaculty); err != nil {
		return nil, 0, err
	}
	page = page.Normalized()
	sheets, total, err := s.store.ListSheets(ctx, models.GradeSheetFilter{
		FacultyID: claims.UserID,
		ClassID:   query.ClassID,
		Subject:   query.Subject,
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		return nil, 0, storeError(err, "grade sheet", "list grade sheets")
	}
	return sheets, total, nil
}

// Sheet returns one sheet. Faculty see only their own sheets and students only sheets
// holding an entry for them.
func (s *GradeService) Sheet(ctx context.Context, claims *models.JWTClaims, id string) (*models.GradeSheet, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	sheet, err := s.store.GetSheet(ctx, id)
	if err != nil {
		return nil, storeError(err, "grade sheet", "load grade sheet")
	}
	switch claims.Role {
	case models.RoleFaculty:
		if sheet.FacultyID != claims.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "Access denied")
		}
	case models.RoleStudent:
		if _, ok := sheet.Entry(claims.UserID); !ok {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "Access denied")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Access denied")
	}
	return sheet, nil
}

// UpdateGrade records one student's scores on a sheet the caller owns.
func (s *GradeService) UpdateGrade(ctx context.Context, claims *models.JWTClaims, sheetID, studentID string, req dto.UpdateGradeRequest) (*models.GradeSheet, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty)
	if err != nil {
		return nil, err
	}
	if err := validationError(s.validator, req, "maxScore, obtainedScore, and grade are required"); err != nil {
		return nil, err
	}
	if *req.ObtainedScore > *req.MaxScore {
		return nil, appErrors.Clone(appErrors.ErrValidation, "obtainedScore cannot exceed maxScore")
	}
	sheet, err := s.store.GetSheet(ctx, sheetID)
	if err != nil {
		return nil, storeError(err, "grade sheet", "load grade sheet")
	}
	if sheet.FacultyID != user.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You are not authorized to update this grade sheet")
	}
	current, ok := sheet.Entry(studentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found in grade sheet")
	}

	before := *current
	grade := strings.TrimSpace(req.Grade)
	current.MaxScore = req.MaxScore
	current.ObtainedScore = req.ObtainedScore
	current.Grade = &grade
	if err := s.store.UpdateEntry(ctx, current); err != nil {
		return nil, storeError(err, "grade entry", "update grade")
	}
	s.effects.audit(ctx, user.ID, models.AuditActionGradeUpdate, "grade_sheet", sheet.ID, before, current)
	s.effects.invalidateDashboards(ctx)
	s.effects.notify(ctx, models.Notification{
		RecipientID: studentID,
		Subject:     fmt.Sprintf("Grade posted: %s", sheet.Title),
		Body:        fmt.Sprintf("%s %s: %s (%g/%g)", sheet.Subject, sheet.ExamType, grade, *req.ObtainedScore, *req.MaxScore),
		Resource:    "grade_sheet",
		ResourceID:  sheet.ID,
	})
	return sheet, nil
}

// StudentGrades lists the caller's entry on every sheet that holds one, newest first.
func (s *GradeService) StudentGrades(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.StudentGrade, int, error) {
	if _, err := s.guard.Reverify(ctx, claims, models.RoleStudent); err != nil {
		return nil, 0, err
	}
	page = page.Normalized()
	sheets, total, err := s.store.ListSheets(ctx, models.GradeSheetFilter{StudentID: claims.UserID, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, 0, storeError(err, "grade sheet", "list grades")
	}
	grades := make([]models.StudentGrade, 0, len(sheets))
	for i := range sheets {
		sheet := sheets[i]
		view := models.StudentGrade{
			SheetID:     sheet.ID,
			Title:       sheet.Title,
			Subject:     sheet.Subject,
			ExamType:    sheet.ExamType,
			ClassID:     sheet.ClassID,
			ClassName:   sheet.ClassName,
			FacultyID:   sheet.FacultyID,
			FacultyName: sheet.FacultyName,
			CreatedAt:   sheet.CreatedAt,
		}
		if entry, ok := sheet.Entry(claims.UserID); ok {
			view.Grade = entry
		}
		grades = append(grades, view)
	}
	return grades, total, nil
}
