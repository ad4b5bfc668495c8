package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/workflow"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type leaveStore interface {
	Create(ctx context.Context, leave *models.LeaveRequest) error
	GetByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.LeaveRequest, error)
	ListForClasses(ctx context.Context, classNames []string, status models.LeaveStatus) ([]models.LeaveRequest, error)
	Review(ctx context.Context, leave *models.LeaveRequest, expectedVersion int) error
}

type teacherClasses interface {
	FindByName(ctx context.Context, name string) (*models.Class, error)
	ListForTeacher(ctx context.Context, teacherID string) ([]models.Class, error)
}

// LeaveService handles student leave requests and their review by faculty.
type LeaveService struct {
	store     leaveStore
	classes   teacherClasses
	guard     *authz.Guard
	validator *validator.Validate
	effects   WorkflowEffects
}

// NewLeaveService constructs a LeaveService.
func NewLeaveService(store leaveStore, classes teacherClasses, guard *authz.Guard, validate *validator.Validate, effects WorkflowEffects) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	return &LeaveService{store: store, classes: classes, guard: guard, validator: validate, effects: effects}
}

// Apply files a pending leave request for the calling student.
func (s *LeaveService) Apply(ctx context.Context, claims *models.JWTClaims, req dto.ApplyLeaveRequest) (*models.LeaveRequest, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	if err := validationError(s.validator, req, "Reason, start date, and end date are required"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Reason, start date, and end date are required")
	}
	start, err := parseAttendanceDate(req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must be YYYY-MM-DD")
	}
	end, err := parseAttendanceDate(req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date cannot be before start date")
	}

	name := user.Name
	leave := &models.LeaveRequest{
		StudentID:   user.ID,
		StudentName: &name,
		ClassName:   user.ClassName,
		Reason:      strings.TrimSpace(req.Reason),
		StartDate:   start,
		EndDate:     end,
		FileURL:     req.FileURL,
		FileName:    req.FileName,
		Status:      models.LeavePending,
	}
	if err := s.store.Create(ctx, leave); err != nil {
		return nil, storeError(err, "leave request", "create leave request")
	}
	s.effects.audit(ctx, user.ID, models.AuditActionLeaveApply, "leave_request", leave.ID, nil, leave)
	s.effects.invalidateDashboards(ctx)

	if class := user.ClassNameValue(); class != "" {
		if c, err := s.classes.FindByName(ctx, class); err == nil && c.ClassTeacherID != nil {
			s.effects.notify(ctx, models.Notification{
				RecipientID: *c.ClassTeacherID,
				Subject:     fmt.Sprintf("Leave request from %s", user.Name),
				Body:        fmt.Sprintf("%s to %s: %s", start.Format(attendanceDateLayout), end.Format(attendanceDateLayout), leave.Reason),
				Resource:    "leave_request",
				ResourceID:  leave.ID,
			})
		}
	}
	return leave, nil
}

// Mine lists the caller's leave requests, newest first.
func (s *LeaveService) Mine(ctx context.Context, claims *models.JWTClaims) ([]models.LeaveRequest, error) {
	if err := authz.RequireRole(claims, models.RoleStudent); err != nil {
		return nil, err
	}
	leaves, err := s.store.ListByStudent(ctx, claims.UserID)
	if err != nil {
		return nil, storeError(err, "leave request", "list leave requests")
	}
	return leaves, nil
}

// Pending lists pending requests from students of every class the caller teaches.
func (s *LeaveService) Pending(ctx context.Context, claims *models.JWTClaims) ([]models.LeaveRequest, error) {
	if _, err := s.guard.Reverify(ctx, claims, models.RoleFaculty); err != nil {
		return nil, err
	}
	classes, err := s.classes.ListForTeacher(ctx, claims.UserID)
	if err != nil {
		return nil, storeError(err, "class", "list classes")
	}
	if len(classes) == 0 {
		return []models.LeaveRequest{}, nil
	}
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, c.ClassName)
	}
	leaves, err := s.store.ListForClasses(ctx, names, models.LeavePending)
	if err != nil {
		return nil, storeError(err, "leave request", "list leave requests")
	}
	return leaves, nil
}

// Review approves or rejects a pending request. The reviewer must teach the student's class.
func (s *LeaveService) Review(ctx context.Context, claims *models.JWTClaims, id string, req dto.ReviewLeaveRequest) (*models.LeaveRequest, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty)
	if err != nil {
		return nil, err
	}
	decision := models.LeaveStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if decision != models.LeaveApproved && decision != models.LeaveRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Status must be 'approved' or 'rejected'")
	}

	leave, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "leave request", "load leave request")
	}
	if err := s.requireReviewer(ctx, leave, user.ID); err != nil {
		return nil, err
	}
	if err := workflow.LeaveTransition(leave.Status, user.Role, decision); err != nil {
		s.effects.transition("leave", string(decision), err)
		return nil, err
	}

	before := leave.Status
	expected := leave.Version
	leave.Status = decision
	leave.ReviewedBy = &user.ID
	if remarks := strings.TrimSpace(req.Remarks); remarks != "" {
		leave.Remarks = &remarks
	}
	if err := s.store.Review(ctx, leave, expected); err != nil {
		err = storeError(err, "leave request", "review leave request")
		s.effects.transition("leave", string(decision), err)
		return nil, err
	}

	body := fmt.Sprintf("Your leave from %s to %s was %s.", leave.StartDate.Format(attendanceDateLayout), leave.EndDate.Format(attendanceDateLayout), decision)
	if leave.Remarks != nil {
		body += " Remarks: " + *leave.Remarks
	}
	s.effects.committed(ctx, transitionRecord{
		entity:      "leave",
		verb:        string(decision),
		auditAction: models.AuditActionLeaveReview,
		actorID:     user.ID,
		resourceID:  leave.ID,
		before:      map[string]interface{}{"status": before},
		after:       map[string]interface{}{"status": leave.Status, "remarks": leave.Remarks},
	}, models.Notification{
		RecipientID: leave.StudentID,
		Subject:     fmt.Sprintf("Leave request %s", decision),
		Body:        body,
		Resource:    "leave_request",
		ResourceID:  leave.ID,
	})
	return leave, nil
}

func (s *LeaveService) requireReviewer(ctx context.Context, leave *models.LeaveRequest, facultyID string) error {
	denied := appErrors.Clone(appErrors.ErrForbidden, "You can only approve/reject leave requests from students in your assigned classes")
	if leave.ClassName == nil || *leave.ClassName == "" {
		return denied
	}
	class, err := s.classes.FindByName(ctx, *leave.ClassName)
	if err != nil {
		return denied
	}
	if !authz.TeachesClass(class, facultyID) {
		return denied
	}
	return nil
}
