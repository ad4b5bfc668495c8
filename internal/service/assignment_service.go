package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/workflow"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// upcomingDeadlines caps the deadline widget.
const upcomingDeadlines = 3

type assignmentStore interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error)
	CreateSubmission(ctx context.Context, submission *models.AssignmentSubmission) error
	GetSubmission(ctx context.Context, id string) (*models.AssignmentSubmission, error)
	FindSubmission(ctx context.Context, assignmentID, studentID string) (*models.AssignmentSubmission, error)
	ListSubmissions(ctx context.Context, assignmentID string) ([]models.AssignmentSubmission, error)
	SubmissionsByStudent(ctx context.Context, studentID string, assignmentIDs []string) (map[string]models.AssignmentSubmission, error)
	UpdateSubmission(ctx context.Context, submission *models.AssignmentSubmission, expectedVersion int) error
}

type assignmentClasses interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindByName(ctx context.Context, name string) (*models.Class, error)
}

// AssignmentService runs the assignment submission and review cycle.
type AssignmentService struct {
	store     assignmentStore
	classes   assignmentClasses
	guard     *authz.Guard
	validator *validator.Validate
	effects   WorkflowEffects
	now       func() time.Time
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(store assignmentStore, classes assignmentClasses, guard *authz.Guard, validate *validator.Validate, effects WorkflowEffects) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	return &AssignmentService{store: store, classes: classes, guard: guard, validator: validate, effects: effects, now: time.Now}
}

// Create sets an assignment for a class and subject the caller teaches and notifies
// the students of the class.
func (s *AssignmentService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateAssignmentRequest) (*models.Assignment, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty)
	if err != nil {
		return nil, err
	}
	if err := validationError(s.validator, req, "Title, dueDate, subject, and classId are required"); err != nil {
		return nil, err
	}
	due, err := parseAttendanceDate(req.DueDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dueDate must be YYYY-MM-DD")
	}
	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		return nil, storeError(err, "class", "load class")
	}
	if err := authz.RequireClassTeacherOrSubjectTeacher(class, req.Subject, user.ID); err != nil {
		return nil, err
	}

	facultyName, className := user.Name, class.ClassName
	assignment := &models.Assignment{
		FacultyID:   user.ID,
		FacultyName: &facultyName,
		ClassID:     class.ID,
		ClassName:   &className,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Subject:     req.Subject,
		DueDate:     due,
		Status:      models.ParseAssignmentStatus(req.Status),
	}
	if err := s.store.Create(ctx, assignment); err != nil {
		return nil, storeError(err, "assignment", "create assignment")
	}
	s.effects.audit(ctx, user.ID, models.AuditActionAssignmentCreate, "assignment", assignment.ID, nil, assignment)
	s.effects.invalidateDashboards(ctx)
	if assignment.Status == models.AssignmentPublished {
		for _, studentID := range class.StudentIDs {
			s.effects.notify(ctx, models.Notification{
				RecipientID: studentID,
				Subject:     fmt.Sprintf("New assignment: %s", assignment.Title),
				Body:        fmt.Sprintf("%s, due %s", assignment.Subject, due.Format(attendanceDateLayout)),
				Resource:    "assignment",
				ResourceID:  assignment.ID,
			})
		}
	}
	return assignment, nil
}

// FacultyAssignments lists the caller's assignments, newest first, with submission counts.
func (s *AssignmentService) FacultyAssignments(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Assignment, int, error) {
	if _, err := s.guard.Reverify(ctx, claims, models.RoleFaculty); err != nil {
		return nil, 0, err
	}
	page = page.Normalized()
	items, total, err := s.store.List(ctx, models.AssignmentFilter{FacultyID: claims.UserID, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, 0, storeError(err, "assignment", "list assignments")
	}
	return items, total, nil
}

// Get returns an assignment to its author or to a student of its class.
func (s *AssignmentService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Assignment, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	assignment, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "assignment", "load assignment")
	}
	switch claims.Role {
	case models.RoleStudent:
		if err := s.requireEnrolled(ctx, assignment, claims.UserID); err != nil {
			return nil, err
		}
	case models.RoleFaculty:
		if assignment.FacultyID != claims.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "You are not authorized to view this assignment")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Access denied")
	}
	return assignment, nil
}

// Submissions lists the submissions of an assignment the caller set, latest first.
func (s *AssignmentService) Submissions(ctx context.Context, claims *models.JWTClaims, id string) (*models.Assignment, []models.AssignmentSubmission, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty)
	if err != nil {
		return nil, nil, err
	}
	assignment, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, storeError(err, "assignment", "load assignment")
	}
	if assignment.FacultyID != user.ID {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "You are not authorized to view submissions for this assignment")
	}
	submissions, err := s.store.ListSubmissions(ctx, id)
	if err != nil {
		return nil, nil, storeError(err, "submission", "list submissions")
	}
	return assignment, submissions, nil
}

// Review approves, rejects or returns a pending submission for rework.
func (s *AssignmentService) Review(ctx context.Context, claims *models.JWTClaims, submissionID string, req dto.ReviewSubmissionRequest) (*models.AssignmentSubmission, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty)
	if err != nil {
		return nil, err
	}
	decision, err := workflow.ParseSubmissionDecision(req.Status)
	if err != nil {
		return nil, err
	}
	submission, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, storeError(err, "submission", "load submission")
	}
	assignment, err := s.store.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		return nil, storeError(err, "assignment", "load assignment")
	}
	if assignment.FacultyID != user.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You are not authorized to update this submission")
	}
	if err := workflow.SubmissionReview(submission.Status, decision); err != nil {
		s.effects.transition("assignment_submission", string(decision), err)
		return nil, err
	}

	before := submission.Status
	expected := submission.Version
	submission.Status = decision
	submission.FacultyRemark = strings.TrimSpace(req.FacultyRemark)
	submission.ReviewedBy = &user.ID
	if err := s.store.UpdateSubmission(ctx, submission, expected); err != nil {
		err = storeError(err, "submission", "review submission")
		s.effects.transition("assignment_submission", string(decision), err)
		return nil, err
	}

	body := fmt.Sprintf("Your submission for %s was marked %s.", assignment.Title, decision)
	if submission.FacultyRemark != "" {
		body += " Remark: " + submission.FacultyRemark
	}
	s.effects.committed(ctx, transitionRecord{
		entity:      "assignment_submission",
		verb:        string(decision),
		auditAction: models.AuditActionSubmissionReview,
		actorID:     user.ID,
		resourceID:  submission.ID,
		before:      map[string]interface{}{"status": before},
		after:       map[string]interface{}{"status": submission.Status, "facultyRemark": submission.FacultyRemark},
	}, models.Notification{
		RecipientID: submission.StudentID,
		Subject:     fmt.Sprintf("Submission %s", strings.ToLower(string(decision))),
		Body:        body,
		Resource:    "assignment",
		ResourceID:  assignment.ID,
	})
	return submission, nil
}

// StudentAssignments lists published assignments of the caller's class by due date,
// each with the caller's submission when there is one.
func (s *AssignmentService) StudentAssignments(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.StudentAssignment, int, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent)
	if err != nil {
		return nil, 0, err
	}
	className := user.ClassNameValue()
	if className == "" {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "Student is not enrolled in any class")
	}
	class, err := s.classes.FindByName(ctx, className)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, appErrors.Clone(appErrors.ErrNotFound, "Class not found for student")
		}
		return nil, 0, storeError(err, "class", "load class")
	}
	page = page.Normalized()
	assignments, total, err := s.store.List(ctx, models.AssignmentFilter{
		ClassID: class.ID,
		Status:  models.AssignmentPublished,
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
	if err != nil {
		return nil, 0, storeError(err, "assignment", "list assignments")
	}
	ids := make([]string, len(assignments))
	for i := range assignments {
		ids[i] = assignments[i].ID
	}
	mine, err := s.store.SubmissionsByStudent(ctx, user.ID, ids)
	if err != nil {
		return nil, 0, storeError(err, "submission", "list submissions")
	}
	out := make([]models.StudentAssignment, 0, len(assignments))
	for _, a := range assignments {
		view := models.StudentAssignment{Assignment: a}
		if sub, ok := mine[a.ID]; ok {
			sub := sub
			view.Submission = &sub
		}
		out = append(out, view)
	}
	return out, total, nil
}

// Submit files or replaces the caller's submission. Approved work is final and closed
// assignments take no submissions.
func (s *AssignmentService) Submit(ctx context.Context, claims *models.JWTClaims, assignmentID string, req dto.SubmitAssignmentRequest) (*models.AssignmentSubmission, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	assignment, err := s.store.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, storeError(err, "assignment", "load assignment")
	}
	if err := s.requireEnrolled(ctx, assignment, user.ID); err != nil {
		return nil, err
	}
	if err := workflow.AcceptsSubmissions(assignment.Status); err != nil {
		return nil, err
	}
	fileURL := trimmedOrNil(req.FileURL)
	text := strings.TrimSpace(req.TextAnswer)

	existing, err := s.store.FindSubmission(ctx, assignment.ID, user.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if fileURL == nil && text == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Provide a file or a text answer")
		}
		name := user.Name
		submission := &models.AssignmentSubmission{
			AssignmentID: assignment.ID,
			StudentID:    user.ID,
			StudentName:  &name,
			FileURL:      fileURL,
			TextAnswer:   text,
			Status:       models.SubmissionPending,
		}
		if err := s.store.CreateSubmission(ctx, submission); err != nil {
			return nil, storeError(err, "submission", "create submission")
		}
		s.submitted(ctx, user, assignment, submission, "")
		return submission, nil
	case err != nil:
		return nil, storeError(err, "submission", "load submission")
	}

	if err := workflow.Resubmission(existing.Status); err != nil {
		s.effects.transition("assignment_submission", "resubmit", err)
		return nil, err
	}
	before := existing.Status
	expected := existing.Version
	if fileURL != nil {
		existing.FileURL = fileURL
	}
	if text != "" {
		existing.TextAnswer = text
	}
	existing.Status = models.SubmissionPending
	existing.FacultyRemark = ""
	existing.ReviewedBy = nil
	existing.SubmittedAt = s.now().UTC()
	if err := s.store.UpdateSubmission(ctx, existing, expected); err != nil {
		err = storeError(err, "submission", "resubmit")
		s.effects.transition("assignment_submission", "resubmit", err)
		return nil, err
	}
	s.submitted(ctx, user, assignment, existing, before)
	return existing, nil
}

func (s *AssignmentService) submitted(ctx context.Context, user *models.User, assignment *models.Assignment, submission *models.AssignmentSubmission, before models.SubmissionStatus) {
	var prior interface{}
	if before != "" {
		prior = map[string]interface{}{"status": before}
	}
	s.effects.committed(ctx, transitionRecord{
		entity:      "assignment_submission",
		verb:        "submit",
		auditAction: models.AuditActionAssignmentSubmit,
		actorID:     user.ID,
		resourceID:  submission.ID,
		before:      prior,
		after:       map[string]interface{}{"status": submission.Status, "assignmentId": assignment.ID},
	}, models.Notification{
		RecipientID: assignment.FacultyID,
		Subject:     fmt.Sprintf("Submission for %s", assignment.Title),
		Body:        fmt.Sprintf("%s submitted work for %s.", user.Name, assignment.Title),
		Resource:    "assignment",
		ResourceID:  assignment.ID,
	})
}

// Upcoming returns the next published deadlines of the caller's class from today on.
// Students without a class get an empty list.
func (s *AssignmentService) Upcoming(ctx context.Context, claims *models.JWTClaims) ([]models.Deadline, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	deadlines := make([]models.Deadline, 0, upcomingDeadlines)
	className := user.ClassNameValue()
	if className == "" {
		return deadlines, nil
	}
	class, err := s.classes.FindByName(ctx, className)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return deadlines, nil
		}
		return nil, storeError(err, "class", "load class")
	}
	today := models.NormalizeAttendanceDate(s.now())
	assignments, _, err := s.store.List(ctx, models.AssignmentFilter{
		ClassID: class.ID,
		Status:  models.AssignmentPublished,
		DueFrom: &today,
		Limit:   upcomingDeadlines,
	})
	if err != nil {
		return nil, storeError(err, "assignment", "list deadlines")
	}
	for _, a := range assignments {
		faculty := "Faculty"
		if a.FacultyName != nil && *a.FacultyName != "" {
			faculty = *a.FacultyName
		}
		deadlines = append(deadlines, models.Deadline{
			ID:        a.ID,
			Title:     a.Title,
			DueDate:   a.DueDate,
			Subject:   a.Subject,
			ClassName: className,
			Faculty:   faculty,
		})
	}
	return deadlines, nil
}

func (s *AssignmentService) requireEnrolled(ctx context.Context, assignment *models.Assignment, studentID string) error {
	denied := appErrors.Clone(appErrors.ErrForbidden, "You are not enrolled in the class for this assignment")
	class, err := s.classes.FindByID(ctx, assignment.ClassID)
	if err != nil {
		return denied
	}
	if !class.HasStudent(studentID) {
		return denied
	}
	return nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
