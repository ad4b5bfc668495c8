package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	"github.com/noah-isme/campus-api/internal/workflow"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type enrollmentStore interface {
	Create(ctx context.Context, enrollment *models.SkillEnrollment) error
	GetByCourseAndStudent(ctx context.Context, courseID, studentID string) (*models.SkillEnrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.SkillEnrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.SkillEnrollment, error)
	UpdateProgress(ctx context.Context, enrollment *models.SkillEnrollment, expectedVersion int) error
	Delete(ctx context.Context, courseID, studentID string) error
	ReplaceSubmission(ctx context.Context, submission *models.SkillProjectSubmission) error
	GetSubmission(ctx context.Context, courseID, submissionID string) (*models.SkillProjectSubmission, error)
	ListSubmissions(ctx context.Context, courseID string, status models.ProjectStatus) ([]models.SkillProjectSubmission, error)
	ReviewSubmission(ctx context.Context, submission *models.SkillProjectSubmission, submissionVersion int, enrollment *models.SkillEnrollment, enrollmentVersion int) error
}

type courseReader interface {
	GetByID(ctx context.Context, id string) (*models.SkillCourse, error)
	GetRound(ctx context.Context, courseID string, number int) (*models.SkillRound, error)
}

// EnrollmentService drives a student through the four rounds of a skill course.
type EnrollmentService struct {
	store     enrollmentStore
	courses   courseReader
	guard     *authz.Guard
	validator *validator.Validate
	effects   WorkflowEffects
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(store enrollmentStore, courses courseReader, guard *authz.Guard, validate *validator.Validate, effects WorkflowEffects) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{store: store, courses: courses, guard: guard, validator: validate, effects: effects}
}

// Enroll registers the calling student in a published course.
func (s *EnrollmentService) Enroll(ctx context.Context, claims *models.JWTClaims, courseID string) (*models.SkillEnrollment, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, storeError(err, "course", "load course")
	}
	if course.Status != models.SkillCoursePublished {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course is not published")
	}

	enrollment := &models.SkillEnrollment{CourseID: course.ID, StudentID: user.ID}
	if err := s.store.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled")
		}
		return nil, storeError(err, "enrollment", "enroll")
	}
	title := course.Title
	enrollment.CourseTitle = &title

	s.effects.audit(ctx, user.ID, models.AuditActionEnrollment, "skill_enrollment", enrollment.ID, nil, map[string]string{"courseId": course.ID, "change": "enroll"})
	s.effects.invalidateDashboards(ctx)
	return enrollment, nil
}

// Unenroll removes the caller's enrollment together with project submissions.
func (s *EnrollmentService) Unenroll(ctx context.Context, claims *models.JWTClaims, courseID string) error {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, courseID, user.ID); err != nil {
		return enrollmentError(err)
	}
	s.effects.audit(ctx, user.ID, models.AuditActionEnrollment, "skill_enrollment", courseID, nil, map[string]string{"courseId": courseID, "change": "unenroll"})
	s.effects.invalidateDashboards(ctx)
	return nil
}

// Mine lists the caller's enrollments.
func (s *EnrollmentService) Mine(ctx context.Context, claims *models.JWTClaims) ([]models.SkillEnrollment, error) {
	if err := authz.RequireRole(claims, models.RoleStudent); err != nil {
		return nil, err
	}
	items, err := s.store.ListByStudent(ctx, claims.UserID)
	if err != nil {
		return nil, storeError(err, "enrollment", "list enrollments")
	}
	return items, nil
}

// Progress returns the caller's enrollment in a course with the latest project
// submission.
func (s *EnrollmentService) Progress(ctx context.Context, claims *models.JWTClaims, courseID string) (*dto.EnrollmentView, error) {
	if err := authz.RequireRole(claims, models.RoleStudent); err != nil {
		return nil, err
	}
	enrollment, err := s.store.GetByCourseAndStudent(ctx, courseID, claims.UserID)
	if err != nil {
		return nil, enrollmentError(err)
	}
	view := &dto.EnrollmentView{Enrollment: *enrollment}

	submissions, err := s.store.ListSubmissions(ctx, courseID, "")
	if err != nil {
		return nil, storeError(err, "submission", "list submissions")
	}
	for i := range submissions {
		if submissions[i].StudentID == claims.UserID {
			view.Submission = &submissions[i]
			break
		}
	}
	return view, nil
}

// CompleteRound1 marks the content round as done.
func (s *EnrollmentService) CompleteRound1(ctx context.Context, claims *models.JWTClaims, courseID string) (*models.SkillEnrollment, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.store.GetByCourseAndStudent(ctx, courseID, user.ID)
	if err != nil {
		return nil, enrollmentError(err)
	}
	if enrollment.Round1Completed {
		return enrollment, nil
	}

	expected := enrollment.Version
	enrollment.EnrollmentProgress = workflow.CompleteContentRound(enrollment.EnrollmentProgress)
	if err := s.store.UpdateProgress(ctx, enrollment, expected); err != nil {
		err = storeError(err, "enrollment", "update progress")
		s.effects.transition("enrollment", "complete_round1", err)
		return nil, err
	}
	s.effects.committed(ctx, transitionRecord{
		entity:      "enrollment",
		verb:        "complete_round1",
		auditAction: models.AuditActionEnrollmentProgress,
		actorID:     user.ID,
		resourceID:  enrollment.ID,
		after:       enrollment.EnrollmentProgress,
	})
	return enrollment, nil
}

// SubmitQuiz grades an attempt at round 2 or 4 and records the score. Passing sets the
// round flag; passing round 4 completes the course.
func (s *EnrollmentService) SubmitQuiz(ctx context.Context, claims *models.JWTClaims, courseID string, req dto.QuizSubmissionRequest) (*models.QuizResult, *models.SkillEnrollment, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent)
	if err != nil {
		return nil, nil, err
	}
	if err := validationError(s.validator, req, "roundNumber must be 2 or 4"); err != nil {
		return nil, nil, err
	}
	enrollment, err := s.store.GetByCourseAndStudent(ctx, courseID, user.ID)
	if err != nil {
		return nil, nil, enrollmentError(err)
	}
	if err := workflow.RequireQuizUnlocked(enrollment.EnrollmentProgress, req.RoundNumber); err != nil {
		s.effects.transition("enrollment", "quiz", err)
		return nil, nil, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, nil, storeError(err, "course", "load course")
	}
	round, err := s.courses.GetRound(ctx, courseID, req.RoundNumber)
	if err != nil {
		return nil, nil, storeError(err, "quiz", "load quiz")
	}
	score, err := workflow.ScoreQuiz(round.Questions, req.Answers)
	if err != nil {
		return nil, nil, err
	}

	expected := enrollment.Version
	updated, passed := workflow.ApplyQuizResult(*enrollment, req.RoundNumber, score.Score, course.PassThreshold)
	updated.CertificateIssued = updated.Completed
	if err := s.store.UpdateProgress(ctx, &updated, expected); err != nil {
		err = storeError(err, "enrollment", "update progress")
		s.effects.transition("enrollment", "quiz", err)
		return nil, nil, err
	}

	result := &models.QuizResult{
		Round:     req.RoundNumber,
		Correct:   score.Correct,
		Total:     score.Total,
		Score:     score.Score,
		Threshold: course.PassThreshold,
		Passed:    passed,
	}
	var notes []models.Notification
	if updated.Completed && !enrollment.Completed {
		notes = append(notes, models.Notification{
			RecipientID: user.ID,
			Subject:     fmt.Sprintf("Course completed: %s", course.Title),
			Body:        fmt.Sprintf("You passed the final quiz with %d%%. Your certificate is ready.", score.Score),
			Resource:    "skill_course",
			ResourceID:  course.ID,
		})
	}
	s.effects.committed(ctx, transitionRecord{
		entity:      "enrollment",
		verb:        fmt.Sprintf("quiz_round%d", req.RoundNumber),
		auditAction: models.AuditActionEnrollmentProgress,
		actorID:     user.ID,
		resourceID:  updated.ID,
		before:      enrollment.EnrollmentProgress,
		after:       result,
	}, notes...)
	return result, &updated, nil
}

// SubmitProject stores the round 3 deliverable, replacing any earlier submission.
func (s *EnrollmentService) SubmitProject(ctx context.Context, claims *models.JWTClaims, courseID string, req dto.ProjectSubmissionRequest) (*models.SkillProjectSubmission, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.FileURL) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "project file is required")
	}
	enrollment, err := s.store.GetByCourseAndStudent(ctx, courseID, user.ID)
	if err != nil {
		return nil, enrollmentError(err)
	}
	if err := workflow.RequireProjectUnlocked(enrollment.EnrollmentProgress); err != nil {
		s.effects.transition("enrollment", "submit_project", err)
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, storeError(err, "course", "load course")
	}

	name := user.Name
	submission := &models.SkillProjectSubmission{
		CourseID:     courseID,
		EnrollmentID: enrollment.ID,
		StudentID:    user.ID,
		StudentName:  &name,
		FileURL:      strings.TrimSpace(req.FileURL),
		FileName:     req.FileName,
		Description:  req.Description,
		Status:       models.ProjectPending,
	}
	if err := s.store.ReplaceSubmission(ctx, submission); err != nil {
		return nil, storeError(err, "submission", "save submission")
	}
	s.effects.committed(ctx, transitionRecord{
		entity:      "enrollment",
		verb:        "submit_project",
		auditAction: models.AuditActionEnrollmentProgress,
		actorID:     user.ID,
		resourceID:  submission.ID,
		after:       submission,
	}, models.Notification{
		RecipientID: course.CreatedBy,
		Subject:     fmt.Sprintf("New project submission for %s", course.Title),
		Body:        fmt.Sprintf("%s submitted %s for review.", user.Name, submission.FileName),
		Resource:    "skill_submission",
		ResourceID:  submission.ID,
	})
	return submission, nil
}

// ReviewProject records the creator's or an admin's decision on a pending submission.
// Approval unlocks the final quiz.
func (s *EnrollmentService) ReviewProject(ctx context.Context, claims *models.JWTClaims, courseID, submissionID string, req dto.ProjectReviewRequest) (*models.SkillProjectSubmission, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	decision, err := workflow.ParseProjectReview(req.Status)
	if err != nil {
		return nil, err
	}
	course, err := s.ownedCourse(ctx, claims, courseID)
	if err != nil {
		return nil, err
	}
	submission, err := s.store.GetSubmission(ctx, course.ID, submissionID)
	if err != nil {
		return nil, storeError(err, "submission", "load submission")
	}
	enrollment, err := s.store.GetByCourseAndStudent(ctx, course.ID, submission.StudentID)
	if err != nil {
		return nil, enrollmentError(err)
	}

	progress, err := workflow.ApplyProjectReview(submission.Status, enrollment.EnrollmentProgress, decision)
	if err != nil {
		s.effects.transition("submission", strings.ToLower(string(decision)), err)
		return nil, err
	}

	before := submission.Status
	subVersion, enrVersion := submission.Version, enrollment.Version
	submission.Status = decision
	submission.Feedback = req.Feedback
	reviewer := user.ID
	submission.ReviewedBy = &reviewer
	enrollment.EnrollmentProgress = progress
	if err := s.store.ReviewSubmission(ctx, submission, subVersion, enrollment, enrVersion); err != nil {
		err = storeError(err, "submission", "review submission")
		s.effects.transition("submission", strings.ToLower(string(decision)), err)
		return nil, err
	}

	s.effects.committed(ctx, transitionRecord{
		entity:      "submission",
		verb:        strings.ToLower(string(decision)),
		auditAction: models.AuditActionProjectReview,
		actorID:     user.ID,
		resourceID:  submission.ID,
		before:      map[string]interface{}{"status": before},
		after:       map[string]interface{}{"status": submission.Status, "feedback": submission.Feedback},
	}, models.Notification{
		RecipientID: submission.StudentID,
		Subject:     fmt.Sprintf("Project %s: %s", strings.ToLower(string(decision)), course.Title),
		Body:        req.Feedback,
		Resource:    "skill_submission",
		ResourceID:  submission.ID,
	})
	return submission, nil
}

// ListCourseEnrollments lists every enrollment of a course for its creator or an admin.
func (s *EnrollmentService) ListCourseEnrollments(ctx context.Context, claims *models.JWTClaims, courseID string) ([]models.SkillEnrollment, error) {
	if _, err := s.guard.Reverify(ctx, claims, models.RoleFaculty, models.RoleAdmin); err != nil {
		return nil, err
	}
	course, err := s.ownedCourse(ctx, claims, courseID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, storeError(err, "enrollment", "list enrollments")
	}
	return items, nil
}

// ListSubmissions lists project submissions of a course, optionally by status.
func (s *EnrollmentService) ListSubmissions(ctx context.Context, claims *models.JWTClaims, courseID, status string) ([]models.SkillProjectSubmission, error) {
	if _, err := s.guard.Reverify(ctx, claims, models.RoleFaculty, models.RoleAdmin); err != nil {
		return nil, err
	}
	course, err := s.ownedCourse(ctx, claims, courseID)
	if err != nil {
		return nil, err
	}
	filter := models.ProjectStatus(status)
	switch filter {
	case "", models.ProjectPending, models.ProjectApproved, models.ProjectRejected, models.ProjectRework:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown submission status")
	}
	items, err := s.store.ListSubmissions(ctx, course.ID, filter)
	if err != nil {
		return nil, storeError(err, "submission", "list submissions")
	}
	return items, nil
}

func (s *EnrollmentService) ownedCourse(ctx context.Context, claims *models.JWTClaims, courseID string) (*models.SkillCourse, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, storeError(err, "course", "load course")
	}
	if err := authz.RequireCreator(course.CreatedBy, claims, "course", true); err != nil {
		return nil, err
	}
	return course, nil
}

func enrollmentError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "not enrolled")
	}
	return storeError(err, "enrollment", "load enrollment")
}
