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
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type courseStore interface {
	Create(ctx context.Context, course *models.SkillCourse) error
	GetByID(ctx context.Context, id string) (*models.SkillCourse, error)
	List(ctx context.Context, status models.SkillCourseStatus, createdBy string) ([]models.SkillCourse, error)
	Update(ctx context.Context, course *models.SkillCourse) error
	Delete(ctx context.Context, id string) error
	UpsertRound(ctx context.Context, round *models.SkillRound) error
	ListRounds(ctx context.Context, courseID string) ([]models.SkillRound, error)
	GetRound(ctx context.Context, courseID string, number int) (*models.SkillRound, error)
}

type enrollmentLookup interface {
	GetByCourseAndStudent(ctx context.Context, courseID, studentID string) (*models.SkillEnrollment, error)
}

// SkillCourseService manages four-round skill courses.
type SkillCourseService struct {
	courses          courseStore
	enrollments      enrollmentLookup
	guard            *authz.Guard
	effects          WorkflowEffects
	defaultThreshold int
}

// NewSkillCourseService constructs a SkillCourseService. defaultThreshold applies to
// courses created without a pass threshold.
func NewSkillCourseService(courses courseStore, enrollments enrollmentLookup, guard *authz.Guard, effects WorkflowEffects, defaultThreshold int) *SkillCourseService {
	if defaultThreshold <= 0 || defaultThreshold > 100 {
		defaultThreshold = 60
	}
	return &SkillCourseService{
		courses:          courses,
		enrollments:      enrollments,
		guard:            guard,
		effects:          effects,
		defaultThreshold: defaultThreshold,
	}
}

// List returns published courses, or the caller's own courses when mine is set for
// faculty and admins.
func (s *SkillCourseService) List(ctx context.Context, claims *models.JWTClaims, mine bool) ([]models.SkillCourse, error) {
	if err := authz.RequireRole(claims, models.AllRoles()...); err != nil {
		return nil, err
	}
	var (
		courses []models.SkillCourse
		err     error
	)
	if mine && claims.Role.In(models.RoleFaculty, models.RoleAdmin) {
		courses, err = s.courses.List(ctx, "", claims.UserID)
	} else {
		courses, err = s.courses.List(ctx, models.SkillCoursePublished, "")
	}
	if err != nil {
		return nil, storeError(err, "course", "list courses")
	}
	return courses, nil
}

// Get returns a course with its rounds. Students only see published courses, never see
// quiz answers and get their own enrollment attached.
func (s *SkillCourseService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*dto.CourseDetail, error) {
	if err := authz.RequireRole(claims, models.AllRoles()...); err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "course", "load course")
	}
	if course.Status != models.SkillCoursePublished && !s.canManage(course, claims) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	rounds, err := s.visibleRounds(ctx, claims, course)
	if err != nil {
		return nil, err
	}

	detail := &dto.CourseDetail{Course: *course, Rounds: rounds}
	if claims.Role == models.RoleStudent {
		enrollment, err := s.enrollments.GetByCourseAndStudent(ctx, course.ID, claims.UserID)
		switch {
		case err == nil:
			detail.Enrollment = enrollment
		case !errors.Is(err, sql.ErrNoRows):
			return nil, storeError(err, "enrollment", "load enrollment")
		}
	}
	return detail, nil
}

// visibleRounds lists the rounds of course in order, hiding answers from anyone who cannot
// manage the course.
func (s *SkillCourseService) visibleRounds(ctx context.Context, claims *models.JWTClaims, course *models.SkillCourse) ([]models.SkillRound, error) {
	rounds, err := s.courses.ListRounds(ctx, course.ID)
	if err != nil {
		return nil, storeError(err, "round", "list rounds")
	}
	if !s.canManage(course, claims) {
		for i := range rounds {
			rounds[i] = rounds[i].WithoutAnswers()
		}
	}
	return rounds, nil
}

// Create adds a draft course owned by the caller.
func (s *SkillCourseService) Create(ctx context.Context, claims *models.JWTClaims, req dto.SkillCourseRequest) (*models.SkillCourse, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.ShortDesc) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title and short description are required")
	}
	threshold := s.defaultThreshold
	if req.PassThreshold != nil {
		threshold = *req.PassThreshold
	}
	if threshold < 0 || threshold > 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pass threshold must be between 0 and 100")
	}

	name := user.Name
	course := &models.SkillCourse{
		Title:         strings.TrimSpace(req.Title),
		ShortDesc:     strings.TrimSpace(req.ShortDesc),
		LongDesc:      req.LongDesc,
		Category:      req.Category,
		PassThreshold: threshold,
		CreatedBy:     user.ID,
		CreatorName:   &name,
		Status:        models.SkillCourseDraft,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, storeError(err, "course", "create course")
	}
	s.effects.audit(ctx, user.ID, models.AuditActionCourseChange, "skill_course", course.ID, nil, course)
	return course, nil
}

// Update edits a course. Only its creator or an admin may do so.
func (s *SkillCourseService) Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.SkillCourseRequest) (*models.SkillCourse, error) {
	course, err := s.managed(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	before := *course

	if title := strings.TrimSpace(req.Title); title != "" {
		course.Title = title
	}
	if short := strings.TrimSpace(req.ShortDesc); short != "" {
		course.ShortDesc = short
	}
	if req.LongDesc != "" {
		course.LongDesc = req.LongDesc
	}
	if req.Category != "" {
		course.Category = req.Category
	}
	if req.PassThreshold != nil {
		if *req.PassThreshold < 0 || *req.PassThreshold > 100 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "pass threshold must be between 0 and 100")
		}
		course.PassThreshold = *req.PassThreshold
	}
	switch req.Status {
	case "":
	case models.SkillCourseDraft:
		course.Status = models.SkillCourseDraft
	case models.SkillCoursePublished:
		if err := s.requireAllRounds(ctx, course.ID); err != nil {
			return nil, err
		}
		course.Status = models.SkillCoursePublished
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be Draft or Published")
	}

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, storeError(err, "course", "update course")
	}
	s.effects.audit(ctx, claims.UserID, models.AuditActionCourseChange, "skill_course", course.ID, before, course)
	s.effects.invalidateDashboards(ctx)
	return course, nil
}

// Publish makes a fully configured course visible to students.
func (s *SkillCourseService) Publish(ctx context.Context, claims *models.JWTClaims, id string) (*models.SkillCourse, error) {
	return s.Update(ctx, claims, id, dto.SkillCourseRequest{Status: models.SkillCoursePublished})
}

// Delete removes a course with its rounds, enrollments and submissions.
func (s *SkillCourseService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	course, err := s.managed(ctx, claims, id)
	if err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, course.ID); err != nil {
		return storeError(err, "course", "delete course")
	}
	s.effects.audit(ctx, claims.UserID, models.AuditActionCourseChange, "skill_course", course.ID, course, nil)
	s.effects.invalidateDashboards(ctx)
	return nil
}

// UpsertRound creates or replaces one round. Only the fields belonging to the round kind
// are kept.
func (s *SkillCourseService) UpsertRound(ctx context.Context, claims *models.JWTClaims, courseID string, req dto.SkillRoundRequest) (*models.SkillRound, error) {
	course, err := s.managed(ctx, claims, courseID)
	if err != nil {
		return nil, err
	}

	round := &models.SkillRound{CourseID: course.ID, RoundNumber: req.RoundNumber}
	switch req.RoundNumber {
	case models.RoundContent:
		round.LessonTitle = req.LessonTitle
		round.ContentType = req.ContentType
		if round.ContentType == "" {
			round.ContentType = "text"
		}
		round.VideoURL = req.VideoURL
		round.TextContent = req.TextContent
	case models.RoundQuiz, models.RoundFinalQuiz:
		if err := validateQuestions(req.Questions); err != nil {
			return nil, err
		}
		round.QuizTitle = req.QuizTitle
		round.Questions = req.Questions
	case models.RoundProject:
		round.ProjectTitle = req.ProjectTitle
		round.ProjectBrief = req.ProjectBrief
		round.ProjectRequirements = models.StringList(req.ProjectRequirements)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid round number")
	}

	if err := s.courses.UpsertRound(ctx, round); err != nil {
		return nil, storeError(err, "round", "save round")
	}
	s.effects.audit(ctx, claims.UserID, models.AuditActionCourseChange, "skill_round", round.ID, nil, map[string]interface{}{
		"courseId": course.ID, "roundNumber": round.RoundNumber,
	})
	return round, nil
}

func (s *SkillCourseService) managed(ctx context.Context, claims *models.JWTClaims, id string) (*models.SkillCourse, error) {
	if _, err := s.guard.Reverify(ctx, claims, models.RoleFaculty, models.RoleAdmin); err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "course", "load course")
	}
	if err := authz.RequireCreator(course.CreatedBy, claims, "course", true); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *SkillCourseService) canManage(course *models.SkillCourse, claims *models.JWTClaims) bool {
	if !claims.Role.In(models.RoleFaculty, models.RoleAdmin) {
		return false
	}
	return authz.RequireCreator(course.CreatedBy, claims, "course", true) == nil
}

func (s *SkillCourseService) requireAllRounds(ctx context.Context, courseID string) error {
	rounds, err := s.courses.ListRounds(ctx, courseID)
	if err != nil {
		return storeError(err, "round", "list rounds")
	}
	present := make(map[int]bool, len(rounds))
	for _, r := range rounds {
		present[r.RoundNumber] = true
	}
	for n := models.RoundContent; n <= models.RoundFinalQuiz; n++ {
		if !present[n] {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("round %d must be configured before publishing", n))
		}
	}
	return nil
}

func validateQuestions(questions models.QuizQuestions) error {
	if len(questions) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "a quiz needs at least one question")
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) < 2 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d needs text and at least two options", i+1))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d has no valid correct option", i+1))
		}
	}
	return nil
}
