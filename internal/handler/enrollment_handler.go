package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, claims *models.JWTClaims, courseID string) (*models.SkillEnrollment, error)
	Unenroll(ctx context.Context, claims *models.JWTClaims, courseID string) error
	Mine(ctx context.Context, claims *models.JWTClaims) ([]models.SkillEnrollment, error)
	Progress(ctx context.Context, claims *models.JWTClaims, courseID string) (*dto.EnrollmentView, error)
	CompleteRound1(ctx context.Context, claims *models.JWTClaims, courseID string) (*models.SkillEnrollment, error)
	SubmitQuiz(ctx context.Context, claims *models.JWTClaims, courseID string, req dto.QuizSubmissionRequest) (*models.QuizResult, *models.SkillEnrollment, error)
	SubmitProject(ctx context.Context, claims *models.JWTClaims, courseID string, req dto.ProjectSubmissionRequest) (*models.SkillProjectSubmission, error)
	ReviewProject(ctx context.Context, claims *models.JWTClaims, courseID, submissionID string, req dto.ProjectReviewRequest) (*models.SkillProjectSubmission, error)
	ListCourseEnrollments(ctx context.Context, claims *models.JWTClaims, courseID string) ([]models.SkillEnrollment, error)
	ListSubmissions(ctx context.Context, claims *models.JWTClaims, courseID, status string) ([]models.SkillProjectSubmission, error)
}

// EnrollmentHandler exposes course progression for students and reviewers.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs an enrollment handler.
func NewEnrollmentHandler(svc enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Enroll godoc
// @Summary Enroll in a published course
// @Tags Enrollment
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 201 {object} models.SkillEnrollment
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /skill-courses/{courseId}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	enrollment, err := h.service.Enroll(c.Request.Context(), claimsFromContext(c), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Enrolled successfully", "enrollment", enrollment)
}

// Unenroll godoc
// @Summary Leave a course
// @Tags Enrollment
// @Param courseId path string true "Course ID"
// @Success 204
// @Security BearerAuth
// @Router /skill-courses/{courseId}/enroll [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	if err := h.service.Unenroll(c.Request.Context(), claimsFromContext(c), c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Mine godoc
// @Summary Enrollments of the caller
// @Tags Enrollment
// @Produce json
// @Success 200 {array} models.SkillEnrollment
// @Security BearerAuth
// @Router /skill-courses/enrollments/mine [get]
func (h *EnrollmentHandler) Mine(c *gin.Context) {
	enrollments, err := h.service.Mine(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "enrollments", enrollments, len(enrollments))
}

// Progress godoc
// @Summary Progress in a course
// @Tags Enrollment
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.EnrollmentView
// @Failure 404 {object} response.ErrorBody
// @Security BearerAuth
// @Router /skill-courses/{courseId}/progress [get]
func (h *EnrollmentHandler) Progress(c *gin.Context) {
	view, err := h.service.Progress(c.Request.Context(), claimsFromContext(c), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Progress fetched", "progress", view)
}

// CompleteRound1 godoc
// @Summary Mark the lesson round as completed
// @Tags Enrollment
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} models.SkillEnrollment
// @Security BearerAuth
// @Router /skill-courses/{courseId}/rounds/1/complete [post]
func (h *EnrollmentHandler) CompleteRound1(c *gin.Context) {
	enrollment, err := h.service.CompleteRound1(c.Request.Context(), claimsFromContext(c), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Round 1 completed", "enrollment", enrollment)
}

type quizOutcome struct {
	Result     *models.QuizResult      `json:"result"`
	Enrollment *models.SkillEnrollment `json:"enrollment"`
}

// SubmitQuiz godoc
// @Summary Submit a quiz round
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param payload body dto.QuizSubmissionRequest true "Answers"
// @Success 200 {object} models.QuizResult
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /skill-courses/{courseId}/quiz [post]
func (h *EnrollmentHandler) SubmitQuiz(c *gin.Context) {
	var req dto.QuizSubmissionRequest
	if !bindJSON(c, &req) {
		return
	}
	result, enrollment, err := h.service.SubmitQuiz(c.Request.Context(), claimsFromContext(c), c.Param("courseId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Quiz submitted", "quiz", quizOutcome{Result: result, Enrollment: enrollment})
}

// SubmitProject godoc
// @Summary Submit the round 3 project
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param payload body dto.ProjectSubmissionRequest true "Submission"
// @Success 201 {object} models.SkillProjectSubmission
// @Security BearerAuth
// @Router /skill-courses/{courseId}/project [post]
func (h *EnrollmentHandler) SubmitProject(c *gin.Context) {
	var req dto.ProjectSubmissionRequest
	if !bindJSON(c, &req) {
		return
	}
	submission, err := h.service.SubmitProject(c.Request.Context(), claimsFromContext(c), c.Param("courseId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Project submitted", "submission", submission)
}

// ReviewProject godoc
// @Summary Review a project submission
// @Description status is one of Approved, Rejected, Rework.
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param submissionId path string true "Submission ID"
// @Param payload body dto.ProjectReviewRequest true "Review"
// @Success 200 {object} models.SkillProjectSubmission
// @Failure 403 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Security BearerAuth
// @Router /skill-courses/{courseId}/submissions/{submissionId}/review [patch]
func (h *EnrollmentHandler) ReviewProject(c *gin.Context) {
	var req dto.ProjectReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	submission, err := h.service.ReviewProject(c.Request.Context(), claimsFromContext(c), c.Param("courseId"), c.Param("submissionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Status updated", "submission", submission)
}

// CourseEnrollments godoc
// @Summary Students enrolled in a course
// @Tags Enrollment
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {array} models.SkillEnrollment
// @Security BearerAuth
// @Router /skill-courses/{courseId}/enrollments [get]
func (h *EnrollmentHandler) CourseEnrollments(c *gin.Context) {
	enrollments, err := h.service.ListCourseEnrollments(c.Request.Context(), claimsFromContext(c), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "enrollments", enrollments, len(enrollments))
}

// Submissions godoc
// @Summary Project submissions of a course
// @Tags Enrollment
// @Produce json
// @Param courseId path string true "Course ID"
// @Param status query string false "Submission status"
// @Success 200 {array} models.SkillProjectSubmission
// @Security BearerAuth
// @Router /skill-courses/{courseId}/submissions [get]
func (h *EnrollmentHandler) Submissions(c *gin.Context) {
	submissions, err := h.service.ListSubmissions(c.Request.Context(), claimsFromContext(c), c.Param("courseId"), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "submissions", submissions, len(submissions))
}
