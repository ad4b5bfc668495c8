package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/response"
)

type assignmentService interface {
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateAssignmentRequest) (*models.Assignment, error)
	FacultyAssignments(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Assignment, int, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Assignment, error)
	Submissions(ctx context.Context, claims *models.JWTClaims, id string) (*models.Assignment, []models.AssignmentSubmission, error)
	Review(ctx context.Context, claims *models.JWTClaims, submissionID string, req dto.ReviewSubmissionRequest) (*models.AssignmentSubmission, error)
	StudentAssignments(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.StudentAssignment, int, error)
	Submit(ctx context.Context, claims *models.JWTClaims, assignmentID string, req dto.SubmitAssignmentRequest) (*models.AssignmentSubmission, error)
	Upcoming(ctx context.Context, claims *models.JWTClaims) ([]models.Deadline, error)
}

// AssignmentHandler exposes assignments and their submissions.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler constructs an assignment handler.
func NewAssignmentHandler(svc assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// Create godoc
// @Summary Set an assignment for a class
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssignmentRequest true "Assignment"
// @Success 201 {object} models.Assignment
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Assignment created", "assignment", assignment)
}

// Faculty godoc
// @Summary Assignments set by the caller with submission counts
// @Tags Assignments
// @Produce json
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.Assignment
// @Security BearerAuth
// @Router /assignments/faculty [get]
func (h *AssignmentHandler) Faculty(c *gin.Context) {
	pagedList(c, "assignments", h.service.FacultyAssignments)
}

// Student godoc
// @Summary Published assignments of the caller's class
// @Tags Assignments
// @Produce json
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.StudentAssignment
// @Security BearerAuth
// @Router /assignments/student [get]
func (h *AssignmentHandler) Student(c *gin.Context) {
	pagedList(c, "assignments", h.service.StudentAssignments)
}

// Upcoming godoc
// @Summary Next deadlines of the caller's class
// @Tags Assignments
// @Produce json
// @Success 200 {array} models.Deadline
// @Security BearerAuth
// @Router /assignments/upcoming [get]
func (h *AssignmentHandler) Upcoming(c *gin.Context) {
	deadlines, err := h.service.Upcoming(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "deadlines", deadlines, len(deadlines))
}

// Get godoc
// @Summary Assignment detail
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} models.Assignment
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Security BearerAuth
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	assignment, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Assignment fetched", "assignment", assignment)
}

// Submit godoc
// @Summary Submit or resubmit work for an assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.SubmitAssignmentRequest true "Submission"
// @Success 200 {object} models.AssignmentSubmission
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /assignments/{id}/submit [post]
func (h *AssignmentHandler) Submit(c *gin.Context) {
	var req dto.SubmitAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	submission, err := h.service.Submit(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Submission saved", "submission", submission)
}

// Submissions godoc
// @Summary Submissions for an assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {array} models.AssignmentSubmission
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /assignments/{id}/submissions [get]
func (h *AssignmentHandler) Submissions(c *gin.Context) {
	assignment, submissions, err := h.service.Submissions(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := withMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["assignment"] = gin.H{"id": assignment.ID, "title": assignment.Title, "subject": assignment.Subject, "dueDate": assignment.DueDate}
	response.List(c, "submissions", submissions, len(submissions), meta)
}

// Review godoc
// @Summary Approve, reject or return a submission for rework
// @Tags Assignments
// @Accept json
// @Produce json
// @Param submissionId path string true "Submission ID"
// @Param payload body dto.ReviewSubmissionRequest true "Decision"
// @Success 200 {object} models.AssignmentSubmission
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Security BearerAuth
// @Router /assignments/submissions/{submissionId}/status [patch]
func (h *AssignmentHandler) Review(c *gin.Context) {
	var req dto.ReviewSubmissionRequest
	if !bindJSON(c, &req) {
		return
	}
	submission, err := h.service.Review(c.Request.Context(), claimsFromContext(c), c.Param("submissionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Status updated", "submission", submission)
}
