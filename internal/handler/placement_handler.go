package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/response"
)

type placementService interface {
	CreateJob(ctx context.Context, claims *models.JWTClaims, req dto.JobRequest) (*models.Job, error)
	Jobs(ctx context.Context, claims *models.JWTClaims, query dto.JobQuery, page models.Page) ([]models.Job, int, error)
	Job(ctx context.Context, claims *models.JWTClaims, id string) (*models.Job, error)
	UpdateJob(ctx context.Context, claims *models.JWTClaims, id string, req dto.JobRequest) (*models.Job, error)
	DeleteJob(ctx context.Context, claims *models.JWTClaims, id string) error
	Apply(ctx context.Context, claims *models.JWTClaims, jobID string, req dto.ApplyJobRequest) (*models.JobApplication, error)
	Applications(ctx context.Context, claims *models.JWTClaims, query dto.ApplicationQuery, page models.Page) ([]models.JobApplication, int, error)
	Interviews(ctx context.Context, claims *models.JWTClaims, query dto.ApplicationQuery, page models.Page) ([]models.Interview, int, error)
	Offers(ctx context.Context, claims *models.JWTClaims, query dto.ApplicationQuery, page models.Page) ([]models.Offer, int, error)
	UpdateApplicationStatus(ctx context.Context, claims *models.JWTClaims, id string, req dto.ApplicationStatusRequest) (*models.JobApplication, error)
	ScheduleInterview(ctx context.Context, claims *models.JWTClaims, applicationID string, req dto.ScheduleInterviewRequest) (*models.Interview, error)
	SendOffer(ctx context.Context, claims *models.JWTClaims, applicationID string, req dto.SendOfferRequest) (*models.Offer, error)
}

// PlacementHandler exposes jobs and the application pipeline.
type PlacementHandler struct {
	service placementService
}

// NewPlacementHandler constructs a placement handler.
func NewPlacementHandler(svc placementService) *PlacementHandler {
	return &PlacementHandler{service: svc}
}

// CreateJob godoc
// @Summary Post a job
// @Tags Placements
// @Accept json
// @Produce json
// @Param payload body dto.JobRequest true "Job"
// @Success 201 {object} models.Job
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /placements/jobs [post]
func (h *PlacementHandler) CreateJob(c *gin.Context) {
	var req dto.JobRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Job created successfully", "job", job)
}

// Jobs godoc
// @Summary List jobs
// @Tags Placements
// @Produce json
// @Param status query string false "Active, Draft, Screening or Closed (staff only)"
// @Param mine query bool false "Only jobs posted by the caller"
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.Job
// @Security BearerAuth
// @Router /placements/jobs [get]
func (h *PlacementHandler) Jobs(c *gin.Context) {
	var query dto.JobQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid query"))
		return
	}
	pagedList(c, "jobs", func(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Job, int, error) {
		return h.service.Jobs(ctx, claims, query, page)
	})
}

// Job godoc
// @Summary Job detail
// @Tags Placements
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.Job
// @Failure 404 {object} response.ErrorBody
// @Security BearerAuth
// @Router /placements/jobs/{id} [get]
func (h *PlacementHandler) Job(c *gin.Context) {
	job, err := h.service.Job(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Job fetched", "job", job)
}

// UpdateJob godoc
// @Summary Edit a job
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param payload body dto.JobRequest true "Changed fields and version"
// @Success 200 {object} models.Job
// @Failure 403 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Security BearerAuth
// @Router /placements/jobs/{id} [put]
func (h *PlacementHandler) UpdateJob(c *gin.Context) {
	var req dto.JobRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.service.UpdateJob(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Job updated successfully", "job", job)
}

// DeleteJob godoc
// @Summary Delete a job with its applications
// @Tags Placements
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /placements/jobs/{id} [delete]
func (h *PlacementHandler) DeleteJob(c *gin.Context) {
	if err := h.service.DeleteJob(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Job deleted successfully")
}

// Apply godoc
// @Summary Apply to a job
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param payload body dto.ApplyJobRequest true "Resume"
// @Success 201 {object} models.JobApplication
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /placements/jobs/{id}/apply [post]
func (h *PlacementHandler) Apply(c *gin.Context) {
	var req dto.ApplyJobRequest
	if !bindJSON(c, &req) {
		return
	}
	application, err := h.service.Apply(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Application submitted successfully", "application", application)
}

// Applications godoc
// @Summary Applications visible to the caller
// @Tags Placements
// @Produce json
// @Param jobId query string false "Job ID"
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.JobApplication
// @Security BearerAuth
// @Router /placements/applications [get]
func (h *PlacementHandler) Applications(c *gin.Context) {
	scopedPipelineList(c, "applications", h.service.Applications)
}

// Interviews godoc
// @Summary Interviews visible to the caller
// @Tags Placements
// @Produce json
// @Param jobId query string false "Job ID"
// @Success 200 {array} models.Interview
// @Security BearerAuth
// @Router /placements/interviews [get]
func (h *PlacementHandler) Interviews(c *gin.Context) {
	scopedPipelineList(c, "interviews", h.service.Interviews)
}

// Offers godoc
// @Summary Offers visible to the caller
// @Tags Placements
// @Produce json
// @Param jobId query string false "Job ID"
// @Success 200 {array} models.Offer
// @Security BearerAuth
// @Router /placements/offers [get]
func (h *PlacementHandler) Offers(c *gin.Context) {
	scopedPipelineList(c, "offers", h.service.Offers)
}

// UpdateApplicationStatus godoc
// @Summary Move an application to another stage
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ApplicationStatusRequest true "Stage"
// @Success 200 {object} models.JobApplication
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Security BearerAuth
// @Router /placements/applications/{id}/status [patch]
func (h *PlacementHandler) UpdateApplicationStatus(c *gin.Context) {
	var req dto.ApplicationStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	application, err := h.service.UpdateApplicationStatus(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Application status updated", "application", application)
}

// ScheduleInterview godoc
// @Summary Schedule an interview round
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ScheduleInterviewRequest true "Interview"
// @Success 201 {object} models.Interview
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /placements/applications/{id}/interviews [post]
func (h *PlacementHandler) ScheduleInterview(c *gin.Context) {
	var req dto.ScheduleInterviewRequest
	if !bindJSON(c, &req) {
		return
	}
	interview, err := h.service.ScheduleInterview(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Interview scheduled successfully", "interview", interview)
}

// SendOffer godoc
// @Summary Extend an offer
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.SendOfferRequest true "Offer"
// @Success 201 {object} models.Offer
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /placements/applications/{id}/offers [post]
func (h *PlacementHandler) SendOffer(c *gin.Context) {
	var req dto.SendOfferRequest
	if !bindJSON(c, &req) {
		return
	}
	offer, err := h.service.SendOffer(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Offer sent successfully", "offer", offer)
}

func scopedPipelineList[T any](c *gin.Context, key string, list func(context.Context, *models.JWTClaims, dto.ApplicationQuery, models.Page) ([]T, int, error)) {
	var query dto.ApplicationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid query"))
		return
	}
	pagedList(c, key, func(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]T, int, error) {
		return list(ctx, claims, query, page)
	})
}
