package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/response"
)

type complaintService interface {
	CreateByStudent(ctx context.Context, claims *models.JWTClaims, req dto.CreateComplaintRequest) (*models.Complaint, error)
	CreateByFaculty(ctx context.Context, claims *models.JWTClaims, req dto.CreateComplaintRequest) (*models.Complaint, error)
	FacultyAction(ctx context.Context, claims *models.JWTClaims, id string, req dto.ComplaintActionRequest) (*models.Complaint, error)
	AdminAction(ctx context.Context, claims *models.JWTClaims, id string, req dto.ComplaintActionRequest) (*models.Complaint, error)
	Mine(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Complaint, int, error)
	FacultyInbox(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Complaint, int, error)
	AdminResolvedForFaculty(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Complaint, int, error)
	AdminInbox(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Complaint, int, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Complaint, error)
}

// ComplaintHandler exposes the complaint workflow.
type ComplaintHandler struct {
	service complaintService
}

// NewComplaintHandler constructs a complaint handler.
func NewComplaintHandler(svc complaintService) *ComplaintHandler {
	return &ComplaintHandler{service: svc}
}

type complaintCreator func(context.Context, *models.JWTClaims, dto.CreateComplaintRequest) (*models.Complaint, error)

func (h *ComplaintHandler) create(c *gin.Context, create complaintCreator) {
	var req dto.CreateComplaintRequest
	if !bindJSON(c, &req) {
		return
	}
	complaint, err := create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Complaint created successfully", "complaint", complaint)
}

// CreateByStudent godoc
// @Summary Raise a complaint as a student
// @Description Routed to the class teacher, or the first subject teacher.
// @Tags Complaints
// @Accept json
// @Produce json
// @Param payload body dto.CreateComplaintRequest true "Complaint"
// @Success 201 {object} models.Complaint
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /complaints/student [post]
func (h *ComplaintHandler) CreateByStudent(c *gin.Context) {
	h.create(c, h.service.CreateByStudent)
}

// CreateByFaculty godoc
// @Summary Raise a complaint as faculty
// @Tags Complaints
// @Accept json
// @Produce json
// @Param payload body dto.CreateComplaintRequest true "Complaint"
// @Success 201 {object} models.Complaint
// @Security BearerAuth
// @Router /complaints/faculty [post]
func (h *ComplaintHandler) CreateByFaculty(c *gin.Context) {
	h.create(c, h.service.CreateByFaculty)
}

type complaintTransition func(context.Context, *models.JWTClaims, string, dto.ComplaintActionRequest) (*models.Complaint, error)

func (h *ComplaintHandler) transition(c *gin.Context, apply complaintTransition) {
	var req dto.ComplaintActionRequest
	if !bindJSON(c, &req) {
		return
	}
	complaint, err := apply(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Action performed successfully", "complaint", complaint)
}

// FacultyAction godoc
// @Summary Faculty complaint transition
// @Description actionType is one of resolve, reject, escalate, ack-admin-resolution.
// @Tags Complaints
// @Accept json
// @Produce json
// @Param id path string true "Complaint ID"
// @Param payload body dto.ComplaintActionRequest true "Action"
// @Success 200 {object} models.Complaint
// @Failure 403 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Security BearerAuth
// @Router /complaints/{id}/faculty-action [patch]
func (h *ComplaintHandler) FacultyAction(c *gin.Context) {
	h.transition(c, h.service.FacultyAction)
}

// AdminAction godoc
// @Summary Admin complaint transition
// @Description actionType is one of resolve, reject, comment.
// @Tags Complaints
// @Accept json
// @Produce json
// @Param id path string true "Complaint ID"
// @Param payload body dto.ComplaintActionRequest true "Action"
// @Success 200 {object} models.Complaint
// @Failure 403 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Security BearerAuth
// @Router /complaints/{id}/admin-action [patch]
func (h *ComplaintHandler) AdminAction(c *gin.Context) {
	h.transition(c, h.service.AdminAction)
}

type complaintLister func(context.Context, *models.JWTClaims, models.Page) ([]models.Complaint, int, error)

func (h *ComplaintHandler) list(c *gin.Context, list complaintLister) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	complaints, total, err := list(c.Request.Context(), claimsFromContext(c), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "complaints", complaints, total, pageMeta(c, page, total))
}

// Mine godoc
// @Summary Complaints raised by the caller
// @Tags Complaints
// @Produce json
// @Success 200 {array} models.Complaint
// @Security BearerAuth
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Router /complaints/mine [get]
func (h *ComplaintHandler) Mine(c *gin.Context) { h.list(c, h.service.Mine) }

// FacultyInbox godoc
// @Summary Complaints awaiting the calling faculty member
// @Tags Complaints
// @Produce json
// @Success 200 {array} models.Complaint
// @Security BearerAuth
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Router /complaints/faculty/inbox [get]
func (h *ComplaintHandler) FacultyInbox(c *gin.Context) { h.list(c, h.service.FacultyInbox) }

// AdminResolved godoc
// @Summary Admin-resolved complaints awaiting faculty acknowledgement
// @Tags Complaints
// @Produce json
// @Success 200 {array} models.Complaint
// @Security BearerAuth
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Router /complaints/faculty/admin-resolved [get]
func (h *ComplaintHandler) AdminResolved(c *gin.Context) {
	h.list(c, h.service.AdminResolvedForFaculty)
}

// AdminInbox godoc
// @Summary Complaints owned by admin
// @Tags Complaints
// @Produce json
// @Success 200 {array} models.Complaint
// @Security BearerAuth
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Router /complaints/admin/inbox [get]
func (h *ComplaintHandler) AdminInbox(c *gin.Context) { h.list(c, h.service.AdminInbox) }

// Get godoc
// @Summary Complaint detail with history
// @Tags Complaints
// @Produce json
// @Param id path string true "Complaint ID"
// @Success 200 {object} models.Complaint
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Security BearerAuth
// @Router /complaints/{id} [get]
func (h *ComplaintHandler) Get(c *gin.Context) {
	complaint, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Complaint fetched", "complaint", complaint)
}
