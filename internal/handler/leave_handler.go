package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/response"
)

type leaveService interface {
	Apply(ctx context.Context, claims *models.JWTClaims, req dto.ApplyLeaveRequest) (*models.LeaveRequest, error)
	Mine(ctx context.Context, claims *models.JWTClaims) ([]models.LeaveRequest, error)
	Pending(ctx context.Context, claims *models.JWTClaims) ([]models.LeaveRequest, error)
	Review(ctx context.Context, claims *models.JWTClaims, id string, req dto.ReviewLeaveRequest) (*models.LeaveRequest, error)
}

// LeaveHandler exposes student leave requests.
type LeaveHandler struct {
	service leaveService
}

// NewLeaveHandler constructs a leave handler.
func NewLeaveHandler(svc leaveService) *LeaveHandler {
	return &LeaveHandler{service: svc}
}

// Apply godoc
// @Summary Apply for leave
// @Tags Leaves
// @Accept json
// @Produce json
// @Param payload body dto.ApplyLeaveRequest true "Leave"
// @Success 201 {object} models.LeaveRequest
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /leaves [post]
func (h *LeaveHandler) Apply(c *gin.Context) {
	var req dto.ApplyLeaveRequest
	if !bindJSON(c, &req) {
		return
	}
	leave, err := h.service.Apply(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Leave request created successfully", "leave", leave)
}

// Mine godoc
// @Summary Leaves of the calling student
// @Tags Leaves
// @Produce json
// @Success 200 {array} models.LeaveRequest
// @Security BearerAuth
// @Router /leaves/mine [get]
func (h *LeaveHandler) Mine(c *gin.Context) {
	leaves, err := h.service.Mine(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "leaves", leaves, len(leaves))
}

// Pending godoc
// @Summary Pending leaves in classes the caller teaches
// @Tags Leaves
// @Produce json
// @Success 200 {array} models.LeaveRequest
// @Security BearerAuth
// @Router /leaves/pending [get]
func (h *LeaveHandler) Pending(c *gin.Context) {
	leaves, err := h.service.Pending(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "leaves", leaves, len(leaves))
}

// Review godoc
// @Summary Approve or reject a leave
// @Tags Leaves
// @Accept json
// @Produce json
// @Param id path string true "Leave ID"
// @Param payload body dto.ReviewLeaveRequest true "Decision"
// @Success 200 {object} models.LeaveRequest
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /leaves/{id}/status [patch]
func (h *LeaveHandler) Review(c *gin.Context) {
	var req dto.ReviewLeaveRequest
	if !bindJSON(c, &req) {
		return
	}
	leave, err := h.service.Review(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Status updated", "leave", leave)
}
