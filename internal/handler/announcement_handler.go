package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/response"
)

type announcementService interface {
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateAnnouncementRequest) (*models.Announcement, error)
	ListAll(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Announcement, int, error)
	ForStudent(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Announcement, int, error)
	ForFaculty(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Announcement, int, error)
	Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateAnnouncementRequest) (*models.Announcement, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
}

// AnnouncementHandler exposes announcements.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs an announcement handler.
func NewAnnouncementHandler(svc announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc}
}

// Create godoc
// @Summary Publish an announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body dto.CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} models.Announcement
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req dto.CreateAnnouncementRequest
	if !bindJSON(c, &req) {
		return
	}
	announcement, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Announcement created successfully", "announcement", announcement)
}

// All godoc
// @Summary Every unexpired announcement
// @Tags Announcements
// @Produce json
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.Announcement
// @Security BearerAuth
// @Router /announcements/all [get]
func (h *AnnouncementHandler) All(c *gin.Context) {
	pagedList(c, "announcements", h.service.ListAll)
}

// Student godoc
// @Summary Announcements visible to the calling student
// @Tags Announcements
// @Produce json
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.Announcement
// @Security BearerAuth
// @Router /announcements/student [get]
func (h *AnnouncementHandler) Student(c *gin.Context) {
	pagedList(c, "announcements", h.service.ForStudent)
}

// Faculty godoc
// @Summary Announcements created by the caller
// @Tags Announcements
// @Produce json
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.Announcement
// @Security BearerAuth
// @Router /announcements/faculty [get]
func (h *AnnouncementHandler) Faculty(c *gin.Context) {
	pagedList(c, "announcements", h.service.ForFaculty)
}

// Update godoc
// @Summary Edit an announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body dto.UpdateAnnouncementRequest true "Fields to change"
// @Success 200 {object} models.Announcement
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Security BearerAuth
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	var req dto.UpdateAnnouncementRequest
	if !bindJSON(c, &req) {
		return
	}
	announcement, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Announcement updated successfully", "announcement", announcement)
}

// Delete godoc
// @Summary Remove an announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Announcement deleted successfully")
}
