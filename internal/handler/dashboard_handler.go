package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/middleware"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/response"
)

type dashboardService interface {
	Student(ctx context.Context, claims *models.JWTClaims) (*models.StudentDashboard, bool, error)
	Faculty(ctx context.Context, claims *models.JWTClaims) (*models.FacultyDashboard, bool, error)
	Admin(ctx context.Context, claims *models.JWTClaims) (*models.AdminDashboard, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func respondDashboard[T any](c *gin.Context, load func(context.Context, *models.JWTClaims) (*T, bool, error)) {
	summary, cacheHit, err := load(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.Entity(c, http.StatusOK, "Dashboard", "dashboard", summary, withMeta(c))
}

// Student godoc
// @Summary Student dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} models.StudentDashboard
// @Header 200 {string} X-Cache "HIT or MISS"
// @Security BearerAuth
// @Router /dashboard/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	respondDashboard(c, h.service.Student)
}

// Faculty godoc
// @Summary Faculty dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} models.FacultyDashboard
// @Header 200 {string} X-Cache "HIT or MISS"
// @Security BearerAuth
// @Router /dashboard/faculty [get]
func (h *DashboardHandler) Faculty(c *gin.Context) {
	respondDashboard(c, h.service.Faculty)
}

// Admin godoc
// @Summary Admin dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} models.AdminDashboard
// @Header 200 {string} X-Cache "HIT or MISS"
// @Security BearerAuth
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	respondDashboard(c, h.service.Admin)
}
