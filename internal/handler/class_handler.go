package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/response"
)

type classService interface {
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateClassRequest) (*models.Class, error)
	AssignStudent(ctx context.Context, claims *models.JWTClaims, classID, studentID string) (*models.Class, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Class, error)
	ListMine(ctx context.Context, claims *models.JWTClaims) ([]models.Class, error)
}

// ClassHandler serves class setup for admins and the class list of a teacher.
type ClassHandler struct {
	service classService
}

func NewClassHandler(svc classService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// Create godoc
// @Summary Create class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassRequest true "Class payload"
// @Success 201 {object} models.Class
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req dto.CreateClassRequest
	if !bindJSON(c, &req) {
		return
	}
	class, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Class created successfully", "class", class)
}

// AssignStudent godoc
// @Summary Assign a student to a class
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.AssignStudentRequest true "Student"
// @Success 200 {object} models.Class
// @Security BearerAuth
// @Router /classes/{id}/students [post]
func (h *ClassHandler) AssignStudent(c *gin.Context) {
	var req dto.AssignStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	class, err := h.service.AssignStudent(c.Request.Context(), claimsFromContext(c), c.Param("id"), req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Student assigned to class successfully", "class", class)
}

// Get godoc
// @Summary Get class detail
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} models.Class
// @Security BearerAuth
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Class fetched", "class", class)
}

// Mine godoc
// @Summary Classes the caller teaches
// @Tags Classes
// @Produce json
// @Success 200 {array} models.Class
// @Security BearerAuth
// @Router /classes/mine [get]
func (h *ClassHandler) Mine(c *gin.Context) {
	classes, err := h.service.ListMine(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "classes", classes, len(classes))
}
