package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/response"
)

type userService interface {
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateUserRequest) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Get(ctx context.Context, id string) (*models.User, error)
}

// UserHandler exposes admin user management.
type UserHandler struct {
	service userService
}

func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// Create godoc
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.CreateUserRequest true "User payload"
// @Success 201 {object} models.User
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /admin/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "User created successfully", "user", user)
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param role query string false "Role filter"
// @Param className query string false "Class filter"
// @Param search query string false "Name or email"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.User
// @Security BearerAuth
// @Router /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{
		ClassName: strings.TrimSpace(c.Query("className")),
		Search:    strings.TrimSpace(c.Query("search")),
	}
	if raw := c.Query("role"); raw != "" {
		role, ok := models.ParseRole(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown role filter"))
			return
		}
		filter.Role = &role
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}

	users, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "users", users, total)
}

// Get godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} response.ErrorBody
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "User fetched", "user", user)
}
