package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error)
	Logout(ctx context.Context, refreshToken string, userID string, meta models.LoginRequest) error
	ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error
}

type userReader interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// AuthHandler serves the session endpoints. Login and refresh are public; the rest
// sit behind the JWT middleware.
type AuthHandler struct {
	service authService
	users   userReader
}

func NewAuthHandler(svc authService, users userReader) *AuthHandler {
	return &AuthHandler{service: svc, users: users}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid login payload"))
		return
	}
	req.IP, req.UserAgent = clientOrigin(c)

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Login successful", "session", res)
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchange refresh token for new access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RefreshTokenRequest true "Refresh payload"
// @Success 200 {object} models.RefreshTokenResponse
// @Failure 401 {object} response.ErrorBody
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid refresh payload"))
		return
	}
	req.IP, req.UserAgent = clientOrigin(c)

	res, err := h.service.RefreshToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Token refreshed", "session", res)
}

// Logout godoc
// @Summary Logout current session
// @Tags Authentication
// @Accept json
// @Param payload body models.RefreshTokenRequest true "Refresh token"
// @Success 204
// @Failure 401 {object} response.ErrorBody
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	var payload models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&payload); err != nil || strings.TrimSpace(payload.RefreshToken) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "refresh token required"))
		return
	}

	var origin models.LoginRequest
	origin.IP, origin.UserAgent = clientOrigin(c)
	if err := h.service.Logout(c.Request.Context(), strings.TrimSpace(payload.RefreshToken), claims.UserID, origin); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ChangePassword godoc
// @Summary Change password
// @Tags Authentication
// @Accept json
// @Param payload body models.ChangePasswordRequest true "Change password"
// @Success 204
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Get current user
// @Tags Authentication
// @Produce json
// @Success 200 {object} models.UserInfo
// @Failure 401 {object} response.ErrorBody
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := requireCaller(c)
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	info := models.UserInfo{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role, ClassName: user.ClassNameValue()}
	response.Entity(c, http.StatusOK, "Current user", "user", info)
}

// clientOrigin returns the caller address and user agent recorded on sessions.
func clientOrigin(c *gin.Context) (ip, userAgent string) {
	return c.ClientIP(), c.Request.UserAgent()
}

// requireCaller writes a 401 when the JWT middleware did not attach claims.
func requireCaller(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}
