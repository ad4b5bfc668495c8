package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/response"
)

type messageService interface {
	Send(ctx context.Context, claims *models.JWTClaims, req dto.SendMessageRequest) (*models.Message, error)
	Inbox(ctx context.Context, claims *models.JWTClaims) ([]models.MessageView, error)
	Sent(ctx context.Context, claims *models.JWTClaims) ([]models.MessageView, error)
	UnreadCount(ctx context.Context, claims *models.JWTClaims) (int64, error)
	MarkRead(ctx context.Context, claims *models.JWTClaims, id string) error
}

// MessageHandler exposes internal communication.
type MessageHandler struct {
	service messageService
}

// NewMessageHandler constructs a message handler.
func NewMessageHandler(svc messageService) *MessageHandler {
	return &MessageHandler{service: svc}
}

// Send godoc
// @Summary Send a message
// @Description mode selects the audience: role, class or user.
// @Tags Communication
// @Accept json
// @Produce json
// @Param payload body dto.SendMessageRequest true "Message"
// @Success 201 {object} models.Message
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /communication/send [post]
func (h *MessageHandler) Send(c *gin.Context) {
	var req dto.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	message, err := h.service.Send(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Message sent successfully", "data", message)
}

// Inbox godoc
// @Summary Messages addressed to the caller
// @Tags Communication
// @Produce json
// @Success 200 {array} models.MessageView
// @Security BearerAuth
// @Router /communication/inbox [get]
func (h *MessageHandler) Inbox(c *gin.Context) {
	messages, err := h.service.Inbox(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "messages", messages, len(messages))
}

// Sent godoc
// @Summary Messages sent by the caller
// @Tags Communication
// @Produce json
// @Success 200 {array} models.MessageView
// @Security BearerAuth
// @Router /communication/sent [get]
func (h *MessageHandler) Sent(c *gin.Context) {
	messages, err := h.service.Sent(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "messages", messages, len(messages))
}

// UnreadCount godoc
// @Summary Number of unread messages
// @Tags Communication
// @Produce json
// @Success 200 {object} map[string]int64
// @Security BearerAuth
// @Router /communication/unread-count [get]
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Unread count", "unread", count)
}

// MarkRead godoc
// @Summary Mark a message as read
// @Tags Communication
// @Param id path string true "Message ID"
// @Success 204
// @Failure 404 {object} response.ErrorBody
// @Security BearerAuth
// @Router /communication/{id}/read [patch]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkRead(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
