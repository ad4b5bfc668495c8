package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/response"
)

type eventService interface {
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateEventRequest) (*models.Event, error)
	UpdateStatus(ctx context.Context, claims *models.JWTClaims, id string, req dto.EventStatusRequest) (*models.Event, error)
	ApprovedForStudents(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Event, int, error)
	MyProposals(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Event, int, error)
	FacultyRequests(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Event, int, error)
	AdminList(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.Event, int, error)
}

// EventHandler exposes event proposals and their approval workflow.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs an event handler.
func NewEventHandler(svc eventService) *EventHandler {
	return &EventHandler{service: svc}
}

// Create godoc
// @Summary Propose or publish an event
// @Description Admin events are born approved, faculty events go to admin, student events to faculty.
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.CreateEventRequest true "Event"
// @Success 201 {object} models.Event
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Event created successfully", "event", event)
}

// UpdateStatus godoc
// @Summary Event status transition
// @Description action is one of approved, rejected, forward.
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.EventStatusRequest true "Action"
// @Success 200 {object} models.Event
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /events/{id}/status [patch]
func (h *EventHandler) UpdateStatus(c *gin.Context) {
	var req dto.EventStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.service.UpdateStatus(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Event updated successfully", "event", event)
}

type eventLister func(context.Context, *models.JWTClaims, models.Page) ([]models.Event, int, error)

func (h *EventHandler) list(c *gin.Context, list eventLister) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	events, total, err := list(c.Request.Context(), claimsFromContext(c), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "events", events, total, pageMeta(c, page, total))
}

// Approved godoc
// @Summary Approved events, soonest first
// @Tags Events
// @Produce json
// @Success 200 {array} models.Event
// @Security BearerAuth
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Router /events/approved [get]
func (h *EventHandler) Approved(c *gin.Context) { h.list(c, h.service.ApprovedForStudents) }

// Mine godoc
// @Summary Events proposed by the caller
// @Tags Events
// @Produce json
// @Success 200 {array} models.Event
// @Security BearerAuth
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Router /events/mine [get]
func (h *EventHandler) Mine(c *gin.Context) { h.list(c, h.service.MyProposals) }

// FacultyRequests godoc
// @Summary Pending student proposals
// @Tags Events
// @Produce json
// @Success 200 {array} models.Event
// @Security BearerAuth
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Router /events/faculty/requests [get]
func (h *EventHandler) FacultyRequests(c *gin.Context) { h.list(c, h.service.FacultyRequests) }

// AdminList godoc
// @Summary Forwarded and admin events
// @Tags Events
// @Produce json
// @Success 200 {array} models.Event
// @Security BearerAuth
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Router /events/admin [get]
func (h *EventHandler) AdminList(c *gin.Context) { h.list(c, h.service.AdminList) }
