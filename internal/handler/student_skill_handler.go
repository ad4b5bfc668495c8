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

type studentSkillService interface {
	Submit(ctx context.Context, claims *models.JWTClaims, req dto.SubmitSkillRequest) (*models.StudentSkill, error)
	Mine(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.StudentSkill, int, error)
	ForReviewer(ctx context.Context, claims *models.JWTClaims, query dto.SkillQuery, page models.Page) ([]models.StudentSkill, int, error)
	Approve(ctx context.Context, claims *models.JWTClaims, id string, req dto.SkillDecisionRequest) (*models.StudentSkill, error)
	Reject(ctx context.Context, claims *models.JWTClaims, id string, req dto.SkillDecisionRequest) (*models.StudentSkill, error)
}

// StudentSkillHandler exposes skill validation.
type StudentSkillHandler struct {
	service studentSkillService
}

// NewStudentSkillHandler constructs a skill validation handler.
func NewStudentSkillHandler(svc studentSkillService) *StudentSkillHandler {
	return &StudentSkillHandler{service: svc}
}

// Submit godoc
// @Summary Submit a skill for validation
// @Tags Skills
// @Accept json
// @Produce json
// @Param payload body dto.SubmitSkillRequest true "Skill"
// @Success 201 {object} models.StudentSkill
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /skills [post]
func (h *StudentSkillHandler) Submit(c *gin.Context) {
	var req dto.SubmitSkillRequest
	if !bindJSON(c, &req) {
		return
	}
	skill, err := h.service.Submit(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Skill submitted successfully", "skill", skill)
}

// Mine godoc
// @Summary Skills of the calling student
// @Tags Skills
// @Produce json
// @Success 200 {array} models.StudentSkill
// @Security BearerAuth
// @Router /skills/mine [get]
func (h *StudentSkillHandler) Mine(c *gin.Context) {
	pagedList(c, "skills", h.service.Mine)
}

// Review godoc
// @Summary Skills of students in the caller's classes
// @Tags Skills
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Success 200 {array} models.StudentSkill
// @Security BearerAuth
// @Router /skills [get]
func (h *StudentSkillHandler) Review(c *gin.Context) {
	var query dto.SkillQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid query"))
		return
	}
	pagedList(c, "skills", func(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.StudentSkill, int, error) {
		return h.service.ForReviewer(ctx, claims, query, page)
	})
}

// Approve godoc
// @Summary Approve a skill
// @Tags Skills
// @Accept json
// @Produce json
// @Param id path string true "Skill ID"
// @Success 200 {object} models.StudentSkill
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /skills/{id}/approve [patch]
func (h *StudentSkillHandler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve, "Skill approved successfully")
}

// Reject godoc
// @Summary Reject a skill with remarks
// @Tags Skills
// @Accept json
// @Produce json
// @Param id path string true "Skill ID"
// @Param payload body dto.SkillDecisionRequest true "Remarks"
// @Success 200 {object} models.StudentSkill
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /skills/{id}/reject [patch]
func (h *StudentSkillHandler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject, "Skill rejected successfully")
}

type skillDecision func(context.Context, *models.JWTClaims, string, dto.SkillDecisionRequest) (*models.StudentSkill, error)

func (h *StudentSkillHandler) decide(c *gin.Context, decide skillDecision, message string) {
	var req dto.SkillDecisionRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	skill, err := decide(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, message, "skill", skill)
}
