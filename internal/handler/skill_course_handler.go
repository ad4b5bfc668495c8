package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/response"
)

type skillCourseService interface {
	List(ctx context.Context, claims *models.JWTClaims, mine bool) ([]models.SkillCourse, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*dto.CourseDetail, error)
	Create(ctx context.Context, claims *models.JWTClaims, req dto.SkillCourseRequest) (*models.SkillCourse, error)
	Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.SkillCourseRequest) (*models.SkillCourse, error)
	Publish(ctx context.Context, claims *models.JWTClaims, id string) (*models.SkillCourse, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
	UpsertRound(ctx context.Context, claims *models.JWTClaims, courseID string, req dto.SkillRoundRequest) (*models.SkillRound, error)
}

// SkillCourseHandler exposes course authoring.
type SkillCourseHandler struct {
	service skillCourseService
}

// NewSkillCourseHandler constructs a course handler.
func NewSkillCourseHandler(svc skillCourseService) *SkillCourseHandler {
	return &SkillCourseHandler{service: svc}
}

// List godoc
// @Summary List skill courses
// @Description Students see published courses. Pass mine=true to list courses created by the caller.
// @Tags SkillCourses
// @Produce json
// @Param mine query bool false "Only my courses"
// @Success 200 {array} models.SkillCourse
// @Security BearerAuth
// @Router /skill-courses [get]
func (h *SkillCourseHandler) List(c *gin.Context) {
	courses, err := h.service.List(c.Request.Context(), claimsFromContext(c), c.Query("mine") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "courses", courses, len(courses))
}

// Get godoc
// @Summary Course detail with rounds
// @Tags SkillCourses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.CourseDetail
// @Failure 404 {object} response.ErrorBody
// @Security BearerAuth
// @Router /skill-courses/{courseId} [get]
func (h *SkillCourseHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Course fetched", "course", detail)
}

// Create godoc
// @Summary Create a draft course
// @Tags SkillCourses
// @Accept json
// @Produce json
// @Param payload body dto.SkillCourseRequest true "Course"
// @Success 201 {object} models.SkillCourse
// @Security BearerAuth
// @Router /skill-courses [post]
func (h *SkillCourseHandler) Create(c *gin.Context) {
	var req dto.SkillCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Course created successfully", "course", course)
}

// Update godoc
// @Summary Update a course
// @Tags SkillCourses
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param payload body dto.SkillCourseRequest true "Course"
// @Success 200 {object} models.SkillCourse
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /skill-courses/{courseId} [put]
func (h *SkillCourseHandler) Update(c *gin.Context) {
	var req dto.SkillCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("courseId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Course updated successfully", "course", course)
}

// Publish godoc
// @Summary Publish a course
// @Tags SkillCourses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} models.SkillCourse
// @Failure 400 {object} response.ErrorBody
// @Security BearerAuth
// @Router /skill-courses/{courseId}/publish [post]
func (h *SkillCourseHandler) Publish(c *gin.Context) {
	course, err := h.service.Publish(c.Request.Context(), claimsFromContext(c), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Course published", "course", course)
}

// Delete godoc
// @Summary Delete a course
// @Tags SkillCourses
// @Param courseId path string true "Course ID"
// @Success 204
// @Security BearerAuth
// @Router /skill-courses/{courseId} [delete]
func (h *SkillCourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpsertRound godoc
// @Summary Create or replace a course round
// @Tags SkillCourses
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param payload body dto.SkillRoundRequest true "Round"
// @Success 200 {object} models.SkillRound
// @Security BearerAuth
// @Router /skill-courses/{courseId}/rounds [put]
func (h *SkillCourseHandler) UpsertRound(c *gin.Context) {
	var req dto.SkillRoundRequest
	if !bindJSON(c, &req) {
		return
	}
	round, err := h.service.UpsertRound(c.Request.Context(), claimsFromContext(c), c.Param("courseId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Round saved", "round", round)
}
