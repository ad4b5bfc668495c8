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

type gradeService interface {
	Generate(ctx context.Context, claims *models.JWTClaims, req dto.GenerateGradeSheetRequest) (*models.GradeSheet, error)
	FacultySheets(ctx context.Context, claims *models.JWTClaims, query dto.GradeSheetQuery, page models.Page) ([]models.GradeSheet, int, error)
	Sheet(ctx context.Context, claims *models.JWTClaims, id string) (*models.GradeSheet, error)
	UpdateGrade(ctx context.Context, claims *models.JWTClaims, sheetID, studentID string, req dto.UpdateGradeRequest) (*models.GradeSheet, error)
	StudentGrades(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.StudentGrade, int, error)
}

// GradeHandler exposes grade sheets.
type GradeHandler struct {
	service gradeService
}

// NewGradeHandler constructs a grade handler.
func NewGradeHandler(svc gradeService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// Generate godoc
// @Summary Generate a grade sheet for a class and subject
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body dto.GenerateGradeSheetRequest true "Sheet"
// @Success 201 {object} models.GradeSheet
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /grades/generate [post]
func (h *GradeHandler) Generate(c *gin.Context) {
	var req dto.GenerateGradeSheetRequest
	if !bindJSON(c, &req) {
		return
	}
	sheet, err := h.service.Generate(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Grade sheet generated successfully", "gradeSheet", sheet)
}

// Faculty godoc
// @Summary Grade sheets of the caller
// @Tags Grades
// @Produce json
// @Param classId query string false "Class ID"
// @Param subject query string false "Subject"
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.GradeSheet
// @Security BearerAuth
// @Router /grades/faculty [get]
func (h *GradeHandler) Faculty(c *gin.Context) {
	var query dto.GradeSheetQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid query"))
		return
	}
	pagedList(c, "gradeSheets", func(ctx context.Context, claims *models.JWTClaims, page models.Page) ([]models.GradeSheet, int, error) {
		return h.service.FacultySheets(ctx, claims, query, page)
	})
}

// Student godoc
// @Summary Grades of the calling student
// @Tags Grades
// @Produce json
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.StudentGrade
// @Security BearerAuth
// @Router /grades/student [get]
func (h *GradeHandler) Student(c *gin.Context) {
	pagedList(c, "grades", h.service.StudentGrades)
}

// Get godoc
// @Summary Grade sheet detail
// @Tags Grades
// @Produce json
// @Param id path string true "Grade sheet ID"
// @Success 200 {object} models.GradeSheet
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Security BearerAuth
// @Router /grades/{id} [get]
func (h *GradeHandler) Get(c *gin.Context) {
	sheet, err := h.service.Sheet(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Grade sheet fetched", "gradeSheet", sheet)
}

// UpdateGrade godoc
// @Summary Record a student's grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Grade sheet ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.UpdateGradeRequest true "Scores"
// @Success 200 {object} models.GradeSheet
// @Failure 404 {object} response.ErrorBody
// @Security BearerAuth
// @Router /grades/{id}/grade/{studentId} [put]
func (h *GradeHandler) UpdateGrade(c *gin.Context) {
	var req dto.UpdateGradeRequest
	if !bindJSON(c, &req) {
		return
	}
	sheet, err := h.service.UpdateGrade(c.Request.Context(), claimsFromContext(c), c.Param("id"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Grade updated successfully", "gradeSheet", sheet)
}
