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

type attendanceService interface {
	Mark(ctx context.Context, claims *models.JWTClaims, req dto.MarkAttendanceRequest) (*models.Attendance, error)
	ClassSessions(ctx context.Context, claims *models.JWTClaims, query dto.ClassAttendanceQuery) ([]models.Attendance, error)
	StudentSummary(ctx context.Context, claims *models.JWTClaims, studentID string) (*models.AttendanceSummary, error)
}

// AttendanceHandler exposes subject attendance.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Mark godoc
// @Summary Mark subject attendance for a class
// @Description Marking the same class, subject and day again replaces the records.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.MarkAttendanceRequest true "Attendance"
// @Success 200 {object} models.Attendance
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /attendance/mark-subject [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req dto.MarkAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	attendance, err := h.service.Mark(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Attendance marked successfully", "attendance", attendance)
}

// ClassSessions godoc
// @Summary Attendance sessions of a class
// @Tags Attendance
// @Produce json
// @Param classId query string true "Class ID"
// @Param subjectName query string false "Subject"
// @Param date query string false "Day (YYYY-MM-DD)"
// @Success 200 {array} models.Attendance
// @Security BearerAuth
// @Router /attendance/class-subject [get]
func (h *AttendanceHandler) ClassSessions(c *gin.Context) {
	var query dto.ClassAttendanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid query"))
		return
	}
	sessions, err := h.service.ClassSessions(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "attendance", sessions, len(sessions))
}

// StudentSummary godoc
// @Summary Attendance percentage per subject
// @Tags Attendance
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} models.AttendanceSummary
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /attendance/students/{studentId}/summary [get]
func (h *AttendanceHandler) StudentSummary(c *gin.Context) {
	summary, err := h.service.StudentSummary(c.Request.Context(), claimsFromContext(c), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Attendance summary", "summary", summary)
}

// MySummary godoc
// @Summary Attendance summary of the calling student
// @Tags Attendance
// @Produce json
// @Success 200 {object} models.AttendanceSummary
// @Security BearerAuth
// @Router /attendance/mine [get]
func (h *AttendanceHandler) MySummary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.service.StudentSummary(c.Request.Context(), claims, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Attendance summary", "summary", summary)
}
