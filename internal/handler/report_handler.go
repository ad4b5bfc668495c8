package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/service"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/response"
)

type reportService interface {
	Request(ctx context.Context, claims *models.JWTClaims, req dto.ReportRequest) (*dto.ReportJobResponse, error)
	Status(ctx context.Context, claims *models.JWTClaims, id string) (*dto.ReportStatusResponse, error)
	Mine(ctx context.Context, claims *models.JWTClaims) ([]dto.ReportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes asynchronous attendance reports.
type ReportHandler struct {
	service reportService
	logger  *zap.Logger
}

// NewReportHandler constructs handler. A nil service answers every request with 503.
func NewReportHandler(svc reportService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{service: svc, logger: logger}
}

func (h *ReportHandler) available(c *gin.Context) bool {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "reports are disabled"))
		return false
	}
	return true
}

// GenerateReport godoc
// @Summary Queue an attendance report
// @Description type is class_attendance or student_attendance, format is csv or pdf.
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ReportRequest true "Report"
// @Success 202 {object} dto.ReportJobResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Security BearerAuth
// @Router /reports/generate [post]
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	if !h.available(c) {
		return
	}
	var req dto.ReportRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.service.Request(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusAccepted, "Report queued", "job", job)
}

// ReportStatus godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} dto.ReportStatusResponse
// @Failure 404 {object} response.ErrorBody
// @Security BearerAuth
// @Router /reports/status/{id} [get]
func (h *ReportHandler) ReportStatus(c *gin.Context) {
	if !h.available(c) {
		return
	}
	status, err := h.service.Status(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Entity(c, http.StatusOK, "Report status", "job", status)
}

// MyReports godoc
// @Summary Report jobs requested by the caller
// @Tags Reports
// @Produce json
// @Success 200 {array} dto.ReportStatusResponse
// @Security BearerAuth
// @Router /reports/mine [get]
func (h *ReportHandler) MyReports(c *gin.Context) {
	if !h.available(c) {
		return
	}
	jobs, err := h.service.Mine(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, "jobs", jobs, len(jobs))
}

// DownloadReport godoc
// @Summary Download a finished report via signed token
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.ErrorBody
// @Router /reports/download/{token} [get]
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	if !h.available(c) {
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	download, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() {
		if cerr := download.File.Close(); cerr != nil {
			h.logger.Warn("close report file", zap.Error(cerr))
		}
	}()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to stat export file"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), download.Format.MediaType(), download.File, nil)
}
