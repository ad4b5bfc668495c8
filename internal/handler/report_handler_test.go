package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/middleware"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/service"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type reportServiceMock struct {
	createResp  *dto.ReportJobResponse
	createErr   error
	lastRequest dto.ReportRequest
	statusResp  *dto.ReportStatusResponse
	statusErr   error
	mine        []dto.ReportStatusResponse
	download    *service.ReportDownload
	downloadErr error
}

func (m *reportServiceMock) Request(ctx context.Context, claims *models.JWTClaims, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	m.lastRequest = req
	return m.createResp, m.createErr
}

func (m *reportServiceMock) Status(ctx context.Context, claims *models.JWTClaims, id string) (*dto.ReportStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *reportServiceMock) Mine(ctx context.Context, claims *models.JWTClaims) ([]dto.ReportStatusResponse, error) {
	return m.mine, nil
}

func (m *reportServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error) {
	return m.download, m.downloadErr
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}
}

func TestReportHandlerGenerateReport(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name     string
		body     string
		svcErr   error
		want     int
		contains string
	}{
		{"queued", `{"type":"class_attendance","classId":"class-1","format":"csv"}`, nil, http.StatusAccepted, `"job-1"`},
		{"missing format", `{"type":"class_attendance","classId":"class-1"}`, nil, http.StatusBadRequest, `"format"`},
		{"malformed body", `{"type":`, nil, http.StatusBadRequest, ""},
		{"service forbids", `{"type":"class_attendance","classId":"class-1","format":"pdf"}`, appErrors.ErrForbidden, http.StatusForbidden, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &reportServiceMock{
				createResp: &dto.ReportJobResponse{ID: "job-1", Status: models.ReportStatusQueued},
				createErr:  tc.svcErr,
			}
			c, w := newGinContext(http.MethodPost, "/reports/generate", []byte(tc.body))
			c.Set(middleware.ContextUserKey, adminClaims())

			NewReportHandler(svc, nil).GenerateReport(c)

			require.Equal(t, tc.want, w.Code, w.Body.String())
			if tc.contains != "" {
				assert.Contains(t, w.Body.String(), tc.contains)
			}
			if tc.want == http.StatusAccepted {
				assert.Equal(t, "class-1", svc.lastRequest.ClassID)
			}
		})
	}
}

func TestReportHandlerReportStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	url := "/api/v1/reports/download/tok"
	svc := &reportServiceMock{
		statusResp: &dto.ReportStatusResponse{ID: "job-1", Status: models.ReportStatusFinished, Progress: 100, ResultURL: &url},
	}

	c, w := newGinContext(http.MethodGet, "/reports/status/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	c.Set(middleware.ContextUserKey, adminClaims())
	NewReportHandler(svc, nil).ReportStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Job dto.ReportStatusResponse `json:"job"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.ReportStatusFinished, body.Job.Status)
	require.NotNil(t, body.Job.ResultURL)
	assert.Equal(t, url, *body.Job.ResultURL)

	c, w = newGinContext(http.MethodGet, "/reports/status/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	c.Set(middleware.ContextUserKey, adminClaims())
	NewReportHandler(&reportServiceMock{statusErr: appErrors.ErrNotFound}, nil).ReportStatus(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerDownloadStreamsFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	file, err := os.CreateTemp(t.TempDir(), "attendance*.pdf")
	require.NoError(t, err)
	_, err = file.WriteString("%PDF-1.3")
	require.NoError(t, err)
	_, err = file.Seek(0, 0)
	require.NoError(t, err)

	svc := &reportServiceMock{download: &service.ReportDownload{
		File:      file,
		Filename:  "class_attendance_c1.pdf",
		Format:    models.ReportFormatPDF,
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	c, w := newGinContext(http.MethodGet, "/reports/download/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}
	NewReportHandler(svc, nil).DownloadReport(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.3", w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "class_attendance_c1.pdf")
}

func TestReportHandlerDownloadRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, w := newGinContext(http.MethodGet, "/reports/download/", nil)
	c.Params = gin.Params{{Key: "token", Value: "  "}}
	NewReportHandler(&reportServiceMock{}, nil).DownloadReport(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/reports/download/forged", nil)
	c.Params = gin.Params{{Key: "token", Value: "forged"}}
	NewReportHandler(&reportServiceMock{downloadErr: appErrors.ErrForbidden}, nil).DownloadReport(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReportHandlerDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(nil, nil)

	c, w := newGinContext(http.MethodGet, "/reports/mine", nil)
	handler.MyReports(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "reports are disabled")
}
