package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/export"
	"github.com/noah-isme/campus-api/pkg/storage"
)

type reportAttendanceSource interface {
	ListByClass(ctx context.Context, classID, subject string) ([]models.Attendance, error)
	ListStudentRecords(ctx context.Context, studentID string) ([]models.StudentAttendanceRow, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}


// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders attendance datasets and stores them behind signed links.
type ExportService struct {
	attendance reportAttendanceSource
	classes    classLookup
	users      userLookup
	storage    fileStorage
	renderers  map[models.ReportFormat]export.Renderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
	now        func() time.Time
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Attendance reportAttendanceSource
	Classes    classLookup
	Users      userLookup
	Storage    fileStorage
	Signer     *storage.SignedURLSigner
	CSV        export.Renderer
	PDF        export.Renderer
	Logger     *zap.Logger
	Config     ExportConfig
}

// NewExportService constructs an ExportService. Renderers default to pkg/export.
func NewExportService(params ExportServiceParams) *ExportService {
	cfg := params.Config
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderers := map[models.ReportFormat]export.Renderer{
		models.ReportFormatCSV: export.NewCSV(),
		models.ReportFormatPDF: export.NewPDF(),
	}
	if params.CSV != nil {
		renderers[models.ReportFormatCSV] = params.CSV
	}
	if params.PDF != nil {
		renderers[models.ReportFormatPDF] = params.PDF
	}
	return &ExportService{
		attendance: params.Attendance,
		classes:    params.Classes,
		users:      params.Users,
		storage:    params.Storage,
		renderers:  renderers,
		signer:     params.Signer,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Generate builds the dataset for job, renders it and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, ok := s.renderers[job.Params.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	dataset, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	dataset.GeneratedAt = s.now()
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}
	s.logger.Debug("report rendered", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(payload)))

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/reports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl, or the configured TTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	subject := job.Params.ClassID
	if job.Type == models.ReportTypeStudentAttendance {
		subject = job.Params.StudentID
	}
	return fmt.Sprintf("%s_%s_%s.%s",
		string(job.Type),
		sanitizeFilename(subject),
		s.now().UTC().Format("20060102_150405"),
		s.renderers[job.Params.Format].Extension(),
	)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, error) {
	switch job.Type {
	case models.ReportTypeClassAttendance:
		return s.classDataset(ctx, job.Params)
	case models.ReportTypeStudentAttendance:
		return s.studentDataset(ctx, job.Params)
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report type %s", job.Type)
	}
}

// Present, Absent, Late, Total and percentage columns, counted from the right.
func countColumns(headers []string) map[int]bool {
	cols := make(map[int]bool, 5)
	for i := len(headers) - 5; i < len(headers); i++ {
		cols[i] = true
	}
	return cols
}

func countCells(t models.SubjectAttendance, pct float64) []string {
	return []string{
		strconv.Itoa(t.PresentCount),
		strconv.Itoa(t.AbsentCount),
		strconv.Itoa(t.LateCount),
		strconv.Itoa(t.TotalClasses),
		fmt.Sprintf("%.2f", pct),
	}
}

var classReportHeaders = []string{"Student ID", "Student Name", "Present", "Absent", "Late", "Total", "Attendance (%)"}

func (s *ExportService) classDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, error) {
	class, err := s.classes.FindByID(ctx, params.ClassID)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load class %s: %w", params.ClassID, err)
	}
	sessions, err := s.attendance.ListByClass(ctx, params.ClassID, params.SubjectName)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("list sessions: %w", err)
	}

	totals := make(map[string]*models.SubjectAttendance)
	names := make(map[string]string)
	for _, session := range sessions {
		for _, rec := range session.Records {
			t, ok := totals[rec.StudentID]
			if !ok {
				t = &models.SubjectAttendance{}
				totals[rec.StudentID] = t
			}
			tally(t, rec.Status)
			if rec.StudentName != nil {
				names[rec.StudentID] = *rec.StudentName
			}
		}
	}
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		t := totals[id]
		row := append([]string{id, names[id]}, countCells(*t, attendancePercentage(t.PresentCount, t.TotalClasses))...)
		rows = append(rows, row)
	}

	title := fmt.Sprintf("Attendance Report %s", class.ClassName)
	if params.SubjectName != "" {
		title += " - " + params.SubjectName
	}
	return export.Dataset{
		Title:          title,
		Headers:        classReportHeaders,
		Rows:           rows,
		NumericColumns: countColumns(classReportHeaders),
	}, nil
}

var studentReportHeaders = []string{"Subject", "Present", "Absent", "Late", "Total", "Attendance (%)"}

func (s *ExportService) studentDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, error) {
	student, err := s.users.FindByID(ctx, params.StudentID)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load student %s: %w", params.StudentID, err)
	}
	records, err := s.attendance.ListStudentRecords(ctx, params.StudentID)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("list student records: %w", err)
	}
	summary := SummarizeAttendance(records)
	lines := append(summary.Subjects, summary.Overall)

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, append([]string{line.SubjectName}, countCells(line, line.Percentage)...))
	}
	return export.Dataset{
		Title:          fmt.Sprintf("Attendance Report %s", student.Name),
		Headers:        studentReportHeaders,
		Rows:           rows,
		NumericColumns: countColumns(studentReportHeaders),
	}, nil
}
