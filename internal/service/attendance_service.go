package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type attendanceStore interface {
	Upsert(ctx context.Context, attendance *models.Attendance) error
	ListByClass(ctx context.Context, classID, subject string) ([]models.Attendance, error)
	ListStudentRecords(ctx context.Context, studentID string) ([]models.StudentAttendanceRow, error)
}

type classLookup interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindByName(ctx context.Context, name string) (*models.Class, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

const attendanceDateLayout = "2006-01-02"

// AttendanceService records subject sessions and derives per-student summaries.
type AttendanceService struct {
	store     attendanceStore
	classes   classLookup
	users     userLookup
	guard     *authz.Guard
	validator *validator.Validate
	effects   WorkflowEffects
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(store attendanceStore, classes classLookup, users userLookup, guard *authz.Guard, validate *validator.Validate, effects WorkflowEffects) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{store: store, classes: classes, users: users, guard: guard, validator: validate, effects: effects}
}

// Mark records one subject session for a class. Marking the same class, subject, day and
// faculty again replaces the earlier marks.
func (s *AttendanceService) Mark(ctx context.Context, claims *models.JWTClaims, req dto.MarkAttendanceRequest) (*models.Attendance, error) {
	user, err := s.guard.Reverify(ctx, claims, models.RoleFaculty)
	if err != nil {
		return nil, err
	}
	if err := validationError(s.validator, req, "classId, subjectName, date, and records array are required"); err != nil {
		return nil, err
	}
	date, err := parseAttendanceDate(req.Date)
	if err != nil {
		return nil, err
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		return nil, storeError(err, "class", "load class")
	}
	if err := authz.RequireClassTeacherOrSubjectTeacher(class, req.SubjectName, user.ID); err != nil {
		return nil, err
	}

	records := make([]models.AttendanceRecord, 0, len(req.Records))
	seen := make(map[string]bool, len(req.Records))
	for _, r := range req.Records {
		status := r.Status
		if status == "" {
			status = models.AttendancePresent
		}
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q", r.Status))
		}
		if !class.HasStudent(r.StudentID) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not in %s", r.StudentID, class.ClassName))
		}
		if seen[r.StudentID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is marked twice", r.StudentID))
		}
		seen[r.StudentID] = true
		records = append(records, models.AttendanceRecord{StudentID: r.StudentID, Status: status})
	}

	attendance := &models.Attendance{
		ClassID:     class.ID,
		FacultyID:   user.ID,
		SubjectName: req.SubjectName,
		Date:        date,
		Records:     records,
	}
	if err := s.store.Upsert(ctx, attendance); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Attendance for this class, subject, and date already exists")
		}
		return nil, storeError(err, "attendance", "mark attendance")
	}

	s.effects.audit(ctx, user.ID, models.AuditActionAttendanceMark, "attendance", attendance.ID, nil, map[string]interface{}{
		"classId": class.ID, "subject": attendance.SubjectName, "date": date.Format(attendanceDateLayout), "records": len(records),
	})
	s.effects.invalidateDashboards(ctx)
	return attendance, nil
}

// ClassSessions lists sessions of a class for one of its teachers or an admin. Subject and
// date are optional filters.
func (s *AttendanceService) ClassSessions(ctx context.Context, claims *models.JWTClaims, query dto.ClassAttendanceQuery) ([]models.Attendance, error) {
	if err := authz.RequireRole(claims, models.RoleFaculty, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validationError(s.validator, query, "classId is required"); err != nil {
		return nil, err
	}
	var day *time.Time
	if query.Date != "" {
		d, err := parseAttendanceDate(query.Date)
		if err != nil {
			return nil, err
		}
		day = &d
	}

	class, err := s.classes.FindByID(ctx, query.ClassID)
	if err != nil {
		return nil, storeError(err, "class", "load class")
	}
	if claims.Role == models.RoleFaculty {
		if query.SubjectName != "" {
			err = authz.RequireClassTeacherOrSubjectTeacher(class, query.SubjectName, claims.UserID)
		} else {
			err = authz.RequireTeachesClass(class, claims.UserID)
		}
		if err != nil {
			return nil, err
		}
	}

	sessions, err := s.store.ListByClass(ctx, class.ID, query.SubjectName)
	if err != nil {
		return nil, storeError(err, "attendance", "list attendance")
	}
	if day == nil {
		return sessions, nil
	}
	filtered := sessions[:0]
	for _, session := range sessions {
		if models.NormalizeAttendanceDate(session.Date).Equal(*day) {
			filtered = append(filtered, session)
		}
	}
	return filtered, nil
}

// StudentSummary aggregates a student's marks per subject. Students read their own
// summary, faculty read summaries of students in classes they teach, admins read any.
func (s *AttendanceService) StudentSummary(ctx context.Context, claims *models.JWTClaims, studentID string) (*models.AttendanceSummary, error) {
	if err := authz.RequireRole(claims, models.RoleStudent, models.RoleFaculty, models.RoleAdmin); err != nil {
		return nil, err
	}
	if studentID == "" {
		studentID = claims.UserID
	}
	if err := s.requireSummaryReader(ctx, claims, studentID); err != nil {
		return nil, err
	}

	rows, err := s.store.ListStudentRecords(ctx, studentID)
	if err != nil {
		return nil, storeError(err, "attendance", "load attendance")
	}
	summary := SummarizeAttendance(rows)
	summary.StudentID = studentID
	return summary, nil
}

func (s *AttendanceService) requireSummaryReader(ctx context.Context, claims *models.JWTClaims, studentID string) error {
	switch claims.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleStudent:
		if studentID != claims.UserID {
			return appErrors.Clone(appErrors.ErrForbidden, "Only students can view their attendance summary")
		}
		return nil
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return storeError(err, "student", "load student")
	}
	if student.Role != models.RoleStudent || student.ClassNameValue() == "" {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	class, err := s.classes.FindByName(ctx, student.ClassNameValue())
	if err != nil {
		return storeError(err, "class", "load class")
	}
	return authz.RequireTeachesClass(class, claims.UserID)
}

// SummarizeAttendance groups rows by subject. Percentage counts present marks only and is
// rounded to two decimals.
func SummarizeAttendance(rows []models.StudentAttendanceRow) *models.AttendanceSummary {
	bySubject := make(map[string]*models.SubjectAttendance)
	var order []string
	overall := models.SubjectAttendance{SubjectName: "Overall"}
	for _, row := range rows {
		name := row.SubjectName
		if name == "" {
			name = "Unknown"
		}
		subj, ok := bySubject[name]
		if !ok {
			subj = &models.SubjectAttendance{SubjectName: name}
			bySubject[name] = subj
			order = append(order, name)
		}
		tally(subj, row.Status)
		tally(&overall, row.Status)
	}
	sort.Strings(order)

	summary := &models.AttendanceSummary{Subjects: make([]models.SubjectAttendance, 0, len(order))}
	for _, name := range order {
		subj := bySubject[name]
		subj.Percentage = attendancePercentage(subj.PresentCount, subj.TotalClasses)
		summary.Subjects = append(summary.Subjects, *subj)
	}
	overall.Percentage = attendancePercentage(overall.PresentCount, overall.TotalClasses)
	summary.Overall = overall
	return summary
}

func tally(s *models.SubjectAttendance, status models.AttendanceStatus) {
	s.TotalClasses++
	switch status {
	case models.AttendancePresent:
		s.PresentCount++
	case models.AttendanceAbsent:
		s.AbsentCount++
	case models.AttendanceLate:
		s.LateCount++
	}
}

func attendancePercentage(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*10000) / 100
}

func parseAttendanceDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(attendanceDateLayout, raw); err == nil {
		return models.NormalizeAttendanceDate(t), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return models.NormalizeAttendanceDate(t), nil
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
}
