package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/models"
)

type dashboardCounter interface {
	StudentCounts(ctx context.Context, studentID string, today time.Time) (models.StudentDashboard, error)
	FacultyCounts(ctx context.Context, facultyID string, classNames []string) (models.FacultyDashboard, error)
	AdminCounts(ctx context.Context) (models.AdminDashboard, error)
}

type attendanceRowReader interface {
	ListStudentRecords(ctx context.Context, studentID string) ([]models.StudentAttendanceRow, error)
}

type taughtClassLister interface {
	ListForTeacher(ctx context.Context, teacherID string) ([]models.Class, error)
}

type roleCounter interface {
	CountByRole(ctx context.Context) (map[models.Role]int, error)
}

type unreadCounter interface {
	UnreadCount(ctx context.Context, claims *models.JWTClaims) (int64, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Counts     dashboardCounter
	Attendance attendanceRowReader
	Classes    taughtClassLister
	Users      roleCounter
	Messages   unreadCounter
	Cache      *CacheService
	Logger     *zap.Logger
	Config     DashboardServiceConfig
}

// DashboardService composes the role dashboards. Results are cached per user until a
// workflow transition invalidates them.
type DashboardService struct {
	counts     dashboardCounter
	attendance attendanceRowReader
	classes    taughtClassLister
	users      roleCounter
	messages   unreadCounter
	cache      *CacheService
	logger     *zap.Logger
	now        func() time.Time
	cfg        DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		counts:     params.Counts,
		attendance: params.Attendance,
		classes:    params.Classes,
		users:      params.Users,
		messages:   params.Messages,
		cache:      params.Cache,
		logger:     logger,
		now:        time.Now,
		cfg:        cfg,
	}
}

func dashboardKey(role models.Role, userID string) string {
	return fmt.Sprintf("%s%s:%s", DashboardCachePrefix, role, userID)
}

// Student returns the caller's dashboard and whether it came from cache.
func (s *DashboardService) Student(ctx context.Context, claims *models.JWTClaims) (*models.StudentDashboard, bool, error) {
	if err := authz.RequireRole(claims, models.RoleStudent); err != nil {
		return nil, false, err
	}
	return Remember(ctx, s.cache, dashboardKey(models.RoleStudent, claims.UserID), s.cfg.CacheTTL,
		func(ctx context.Context) (*models.StudentDashboard, error) {
			summary, err := s.counts.StudentCounts(ctx, claims.UserID, s.now().UTC())
			if err != nil {
				return nil, storeError(err, "dashboard", "load student dashboard")
			}
			rows, err := s.attendance.ListStudentRecords(ctx, claims.UserID)
			if err != nil {
				return nil, storeError(err, "attendance", "load attendance")
			}
			overall := SummarizeAttendance(rows).Overall
			summary.AttendancePercentage = overall.Percentage
			summary.TotalClasses = overall.TotalClasses
			if s.messages != nil {
				unread, err := s.messages.UnreadCount(ctx, claims)
				if err != nil {
					s.logger.Warn("dashboard unread count failed", zap.String("user_id", claims.UserID), zap.Error(err))
				}
				summary.UnreadMessages = unread
			}
			return &summary, nil
		})
}

// Faculty returns the caller's queues and whether they came from cache.
func (s *DashboardService) Faculty(ctx context.Context, claims *models.JWTClaims) (*models.FacultyDashboard, bool, error) {
	if err := authz.RequireRole(claims, models.RoleFaculty); err != nil {
		return nil, false, err
	}
	return Remember(ctx, s.cache, dashboardKey(models.RoleFaculty, claims.UserID), s.cfg.CacheTTL,
		func(ctx context.Context) (*models.FacultyDashboard, error) {
			classes, err := s.classes.ListForTeacher(ctx, claims.UserID)
			if err != nil {
				return nil, storeError(err, "class", "list classes")
			}
			names := make([]string, 0, len(classes))
			for _, c := range classes {
				names = append(names, c.ClassName)
			}
			sort.Strings(names)

			summary, err := s.counts.FacultyCounts(ctx, claims.UserID, names)
			if err != nil {
				return nil, storeError(err, "dashboard", "load faculty dashboard")
			}
			return &summary, nil
		})
}

// Admin returns campus-wide queues and whether they came from cache.
func (s *DashboardService) Admin(ctx context.Context, claims *models.JWTClaims) (*models.AdminDashboard, bool, error) {
	if err := authz.RequireRole(claims, models.RoleAdmin); err != nil {
		return nil, false, err
	}
	return Remember(ctx, s.cache, dashboardKey(models.RoleAdmin, claims.UserID), s.cfg.CacheTTL,
		func(ctx context.Context) (*models.AdminDashboard, error) {
			summary, err := s.counts.AdminCounts(ctx)
			if err != nil {
				return nil, storeError(err, "dashboard", "load admin dashboard")
			}
			if summary.UsersByRole, err = s.users.CountByRole(ctx); err != nil {
				return nil, storeError(err, "user", "count users")
			}
			return &summary, nil
		})
}
