package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-api/internal/models"
)

// DashboardRepository runs the aggregate counts behind the role dashboards.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) count(ctx context.Context, label, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", label, err)
	}
	return n, nil
}

// StudentCounts fills the counters of a student dashboard except attendance and messages.
func (r *DashboardRepository) StudentCounts(ctx context.Context, studentID string, today time.Time) (models.StudentDashboard, error) {
	var out models.StudentDashboard
	var err error

	if out.OpenComplaints, err = r.count(ctx, "open complaints",
		`SELECT COUNT(*) FROM complaints WHERE raised_by_id = $1 AND NOT (status IN ('resolved','rejected') AND current_owner = raised_by_role)`,
		studentID); err != nil {
		return out, err
	}
	if out.PendingLeaves, err = r.count(ctx, "pending leaves",
		`SELECT COUNT(*) FROM leave_requests WHERE student_id = $1 AND status = 'pending'`, studentID); err != nil {
		return out, err
	}
	if out.ApprovedLeaves, err = r.count(ctx, "approved leaves",
		`SELECT COUNT(*) FROM leave_requests WHERE student_id = $1 AND status = 'approved'`, studentID); err != nil {
		return out, err
	}
	if out.UpcomingEvents, err = r.count(ctx, "upcoming events",
		`SELECT COUNT(*) FROM events WHERE status = 'approved' AND event_date >= $1`, today.Format("2006-01-02")); err != nil {
		return out, err
	}
	if out.CoursesCompleted, err = r.count(ctx, "completed courses",
		`SELECT COUNT(*) FROM skill_enrollments WHERE student_id = $1 AND completed = TRUE`, studentID); err != nil {
		return out, err
	}
	if out.CoursesInProgress, err = r.count(ctx, "courses in progress",
		`SELECT COUNT(*) FROM skill_enrollments WHERE student_id = $1 AND completed = FALSE`, studentID); err != nil {
		return out, err
	}
	return out, nil
}

// FacultyCounts fills the counters of a faculty dashboard. classNames are the classes the
// faculty member teaches.
func (r *DashboardRepository) FacultyCounts(ctx context.Context, facultyID string, classNames []string) (models.FacultyDashboard, error) {
	out := models.FacultyDashboard{Classes: classNames}
	var err error

	if out.ComplaintInbox, err = r.count(ctx, "faculty complaint inbox",
		`SELECT COUNT(*) FROM complaints WHERE target_faculty_id = $1 AND current_owner = 'faculty' AND status = 'pending_faculty'`,
		facultyID); err != nil {
		return out, err
	}
	if out.AdminResolved, err = r.count(ctx, "admin resolved complaints",
		`SELECT COUNT(*) FROM complaints WHERE target_faculty_id = $1 AND current_owner = 'faculty' AND status = 'resolved'`,
		facultyID); err != nil {
		return out, err
	}
	if len(classNames) > 0 {
		if out.PendingLeaves, err = r.count(ctx, "class pending leaves",
			`SELECT COUNT(*) FROM leave_requests l JOIN users u ON u.id = l.student_id WHERE u.class_name = ANY($1) AND l.status = 'pending'`,
			pq.Array(classNames)); err != nil {
			return out, err
		}
	}
	if out.PendingEventRequests, err = r.count(ctx, "pending event requests",
		`SELECT COUNT(*) FROM events WHERE status = 'pending' AND submitted_by_role = 'student' AND forwarded_to_admin = FALSE`); err != nil {
		return out, err
	}
	if out.PendingProjectReviews, err = r.count(ctx, "pending project reviews",
		`SELECT COUNT(*) FROM skill_project_submissions s JOIN skill_courses sc ON sc.id = s.course_id WHERE sc.created_by = $1 AND s.status = 'Pending'`,
		facultyID); err != nil {
		return out, err
	}
	if out.CoursesOwned, err = r.count(ctx, "owned courses",
		`SELECT COUNT(*) FROM skill_courses WHERE created_by = $1`, facultyID); err != nil {
		return out, err
	}
	return out, nil
}

// AdminCounts fills the complaint, event and course counters of the admin dashboard.
func (r *DashboardRepository) AdminCounts(ctx context.Context) (models.AdminDashboard, error) {
	out := models.AdminDashboard{ComplaintsByStatus: make(map[models.ComplaintStatus]int)}
	var err error

	if out.ComplaintInbox, err = r.count(ctx, "admin complaint inbox",
		`SELECT COUNT(*) FROM complaints WHERE current_owner = 'admin'`); err != nil {
		return out, err
	}
	if out.EventsAwaiting, err = r.count(ctx, "events awaiting admin",
		`SELECT COUNT(*) FROM events WHERE status IN ('pending','forwarded') AND forwarded_to_admin = TRUE`); err != nil {
		return out, err
	}
	if out.PublishedCourses, err = r.count(ctx, "published courses",
		`SELECT COUNT(*) FROM skill_courses WHERE status = 'Published'`); err != nil {
		return out, err
	}

	var rows []models.CountRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT status AS key, COUNT(*) AS count FROM complaints GROUP BY status`); err != nil {
		return out, fmt.Errorf("count complaints by status: %w", err)
	}
	for _, row := range rows {
		out.ComplaintsByStatus[models.ComplaintStatus(row.Key)] = row.Count
	}
	return out, nil
}
