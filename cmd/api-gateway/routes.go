package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/handler"
	"github.com/noah-isme/campus-api/internal/middleware"
	"github.com/noah-isme/campus-api/internal/models"
)

// handlers groups every HTTP handler mounted by registerRoutes.
type handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Classes       *handler.ClassHandler
	Complaints    *handler.ComplaintHandler
	Events        *handler.EventHandler
	Courses       *handler.SkillCourseHandler
	Enrollments   *handler.EnrollmentHandler
	Attendance    *handler.AttendanceHandler
	Leaves        *handler.LeaveHandler
	Messages      *handler.MessageHandler
	Announcements *handler.AnnouncementHandler
	Grades        *handler.GradeHandler
	Assignments   *handler.AssignmentHandler
	Placements    *handler.PlacementHandler
	Skills        *handler.StudentSkillHandler
	Dashboard     *handler.DashboardHandler
	Reports       *handler.ReportHandler
	Metrics       *handler.MetricsHandler
}

type routeDeps struct {
	Prefix    string
	Validator middleware.TokenValidator
	Audit     middleware.AuditWriter
	Logger    *zap.Logger
}

const (
	student = string(models.RoleStudent)
	faculty = string(models.RoleFaculty)
	admin   = string(models.RoleAdmin)
	hr      = string(models.RoleHR)
)

func registerRoutes(r *gin.Engine, h handlers, deps routeDeps) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(deps.Prefix)
	api.Use(middleware.WithResponseMeta())

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, deps.Logger, action, resource)
	}

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.GET("/reports/download/:token", audit("REPORT_DOWNLOAD", "report"), h.Reports.DownloadReport)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Validator))

	auth := secured.Group("/auth")
	auth.POST("/logout", h.Auth.Logout)
	auth.POST("/change-password", h.Auth.ChangePassword)
	auth.GET("/me", h.Auth.Me)

	adminGroup := secured.Group("/admin", middleware.RBAC(admin))
	adminGroup.POST("/users", h.Users.Create)
	adminGroup.GET("/users", h.Users.List)
	adminGroup.GET("/metrics", h.Metrics.Snapshot)
	secured.GET("/users/:id", middleware.RBAC(admin, middleware.SelfAccess), h.Users.Get)

	classes := secured.Group("/classes")
	classes.POST("", middleware.RBAC(admin), h.Classes.Create)
	classes.GET("/mine", middleware.RBAC(faculty), h.Classes.Mine)
	classes.GET("/:id", middleware.RBAC(faculty, admin), h.Classes.Get)
	classes.POST("/:id/students", middleware.RBAC(admin), h.Classes.AssignStudent)

	complaints := secured.Group("/complaints")
	complaints.POST("/student", middleware.RBAC(student), h.Complaints.CreateByStudent)
	complaints.POST("/faculty", middleware.RBAC(faculty), h.Complaints.CreateByFaculty)
	complaints.GET("/mine", middleware.RBAC(student, faculty), h.Complaints.Mine)
	complaints.GET("/faculty/inbox", middleware.RBAC(faculty), h.Complaints.FacultyInbox)
	complaints.GET("/faculty/admin-resolved", middleware.RBAC(faculty), h.Complaints.AdminResolved)
	complaints.GET("/admin/inbox", middleware.RBAC(admin), h.Complaints.AdminInbox)
	complaints.GET("/:id", h.Complaints.Get)
	complaints.PATCH("/:id/faculty-action", middleware.RBAC(faculty), h.Complaints.FacultyAction)
	complaints.PATCH("/:id/admin-action", middleware.RBAC(admin), h.Complaints.AdminAction)

	events := secured.Group("/events")
	events.POST("", middleware.RBAC(student, faculty, admin), h.Events.Create)
	events.GET("/approved", h.Events.Approved)
	events.GET("/mine", middleware.RBAC(student, faculty), h.Events.Mine)
	events.GET("/faculty/requests", middleware.RBAC(faculty), h.Events.FacultyRequests)
	events.GET("/admin", middleware.RBAC(admin), h.Events.AdminList)
	events.PATCH("/:id/status", middleware.RBAC(faculty, admin), h.Events.UpdateStatus)

	courses := secured.Group("/skill-courses")
	courses.GET("", h.Courses.List)
	courses.POST("", middleware.RBAC(faculty, admin), h.Courses.Create)
	courses.GET("/enrollments/mine", middleware.RBAC(student), h.Enrollments.Mine)
	courses.GET("/:courseId", h.Courses.Get)
	courses.PUT("/:courseId", middleware.RBAC(faculty, admin), h.Courses.Update)
	courses.DELETE("/:courseId", middleware.RBAC(faculty, admin), h.Courses.Delete)
	courses.POST("/:courseId/publish", middleware.RBAC(faculty, admin), h.Courses.Publish)
	courses.PUT("/:courseId/rounds", middleware.RBAC(faculty, admin), h.Courses.UpsertRound)
	courses.POST("/:courseId/enroll", middleware.RBAC(student), h.Enrollments.Enroll)
	courses.DELETE("/:courseId/enroll", middleware.RBAC(student), h.Enrollments.Unenroll)
	courses.GET("/:courseId/progress", middleware.RBAC(student), h.Enrollments.Progress)
	courses.POST("/:courseId/rounds/1/complete", middleware.RBAC(student), h.Enrollments.CompleteRound1)
	courses.POST("/:courseId/quiz", middleware.RBAC(student), h.Enrollments.SubmitQuiz)
	courses.POST("/:courseId/project", middleware.RBAC(student), h.Enrollments.SubmitProject)
	courses.GET("/:courseId/enrollments", middleware.RBAC(faculty, admin), h.Enrollments.CourseEnrollments)
	courses.GET("/:courseId/submissions", middleware.RBAC(faculty, admin), h.Enrollments.Submissions)
	courses.PATCH("/:courseId/submissions/:submissionId/review", middleware.RBAC(faculty, admin), h.Enrollments.ReviewProject)

	attendance := secured.Group("/attendance")
	attendance.POST("/mark-subject", middleware.RBAC(faculty), h.Attendance.Mark)
	attendance.GET("/class-subject", middleware.RBAC(faculty, admin), h.Attendance.ClassSessions)
	attendance.GET("/mine", middleware.RBAC(student), h.Attendance.MySummary)
	attendance.GET("/students/:studentId/summary", middleware.RBAC(student, faculty, admin), h.Attendance.StudentSummary)

	leaves := secured.Group("/leaves")
	leaves.POST("", middleware.RBAC(student), h.Leaves.Apply)
	leaves.GET("/mine", middleware.RBAC(student), h.Leaves.Mine)
	leaves.GET("/pending", middleware.RBAC(faculty), h.Leaves.Pending)
	leaves.PATCH("/:id/status", middleware.RBAC(faculty), h.Leaves.Review)

	messages := secured.Group("/communication")
	messages.POST("/send", middleware.RBAC(faculty, admin, hr), h.Messages.Send)
	messages.GET("/inbox", h.Messages.Inbox)
	messages.GET("/sent", middleware.RBAC(faculty, admin, hr), h.Messages.Sent)
	messages.GET("/unread-count", h.Messages.UnreadCount)
	messages.PATCH("/:id/read", h.Messages.MarkRead)

	announcements := secured.Group("/announcements")
	announcements.POST("", middleware.RBAC(faculty, admin), h.Announcements.Create)
	announcements.GET("/all", middleware.RBAC(admin), h.Announcements.All)
	announcements.GET("/student", middleware.RBAC(student), h.Announcements.Student)
	announcements.GET("/faculty", middleware.RBAC(faculty), h.Announcements.Faculty)
	announcements.PUT("/:id", middleware.RBAC(faculty, admin), h.Announcements.Update)
	announcements.DELETE("/:id", middleware.RBAC(faculty, admin), h.Announcements.Delete)

	grades := secured.Group("/grades")
	grades.POST("/generate", middleware.RBAC(faculty), h.Grades.Generate)
	grades.GET("/faculty", middleware.RBAC(faculty), h.Grades.Faculty)
	grades.GET("/student", middleware.RBAC(student), h.Grades.Student)
	grades.GET("/:id", h.Grades.Get)
	grades.PUT("/:id/grade/:studentId", middleware.RBAC(faculty), h.Grades.UpdateGrade)

	assignments := secured.Group("/assignments")
	assignments.POST("", middleware.RBAC(faculty), h.Assignments.Create)
	assignments.GET("/faculty", middleware.RBAC(faculty), h.Assignments.Faculty)
	assignments.GET("/student", middleware.RBAC(student), h.Assignments.Student)
	assignments.GET("/upcoming", middleware.RBAC(student), h.Assignments.Upcoming)
	assignments.PATCH("/submissions/:submissionId/status", middleware.RBAC(faculty), h.Assignments.Review)
	assignments.GET("/:id", h.Assignments.Get)
	assignments.POST("/:id/submit", middleware.RBAC(student), h.Assignments.Submit)
	assignments.GET("/:id/submissions", middleware.RBAC(faculty), h.Assignments.Submissions)

	placements := secured.Group("/placements")
	placements.GET("/jobs", h.Placements.Jobs)
	placements.POST("/jobs", middleware.RBAC(hr, admin), h.Placements.CreateJob)
	placements.GET("/jobs/:id", h.Placements.Job)
	placements.PUT("/jobs/:id", middleware.RBAC(hr, admin), h.Placements.UpdateJob)
	placements.DELETE("/jobs/:id", middleware.RBAC(hr, admin), h.Placements.DeleteJob)
	placements.POST("/jobs/:id/apply", middleware.RBAC(student), h.Placements.Apply)
	placements.GET("/applications", middleware.RBAC(student, hr, admin), h.Placements.Applications)
	placements.PATCH("/applications/:id/status", middleware.RBAC(student, hr, admin), h.Placements.UpdateApplicationStatus)
	placements.POST("/applications/:id/interviews", middleware.RBAC(hr, admin), h.Placements.ScheduleInterview)
	placements.POST("/applications/:id/offers", middleware.RBAC(hr, admin), h.Placements.SendOffer)
	placements.GET("/interviews", middleware.RBAC(student, hr, admin), h.Placements.Interviews)
	placements.GET("/offers", middleware.RBAC(student, hr, admin), h.Placements.Offers)

	skills := secured.Group("/skills")
	skills.POST("", middleware.RBAC(student), h.Skills.Submit)
	skills.GET("/mine", middleware.RBAC(student), h.Skills.Mine)
	skills.GET("", middleware.RBAC(faculty, admin), h.Skills.Review)
	skills.PATCH("/:id/approve", middleware.RBAC(faculty, admin), h.Skills.Approve)
	skills.PATCH("/:id/reject", middleware.RBAC(faculty, admin), h.Skills.Reject)

	dashboard := secured.Group("/dashboard")
	dashboard.GET("/student", middleware.RBAC(student), h.Dashboard.Student)
	dashboard.GET("/faculty", middleware.RBAC(faculty), h.Dashboard.Faculty)
	dashboard.GET("/admin", middleware.RBAC(admin), h.Dashboard.Admin)

	reports := secured.Group("/reports")
	reports.POST("/generate", middleware.RBAC(student, faculty, admin), h.Reports.GenerateReport)
	reports.GET("/status/:id", h.Reports.ReportStatus)
	reports.GET("/mine", h.Reports.MyReports)
}
