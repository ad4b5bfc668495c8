package models

// StudentDashboard summarises a student's standing.
type StudentDashboard struct {
	AttendancePercentage float64 `json:"attendancePercentage"`
	TotalClasses         int     `json:"totalClasses"`
	CoursesCompleted     int     `json:"coursesCompleted"`
	CoursesInProgress    int     `json:"coursesInProgress"`
	OpenComplaints       int     `json:"openComplaints"`
	PendingLeaves        int     `json:"pendingLeaves"`
	ApprovedLeaves       int     `json:"approvedLeaves"`
	UpcomingEvents       int     `json:"upcomingEvents"`
	UnreadMessages       int64   `json:"unreadMessages"`
}

// FacultyDashboard summarises a faculty member's queues.
type FacultyDashboard struct {
	Classes               []string `json:"classes"`
	ComplaintInbox        int      `json:"complaintInbox"`
	AdminResolved         int      `json:"adminResolvedAwaitingAck"`
	PendingLeaves         int      `json:"pendingLeaves"`
	PendingEventRequests  int      `json:"pendingEventRequests"`
	PendingProjectReviews int      `json:"pendingProjectReviews"`
	CoursesOwned          int      `json:"coursesOwned"`
}

// AdminDashboard summarises campus-wide queues.
type AdminDashboard struct {
	UsersByRole        map[Role]int            `json:"usersByRole"`
	ComplaintInbox     int                     `json:"complaintInbox"`
	ComplaintsByStatus map[ComplaintStatus]int `json:"complaintsByStatus"`
	EventsAwaiting     int                     `json:"eventsAwaitingAdmin"`
	PublishedCourses   int                     `json:"publishedCourses"`
}

// CountRow is a generic (key, count) aggregation row.
type CountRow struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}
