package dto

import "github.com/noah-isme/campus-api/internal/models"

// SkillCourseRequest creates or updates a course. Status is only honoured on update.
type SkillCourseRequest struct {
	Title         string                   `json:"title"`
	ShortDesc     string                   `json:"shortDesc"`
	LongDesc      string                   `json:"longDesc"`
	Category      string                   `json:"category"`
	PassThreshold *int                     `json:"passThreshold"`
	Status        models.SkillCourseStatus `json:"status"`
}

// SkillRoundRequest upserts one round of a course.
type SkillRoundRequest struct {
	RoundNumber         int                  `json:"roundNumber" validate:"required,min=1,max=4"`
	LessonTitle         string               `json:"lessonTitle"`
	ContentType         string               `json:"contentType"`
	VideoURL            string               `json:"videoUrl"`
	TextContent         string               `json:"textContent"`
	QuizTitle           string               `json:"quizTitle"`
	Questions           models.QuizQuestions `json:"questions"`
	ProjectTitle        string               `json:"projectTitle"`
	ProjectBrief        string               `json:"projectBrief"`
	ProjectRequirements []string             `json:"projectRequirements"`
}

// QuizSubmissionRequest carries the selected option index per question.
type QuizSubmissionRequest struct {
	RoundNumber int   `json:"roundNumber" validate:"required,oneof=2 4"`
	Answers     []int `json:"answers"`
}

// ProjectSubmissionRequest is the round 3 upload metadata. File handling happens upstream.
type ProjectSubmissionRequest struct {
	FileURL     string `json:"projectFileUrl" validate:"required"`
	FileName    string `json:"projectFileName"`
	Description string `json:"description"`
}

// ProjectReviewRequest drives PATCH /skill-courses/:courseId/submissions/:submissionId/review.
type ProjectReviewRequest struct {
	Status   string `json:"status" validate:"required"`
	Feedback string `json:"feedback"`
}

// EnrollmentView is a student's progress in a course.
type EnrollmentView struct {
	Enrollment models.SkillEnrollment         `json:"enrollment"`
	Submission *models.SkillProjectSubmission `json:"submission,omitempty"`
}

// CourseDetail is a course with its rounds and, for students, their enrollment.
type CourseDetail struct {
	Course     models.SkillCourse      `json:"course"`
	Rounds     []models.SkillRound     `json:"rounds"`
	Enrollment *models.SkillEnrollment `json:"enrollment"`
}
