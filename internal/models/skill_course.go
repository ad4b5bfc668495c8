package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SkillCourseStatus is the publication state of a course.
type SkillCourseStatus string

const (
	SkillCourseDraft     SkillCourseStatus = "Draft"
	SkillCoursePublished SkillCourseStatus = "Published"
)

// SkillCourse is a four-round mini course.
type SkillCourse struct {
	ID            string            `db:"id" json:"id"`
	Title         string            `db:"title" json:"title"`
	ShortDesc     string            `db:"short_desc" json:"shortDesc"`
	LongDesc      string            `db:"long_desc" json:"longDesc,omitempty"`
	Category      string            `db:"category" json:"category"`
	PassThreshold int               `db:"pass_threshold" json:"passThreshold"`
	CreatedBy     string            `db:"created_by" json:"createdBy"`
	CreatorName   *string           `db:"creator_name" json:"creatorName,omitempty"`
	Status        SkillCourseStatus `db:"status" json:"status"`
	CreatedAt     time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updatedAt"`
}

// Round numbers of a skill course.
const (
	RoundContent   = 1
	RoundQuiz      = 2
	RoundProject   = 3
	RoundFinalQuiz = 4
)

// QuizQuestion is a multiple choice question with a single correct option.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// QuizQuestions is stored as a JSONB column.
type QuizQuestions []QuizQuestion

// Value implements driver.Valuer.
func (q QuizQuestions) Value() (driver.Value, error) {
	if q == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(q)
}

// Scan implements sql.Scanner.
func (q *QuizQuestions) Scan(src interface{}) error {
	return scanJSON(src, q)
}

// StringList is stored as a JSONB array of strings.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

func scanJSON(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}

// SkillRound holds the content of one round; which fields apply depends on RoundNumber.
type SkillRound struct {
	ID                  string        `db:"id" json:"id"`
	CourseID            string        `db:"course_id" json:"courseId"`
	RoundNumber         int           `db:"round_number" json:"roundNumber"`
	LessonTitle         string        `db:"lesson_title" json:"lessonTitle,omitempty"`
	ContentType         string        `db:"content_type" json:"contentType,omitempty"`
	VideoURL            string        `db:"video_url" json:"videoUrl,omitempty"`
	TextContent         string        `db:"text_content" json:"textContent,omitempty"`
	QuizTitle           string        `db:"quiz_title" json:"quizTitle,omitempty"`
	Questions           QuizQuestions `db:"questions" json:"questions,omitempty"`
	ProjectTitle        string        `db:"project_title" json:"projectTitle,omitempty"`
	ProjectBrief        string        `db:"project_brief" json:"projectBrief,omitempty"`
	ProjectRequirements StringList    `db:"project_requirements" json:"projectRequirements,omitempty"`
	CreatedAt           time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updatedAt"`
}

// WithoutAnswers returns a copy with the correct indexes hidden.
func (r SkillRound) WithoutAnswers() SkillRound {
	if len(r.Questions) == 0 {
		return r
	}
	hidden := make(QuizQuestions, len(r.Questions))
	for i, q := range r.Questions {
		hidden[i] = QuizQuestion{Question: q.Question, Options: q.Options, CorrectIndex: -1}
	}
	r.Questions = hidden
	return r
}

// EnrollmentProgress flags only ever move from false to true.
type EnrollmentProgress struct {
	Round1Completed bool `db:"round1_completed" json:"round1Completed"`
	Round2Completed bool `db:"round2_completed" json:"round2Completed"`
	Round3Approved  bool `db:"round3_approved" json:"round3Approved"`
	Round4Completed bool `db:"round4_completed" json:"round4Completed"`
	Completed       bool `db:"completed" json:"completed"`
}

// SkillEnrollment ties a student to a course. Progress columns are promoted from the
// embedded EnrollmentProgress.
type SkillEnrollment struct {
	ID          string  `db:"id" json:"id"`
	CourseID    string  `db:"course_id" json:"courseId"`
	StudentID   string  `db:"student_id" json:"studentId"`
	StudentName *string `db:"student_name" json:"studentName,omitempty"`
	CourseTitle *string `db:"course_title" json:"courseTitle,omitempty"`

	EnrollmentProgress `json:"progress"`

	Round2Score       *int      `db:"round2_score" json:"round2Score"`
	Round4Score       *int      `db:"round4_score" json:"round4Score"`
	CertificateIssued bool      `db:"certificate_issued" json:"certificateIssued"`
	Version           int       `db:"version" json:"version"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// ProjectStatus enumerates review outcomes of a round 3 submission.
type ProjectStatus string

const (
	ProjectPending  ProjectStatus = "Pending"
	ProjectApproved ProjectStatus = "Approved"
	ProjectRejected ProjectStatus = "Rejected"
	ProjectRework   ProjectStatus = "Rework"
)

// SkillProjectSubmission is the round 3 deliverable.
type SkillProjectSubmission struct {
	ID           string        `db:"id" json:"id"`
	CourseID     string        `db:"course_id" json:"courseId"`
	EnrollmentID string        `db:"enrollment_id" json:"enrollmentId"`
	StudentID    string        `db:"student_id" json:"studentId"`
	StudentName  *string       `db:"student_name" json:"studentName,omitempty"`
	FileURL      string        `db:"file_url" json:"projectFileUrl"`
	FileName     string        `db:"file_name" json:"projectFileName"`
	Description  string        `db:"description" json:"description"`
	Status       ProjectStatus `db:"status" json:"status"`
	ReviewedBy   *string       `db:"reviewed_by" json:"reviewedBy,omitempty"`
	Feedback     string        `db:"feedback" json:"feedback"`
	Version      int           `db:"version" json:"version"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updatedAt"`
}

// QuizResult is returned after grading a quiz attempt.
type QuizResult struct {
	Round     int  `json:"round"`
	Correct   int  `json:"correct"`
	Total     int  `json:"total"`
	Score     int  `json:"score"`
	Threshold int  `json:"threshold"`
	Passed    bool `json:"passed"`
}
