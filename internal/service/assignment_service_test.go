package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type memAssignments struct {
	items       map[string]*models.Assignment
	submissions map[string]*models.AssignmentSubmission
	stale       bool
	lastFilter  models.AssignmentFilter
}

func newMemAssignments() *memAssignments {
	return &memAssignments{items: map[string]*models.Assignment{}, submissions: map[string]*models.AssignmentSubmission{}}
}

func (m *memAssignments) Create(ctx context.Context, a *models.Assignment) error {
	a.ID = fmt.Sprintf("as-%d", len(m.items)+1)
	copy := *a
	m.items[a.ID] = &copy
	return nil
}

func (m *memAssignments) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *a
	copy.SubmissionsPending, copy.SubmissionsTotal = 0, 0
	for _, s := range m.submissions {
		if s.AssignmentID == id {
			copy.SubmissionsTotal++
			if s.Status == models.SubmissionPending {
				copy.SubmissionsPending++
			}
		}
	}
	return &copy, nil
}

func (m *memAssignments) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	m.lastFilter = filter
	var out []models.Assignment
	for id := range m.items {
		a, _ := m.GetByID(ctx, id)
		if filter.FacultyID != "" && a.FacultyID != filter.FacultyID {
			continue
		}
		if filter.ClassID != "" && a.ClassID != filter.ClassID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.DueFrom != nil && a.DueDate.Before(*filter.DueFrom) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	total := len(out)
	if filter.Offset < len(out) {
		out = out[filter.Offset:]
	} else {
		out = nil
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (m *memAssignments) CreateSubmission(ctx context.Context, s *models.AssignmentSubmission) error {
	for _, existing := range m.submissions {
		if existing.AssignmentID == s.AssignmentID && existing.StudentID == s.StudentID {
			return repository.ErrDuplicate
		}
	}
	s.ID = fmt.Sprintf("sub-%d", len(m.submissions)+1)
	s.Version = 1
	copy := *s
	m.submissions[s.ID] = &copy
	return nil
}

func (m *memAssignments) GetSubmission(ctx context.Context, id string) (*models.AssignmentSubmission, error) {
	if s, ok := m.submissions[id]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memAssignments) FindSubmission(ctx context.Context, assignmentID, studentID string) (*models.AssignmentSubmission, error) {
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID && s.StudentID == studentID {
			copy := *s
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAssignments) ListSubmissions(ctx context.Context, assignmentID string) ([]models.AssignmentSubmission, error) {
	out := make([]models.AssignmentSubmission, 0)
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memAssignments) SubmissionsByStudent(ctx context.Context, studentID string, ids []string) (map[string]models.AssignmentSubmission, error) {
	out := map[string]models.AssignmentSubmission{}
	for _, s := range m.submissions {
		if s.StudentID == studentID {
			out[s.AssignmentID] = *s
		}
	}
	return out, nil
}

func (m *memAssignments) UpdateSubmission(ctx context.Context, s *models.AssignmentSubmission, expected int) error {
	if m.stale || m.submissions[s.ID].Version != expected {
		m.stale = false
		return repository.ErrStaleVersion
	}
	s.Version = expected + 1
	copy := *s
	m.submissions[s.ID] = &copy
	return nil
}

func newAssignmentFixture() (*campus, *memAssignments, *AssignmentService) {
	env := newCampus()
	store := newMemAssignments()
	svc := NewAssignmentService(store, env.classes, env.guard, nil, env.effects)
	svc.now = func() time.Time { return time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC) }
	return env, store, svc
}

func createAssignment(t *testing.T, env *campus, svc *AssignmentService, faculty, subject, due string) *models.Assignment {
	t.Helper()
	a, err := svc.Create(context.Background(), env.claims(faculty), dto.CreateAssignmentRequest{
		Title: subject + " " + due, DueDate: due, Subject: subject, ClassID: "c1",
	})
	require.NoError(t, err)
	return a
}

func TestAssignmentCreateChecksTeachingAndNotifiesClass(t *testing.T) {
	env, _, svc := newAssignmentFixture()
	ctx := context.Background()

	a, err := svc.Create(ctx, env.claims("f2"), dto.CreateAssignmentRequest{Title: "Sets", DueDate: "2026-10-25", Subject: "Math", ClassID: "c1", Status: "Draft"})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentPublished, a.Status)
	assert.ElementsMatch(t, []string{"s1", "s2"}, env.notifier.recipients())

	_, err = svc.Create(ctx, env.claims("f2"), dto.CreateAssignmentRequest{Title: "Optics", DueDate: "2026-10-25", Subject: "Physics", ClassID: "c1"})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Create(ctx, env.claims("f2"), dto.CreateAssignmentRequest{Title: "Sets", DueDate: "soon", Subject: "Math", ClassID: "c1"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(ctx, env.claims("f2"), dto.CreateAssignmentRequest{Title: "Sets", Subject: "Math", ClassID: "c1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Title, dueDate, subject, and classId are required")
}

func TestAssignmentSubmitReviewResubmitCycle(t *testing.T) {
	env, store, svc := newAssignmentFixture()
	ctx := context.Background()
	a := createAssignment(t, env, svc, "f1", "Physics", "2026-10-30")

	sub, err := svc.Submit(ctx, env.claims("s1"), a.ID, dto.SubmitAssignmentRequest{TextAnswer: "draft one"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPending, sub.Status)

	// Another faculty member cannot review it.
	_, err = svc.Review(ctx, env.claims("f2"), sub.ID, dto.ReviewSubmissionRequest{Status: "Approved"})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Review(ctx, env.claims("f1"), sub.ID, dto.ReviewSubmissionRequest{Status: "Done"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Valid status (Approved, Rejected, or Rework) is required")

	reviewed, err := svc.Review(ctx, env.claims("f1"), sub.ID, dto.ReviewSubmissionRequest{Status: "Rework", FacultyRemark: "add diagrams"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRework, reviewed.Status)
	assert.Equal(t, 2, reviewed.Version)

	// A second review of the same outcome is refused until the student resubmits.
	_, err = svc.Review(ctx, env.claims("f1"), sub.ID, dto.ReviewSubmissionRequest{Status: "Approved"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))

	again, err := svc.Submit(ctx, env.claims("s1"), a.ID, dto.SubmitAssignmentRequest{FileURL: strPtr("/uploads/a.pdf")})
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)
	assert.Equal(t, models.SubmissionPending, again.Status)
	assert.Empty(t, again.FacultyRemark)
	assert.Equal(t, "draft one", again.TextAnswer)
	assert.Equal(t, "/uploads/a.pdf", *again.FileURL)
	assert.Len(t, store.submissions, 1)

	_, err = svc.Review(ctx, env.claims("f1"), sub.ID, dto.ReviewSubmissionRequest{Status: "approved"})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, env.claims("s1"), a.ID, dto.SubmitAssignmentRequest{TextAnswer: "late edit"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already been approved")
	assert.Equal(t, models.SubmissionApproved, store.submissions[sub.ID].Status)

	assert.Contains(t, env.users.auditActions(), models.AuditActionSubmissionReview)
	assert.Contains(t, env.users.auditActions(), models.AuditActionAssignmentSubmit)
}

func TestAssignmentReviewStaleVersionIsConflict(t *testing.T) {
	env, store, svc := newAssignmentFixture()
	ctx := context.Background()
	a := createAssignment(t, env, svc, "f1", "Physics", "2026-10-30")
	sub, err := svc.Submit(ctx, env.claims("s2"), a.ID, dto.SubmitAssignmentRequest{TextAnswer: "x"})
	require.NoError(t, err)

	store.stale = true
	_, err = svc.Review(ctx, env.claims("f1"), sub.ID, dto.ReviewSubmissionRequest{Status: "Approved"})
	assert.True(t, appErrors.Is(err, appErrors.ErrVersionConflict))
	assert.Equal(t, models.SubmissionPending, store.submissions[sub.ID].Status)
}

func TestAssignmentSubmitGuards(t *testing.T) {
	env, store, svc := newAssignmentFixture()
	ctx := context.Background()
	a := createAssignment(t, env, svc, "f1", "Physics", "2026-10-30")

	_, err := svc.Submit(ctx, env.claims("s3"), a.ID, dto.SubmitAssignmentRequest{TextAnswer: "x"})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Submit(ctx, env.claims("s1"), a.ID, dto.SubmitAssignmentRequest{FileURL: strPtr("  ")})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	store.items[a.ID].Status = models.AssignmentClosed
	_, err = svc.Submit(ctx, env.claims("s1"), a.ID, dto.SubmitAssignmentRequest{TextAnswer: "x"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
	assert.Empty(t, store.submissions)
}

func TestAssignmentStudentViews(t *testing.T) {
	env, store, svc := newAssignmentFixture()
	ctx := context.Background()
	past := createAssignment(t, env, svc, "f1", "Physics", "2026-10-10")
	for _, due := range []string{"2026-10-18", "2026-10-20", "2026-10-22", "2026-11-01"} {
		createAssignment(t, env, svc, "f2", "Math", due)
	}
	closed := createAssignment(t, env, svc, "f2", "Math", "2026-10-19")
	store.items[closed.ID].Status = models.AssignmentClosed

	_, err := svc.Submit(ctx, env.claims("s1"), past.ID, dto.SubmitAssignmentRequest{TextAnswer: "done"})
	require.NoError(t, err)

	items, total, err := svc.StudentAssignments(ctx, env.claims("s1"), models.Page{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 2)
	assert.Equal(t, past.ID, items[0].ID)
	require.NotNil(t, items[0].Submission)
	assert.Nil(t, items[1].Submission)

	deadlines, err := svc.Upcoming(ctx, env.claims("s1"))
	require.NoError(t, err)
	require.Len(t, deadlines, 3)
	assert.Equal(t, "Math 2026-10-18", deadlines[0].Title)
	assert.Equal(t, "Dr. Iyer", deadlines[0].Faculty)
	assert.Equal(t, "CSE-A", deadlines[0].ClassName)

	deadlines, err = svc.Upcoming(ctx, env.claims("s3"))
	require.NoError(t, err)
	assert.NotNil(t, deadlines)
	assert.Empty(t, deadlines)

	_, _, err = svc.StudentAssignments(ctx, env.claims("s3"), models.Page{})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestAssignmentFacultyViews(t *testing.T) {
	env, _, svc := newAssignmentFixture()
	ctx := context.Background()
	a := createAssignment(t, env, svc, "f1", "Physics", "2026-10-30")
	_, err := svc.Submit(ctx, env.claims("s1"), a.ID, dto.SubmitAssignmentRequest{TextAnswer: "x"})
	require.NoError(t, err)

	items, total, err := svc.FacultyAssignments(ctx, env.claims("f1"), models.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, items[0].SubmissionsPending)
	assert.Equal(t, 1, items[0].SubmissionsTotal)

	_, subs, err := svc.Submissions(ctx, env.claims("f1"), a.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	_, _, err = svc.Submissions(ctx, env.claims("f2"), a.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Get(ctx, env.claims("s2"), a.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, env.claims("s3"), a.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	_, err = svc.Get(ctx, env.claims("f2"), a.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	_, err = svc.Get(ctx, env.claims("a1"), a.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
