package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type memCourses struct {
	courses map[string]*models.SkillCourse
	rounds  map[string]map[int]models.SkillRound
	deleted []string
}

func newMemCourses() *memCourses {
	return &memCourses{courses: map[string]*models.SkillCourse{}, rounds: map[string]map[int]models.SkillRound{}}
}

func (m *memCourses) Create(ctx context.Context, c *models.SkillCourse) error {
	c.ID = fmt.Sprintf("course-%d", len(m.courses)+1)
	copy := *c
	m.courses[c.ID] = &copy
	return nil
}

func (m *memCourses) GetByID(ctx context.Context, id string) (*models.SkillCourse, error) {
	if c, ok := m.courses[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memCourses) List(ctx context.Context, status models.SkillCourseStatus, createdBy string) ([]models.SkillCourse, error) {
	var out []models.SkillCourse
	for _, c := range m.courses {
		if status != "" && c.Status != status {
			continue
		}
		if createdBy != "" && c.CreatedBy != createdBy {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *memCourses) Update(ctx context.Context, c *models.SkillCourse) error {
	if _, ok := m.courses[c.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *c
	m.courses[c.ID] = &copy
	return nil
}

func (m *memCourses) Delete(ctx context.Context, id string) error {
	if _, ok := m.courses[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.courses, id)
	delete(m.rounds, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memCourses) UpsertRound(ctx context.Context, r *models.SkillRound) error {
	if m.rounds[r.CourseID] == nil {
		m.rounds[r.CourseID] = map[int]models.SkillRound{}
	}
	r.ID = fmt.Sprintf("%s-r%d", r.CourseID, r.RoundNumber)
	m.rounds[r.CourseID][r.RoundNumber] = *r
	return nil
}

func (m *memCourses) ListRounds(ctx context.Context, courseID string) ([]models.SkillRound, error) {
	var out []models.SkillRound
	for n := 1; n <= 4; n++ {
		if r, ok := m.rounds[courseID][n]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memCourses) GetRound(ctx context.Context, courseID string, number int) (*models.SkillRound, error) {
	if r, ok := m.rounds[courseID][number]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func quiz(correct ...int) models.QuizQuestions {
	qs := make(models.QuizQuestions, len(correct))
	for i, c := range correct {
		qs[i] = models.QuizQuestion{Question: fmt.Sprintf("Q%d", i+1), Options: []string{"a", "b", "c"}, CorrectIndex: c}
	}
	return qs
}

// publishedCourse creates a fully configured course owned by f1 and publishes it.
func publishedCourse(t *testing.T, env *campus, svc *SkillCourseService, threshold int) *models.SkillCourse {
	t.Helper()
	ctx := context.Background()
	course, err := svc.Create(ctx, env.claims("f1"), dto.SkillCourseRequest{Title: "Go basics", ShortDesc: "Intro", PassThreshold: &threshold})
	require.NoError(t, err)
	for _, r := range []dto.SkillRoundRequest{
		{RoundNumber: 1, LessonTitle: "Welcome", TextContent: "hello"},
		{RoundNumber: 2, QuizTitle: "Quiz", Questions: quiz(0, 1, 2, 0)},
		{RoundNumber: 3, ProjectTitle: "CLI", ProjectRequirements: []string{"tests"}},
		{RoundNumber: 4, QuizTitle: "Final", Questions: quiz(1, 1)},
	} {
		_, err := svc.UpsertRound(ctx, env.claims("f1"), course.ID, r)
		require.NoError(t, err)
	}
	course, err = svc.Publish(ctx, env.claims("f1"), course.ID)
	require.NoError(t, err)
	return course
}

func TestSkillCourseCreateDefaults(t *testing.T) {
	env := newCampus()
	svc := NewSkillCourseService(newMemCourses(), newMemEnrollments(), env.guard, env.effects, 70)
	ctx := context.Background()

	course, err := svc.Create(ctx, env.claims("f1"), dto.SkillCourseRequest{Title: "Go", ShortDesc: "Learn Go"})
	require.NoError(t, err)
	assert.Equal(t, 70, course.PassThreshold)
	assert.Equal(t, models.SkillCourseDraft, course.Status)
	assert.Equal(t, "f1", course.CreatedBy)

	_, err = svc.Create(ctx, env.claims("s1"), dto.SkillCourseRequest{Title: "Go", ShortDesc: "Learn Go"})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Create(ctx, env.claims("f1"), dto.SkillCourseRequest{Title: "Go"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	bad := 120
	_, err = svc.Create(ctx, env.claims("f1"), dto.SkillCourseRequest{Title: "Go", ShortDesc: "x", PassThreshold: &bad})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSkillCoursePublishNeedsEveryRound(t *testing.T) {
	env := newCampus()
	courses := newMemCourses()
	svc := NewSkillCourseService(courses, newMemEnrollments(), env.guard, env.effects, 60)
	ctx := context.Background()

	course, err := svc.Create(ctx, env.claims("f1"), dto.SkillCourseRequest{Title: "Go", ShortDesc: "Learn Go"})
	require.NoError(t, err)
	_, err = svc.UpsertRound(ctx, env.claims("f1"), course.ID, dto.SkillRoundRequest{RoundNumber: 1})
	require.NoError(t, err)

	_, err = svc.Publish(ctx, env.claims("f1"), course.ID)
	require.Error(t, err)
	assert.Equal(t, "round 2 must be configured before publishing", err.Error())
	assert.Equal(t, models.SkillCourseDraft, courses.courses[course.ID].Status)

	published := publishedCourse(t, env, svc, 60)
	assert.Equal(t, models.SkillCoursePublished, published.Status)
}

func TestSkillCourseOnlyCreatorOrAdminManages(t *testing.T) {
	env := newCampus()
	courses := newMemCourses()
	svc := NewSkillCourseService(courses, newMemEnrollments(), env.guard, env.effects, 60)
	ctx := context.Background()

	course, err := svc.Create(ctx, env.claims("f1"), dto.SkillCourseRequest{Title: "Go", ShortDesc: "Learn Go"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, env.claims("f2"), course.ID, dto.SkillCourseRequest{Title: "Stolen"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	assert.Equal(t, "only the creator can manage this course", err.Error())

	_, err = svc.UpsertRound(ctx, env.claims("f2"), course.ID, dto.SkillRoundRequest{RoundNumber: 1})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	updated, err := svc.Update(ctx, env.claims("a1"), course.ID, dto.SkillCourseRequest{Category: "Programming"})
	require.NoError(t, err)
	assert.Equal(t, "Programming", updated.Category)
	assert.Equal(t, "Go", updated.Title)

	_, err = svc.Update(ctx, env.claims("f1"), course.ID, dto.SkillCourseRequest{Status: "Archived"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	require.NoError(t, svc.Delete(ctx, env.claims("f1"), course.ID))
	assert.Equal(t, []string{course.ID}, courses.deleted)

	err = svc.Delete(ctx, env.claims("f1"), course.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSkillRoundValidation(t *testing.T) {
	env := newCampus()
	svc := NewSkillCourseService(newMemCourses(), newMemEnrollments(), env.guard, env.effects, 60)
	ctx := context.Background()

	course, err := svc.Create(ctx, env.claims("f1"), dto.SkillCourseRequest{Title: "Go", ShortDesc: "Learn Go"})
	require.NoError(t, err)

	_, err = svc.UpsertRound(ctx, env.claims("f1"), course.ID, dto.SkillRoundRequest{RoundNumber: 5})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.UpsertRound(ctx, env.claims("f1"), course.ID, dto.SkillRoundRequest{RoundNumber: 2})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.UpsertRound(ctx, env.claims("f1"), course.ID, dto.SkillRoundRequest{
		RoundNumber: 4,
		Questions:   models.QuizQuestions{{Question: "Q", Options: []string{"a", "b"}, CorrectIndex: 2}},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	round, err := svc.UpsertRound(ctx, env.claims("f1"), course.ID, dto.SkillRoundRequest{
		RoundNumber: 1, LessonTitle: "Intro", Questions: quiz(1), ProjectTitle: "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "text", round.ContentType)
	assert.Empty(t, round.Questions)
	assert.Empty(t, round.ProjectTitle)
}

func TestSkillCourseGetHidesAnswersAndDrafts(t *testing.T) {
	env := newCampus()
	enrollments := newMemEnrollments()
	svc := NewSkillCourseService(newMemCourses(), enrollments, env.guard, env.effects, 60)
	ctx := context.Background()

	course := publishedCourse(t, env, svc, 60)
	require.NoError(t, enrollments.Create(ctx, &models.SkillEnrollment{CourseID: course.ID, StudentID: "s1"}))

	detail, err := svc.Get(ctx, env.claims("s1"), course.ID)
	require.NoError(t, err)
	require.Len(t, detail.Rounds, 4)
	for _, q := range detail.Rounds[1].Questions {
		assert.Equal(t, -1, q.CorrectIndex)
	}
	require.NotNil(t, detail.Enrollment)

	owner, err := svc.Get(ctx, env.claims("f1"), course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, owner.Rounds[1].Questions[1].CorrectIndex)
	assert.Nil(t, owner.Enrollment)

	other, err := svc.Get(ctx, env.claims("f2"), course.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, other.Rounds[1].Questions[0].CorrectIndex)

	draft, err := svc.Create(ctx, env.claims("f1"), dto.SkillCourseRequest{Title: "Draft", ShortDesc: "x"})
	require.NoError(t, err)
	_, err = svc.Get(ctx, env.claims("s1"), draft.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	list, err := svc.List(ctx, env.claims("s1"), true)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	mine, err := svc.List(ctx, env.claims("f1"), true)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
