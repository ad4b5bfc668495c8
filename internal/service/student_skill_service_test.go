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
	"github.com/noah-isme/campus-api/internal/repository"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type memStudentSkills struct {
	items      map[string]*models.StudentSkill
	lastFilter models.StudentSkillFilter
	listed     bool
}

func (m *memStudentSkills) Create(ctx context.Context, skill *models.StudentSkill) error {
	skill.ID = fmt.Sprintf("sk-%d", len(m.items)+1)
	skill.Version = 1
	copy := *skill
	m.items[skill.ID] = &copy
	return nil
}

func (m *memStudentSkills) GetByID(ctx context.Context, id string) (*models.StudentSkill, error) {
	k, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *k
	return &copy, nil
}

func (m *memStudentSkills) List(ctx context.Context, filter models.StudentSkillFilter) ([]models.StudentSkill, int, error) {
	m.listed = true
	m.lastFilter = filter
	out := make([]models.StudentSkill, 0)
	for _, k := range m.items {
		if filter.StudentID != "" && k.StudentID != filter.StudentID {
			continue
		}
		if len(filter.ClassNames) > 0 && (k.ClassName == nil || !containsString(filter.ClassNames, *k.ClassName)) {
			continue
		}
		out = append(out, *k)
	}
	return out, len(out), nil
}

func (m *memStudentSkills) UpdateReview(ctx context.Context, skill *models.StudentSkill, expectedVersion int) error {
	stored, ok := m.items[skill.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if stored.Version != expectedVersion {
		return repository.ErrStaleVersion
	}
	skill.Version = expectedVersion + 1
	copy := *skill
	m.items[skill.ID] = &copy
	return nil
}

func newStudentSkillFixture(t *testing.T) (*campus, *memStudentSkills, *StudentSkillService, *models.StudentSkill) {
	t.Helper()
	env := newCampus()
	store := &memStudentSkills{items: map[string]*models.StudentSkill{}}
	svc := NewStudentSkillService(store, env.classes, env.guard, env.effects)
	skill, err := svc.Submit(context.Background(), env.claims("s1"), dto.SubmitSkillRequest{Title: "  AWS Practitioner ", Provider: "AWS"})
	require.NoError(t, err)
	return env, store, svc, skill
}

func TestStudentSkillSubmit(t *testing.T) {
	env, _, svc, skill := newStudentSkillFixture(t)
	assert.Equal(t, "AWS Practitioner", skill.Title)
	assert.Equal(t, models.SkillPending, skill.Status)
	assert.Nil(t, skill.CertificateURL)
	assert.Equal(t, "CSE-A", *skill.ClassName)

	_, err := svc.Submit(context.Background(), env.claims("s1"), dto.SubmitSkillRequest{Title: " "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Title is required")

	_, err = svc.Submit(context.Background(), env.claims("f1"), dto.SubmitSkillRequest{Title: "Go"})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestStudentSkillOnlyClassFacultyReviews(t *testing.T) {
	env, _, svc, skill := newStudentSkillFixture(t)

	_, err := svc.Approve(context.Background(), env.claims("f3"), skill.ID, dto.SkillDecisionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "You can only approve skills from students in your assigned classes")

	approved, err := svc.Approve(context.Background(), env.claims("f2"), skill.ID, dto.SkillDecisionRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.SkillApproved, approved.Status)
	assert.Equal(t, "f2", *approved.ApprovedBy)
	assert.Equal(t, []string{"s1"}, env.notifier.recipients())

	_, err = svc.Approve(context.Background(), env.claims("f1"), skill.ID, dto.SkillDecisionRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
}

func TestStudentSkillRejectNeedsRemarks(t *testing.T) {
	env, store, svc, skill := newStudentSkillFixture(t)

	_, err := svc.Reject(context.Background(), env.claims("f1"), skill.ID, dto.SkillDecisionRequest{Remarks: "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Remarks are required when rejecting a skill")

	rejected, err := svc.Reject(context.Background(), env.claims("f1"), skill.ID, dto.SkillDecisionRequest{Remarks: "certificate link is broken"})
	require.NoError(t, err)
	assert.Equal(t, "certificate link is broken", *rejected.Remarks)

	_, err = svc.Approve(context.Background(), env.claims("a1"), skill.ID, dto.SkillDecisionRequest{Version: 1})
	assert.True(t, appErrors.Is(err, appErrors.ErrVersionConflict))

	approved, err := svc.Approve(context.Background(), env.claims("a1"), skill.ID, dto.SkillDecisionRequest{})
	require.NoError(t, err)
	assert.Nil(t, approved.Remarks)
	assert.Equal(t, 3, store.items[skill.ID].Version)
}

func TestStudentSkillReviewerListing(t *testing.T) {
	env, store, svc, _ := newStudentSkillFixture(t)

	items, total, err := svc.ForReviewer(context.Background(), env.claims("f2"), dto.SkillQuery{}, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)
	assert.Equal(t, []string{"CSE-A"}, store.lastFilter.ClassNames)

	store.listed = false
	items, total, err = svc.ForReviewer(context.Background(), env.claims("f3"), dto.SkillQuery{}, models.Page{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, items)
	assert.False(t, store.listed)

	mine, _, err := svc.Mine(context.Background(), env.claims("s2"), models.Page{})
	require.NoError(t, err)
	assert.Empty(t, mine)
}
