package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

func TestClassServiceCreate(t *testing.T) {
	env := newCampus()
	svc := NewClassService(env.classes, env.users, env.guard, nil, env.effects)
	ctx := context.Background()

	class, err := svc.Create(ctx, env.claims("a1"), dto.CreateClassRequest{
		ClassName:      " ECE-B ",
		ClassTeacherID: "f3",
		Subjects:       []dto.ClassSubjectRequest{{Name: "Circuits", TeacherID: "f2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ECE-B", class.ClassName)
	assert.Equal(t, "f3", *class.ClassTeacherID)
	assert.Contains(t, env.users.auditActions(), models.AuditActionClassCreate)

	_, err = svc.Create(ctx, env.claims("a1"), dto.CreateClassRequest{ClassName: "X", ClassTeacherID: "s1"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(ctx, env.claims("a1"), dto.CreateClassRequest{
		ClassName: "Y",
		Subjects:  []dto.ClassSubjectRequest{{Name: "Math"}, {Name: "Math"}},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(ctx, env.claims("a1"), dto.CreateClassRequest{ClassName: "CSE-A"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	_, err = svc.Create(ctx, env.claims("f1"), dto.CreateClassRequest{ClassName: "Z"})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestClassServiceAssignStudent(t *testing.T) {
	env := newCampus()
	svc := NewClassService(env.classes, env.users, env.guard, nil, env.effects)
	ctx := context.Background()

	class, err := svc.AssignStudent(ctx, env.claims("a1"), "c1", "s3")
	require.NoError(t, err)
	assert.True(t, class.HasStudent("s3"))
	assert.Equal(t, "CSE-A", env.users.users["s3"].ClassNameValue())

	_, err = svc.AssignStudent(ctx, env.claims("a1"), "c1", "f2")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.AssignStudent(ctx, env.claims("a1"), "missing", "s3")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestClassServiceGetChecksRelationship(t *testing.T) {
	env := newCampus()
	svc := NewClassService(env.classes, env.users, env.guard, nil, env.effects)
	ctx := context.Background()

	for _, id := range []string{"a1", "h1", "f1", "f2", "s1"} {
		_, err := svc.Get(ctx, env.claims(id), "c1")
		assert.NoError(t, err, id)
	}

	_, err := svc.Get(ctx, env.claims("f3"), "c1")
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Get(ctx, env.claims("s3"), "c1")
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestClassServiceListMine(t *testing.T) {
	env := newCampus()
	svc := NewClassService(env.classes, env.users, env.guard, nil, env.effects)
	ctx := context.Background()

	classes, err := svc.ListMine(ctx, env.claims("f2"))
	require.NoError(t, err)
	require.Len(t, classes, 1)

	classes, err = svc.ListMine(ctx, env.claims("f3"))
	require.NoError(t, err)
	assert.Empty(t, classes)

	classes, err = svc.ListMine(ctx, env.claims("s1"))
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "CSE-A", classes[0].ClassName)

	classes, err = svc.ListMine(ctx, env.claims("s3"))
	require.NoError(t, err)
	assert.Empty(t, classes)
}
