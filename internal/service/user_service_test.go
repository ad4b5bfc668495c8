package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-api/internal/dto"
	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

func TestUserServiceCreate(t *testing.T) {
	env := newCampus()
	svc := NewUserService(env.users, nil, nil)
	svc.cost = bcrypt.MinCost

	user, err := svc.Create(context.Background(), env.claims("a1"), dto.CreateUserRequest{
		Name:      "Dina",
		Email:     "DINA@Campus.test",
		Password:  "secret1",
		Role:      "Student",
		ClassName: "CSE-A",
	})
	require.NoError(t, err)
	assert.Equal(t, "dina@campus.test", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, "CSE-A", user.ClassNameValue())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
	require.Contains(t, env.users.auditActions(), models.AuditActionUserCreate)
	last := env.users.audits[len(env.users.audits)-1]
	assert.Equal(t, user.ID, *last.ResourceID)
	assert.JSONEq(t, `{"email":"dina@campus.test","role":"student","className":"CSE-A"}`, string(last.NewValues))
}

func TestUserServiceCreateIgnoresClassForStaff(t *testing.T) {
	env := newCampus()
	svc := NewUserService(env.users, nil, nil)

	user, err := svc.Create(context.Background(), env.claims("a1"), dto.CreateUserRequest{
		Name: "Eve", Email: "eve@campus.test", Password: "secret1", Role: models.RoleFaculty, ClassName: "CSE-A",
	})
	require.NoError(t, err)
	assert.Nil(t, user.ClassName)
}

func TestUserServiceCreateRejects(t *testing.T) {
	env := newCampus()
	svc := NewUserService(env.users, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, env.claims("f1"), dto.CreateUserRequest{Name: "X", Email: "x@campus.test", Password: "secret1", Role: models.RoleStudent})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Create(ctx, env.claims("a1"), dto.CreateUserRequest{Name: "X", Email: "x@campus.test", Password: "secret1", Role: "principal"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, "role must be one of student, faculty, admin, hr", err.Error())

	_, err = svc.Create(ctx, env.claims("a1"), dto.CreateUserRequest{Name: "X", Email: "asha@campus.test", Password: "secret1", Role: models.RoleStudent})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	_, err = svc.Create(ctx, env.claims("a1"), dto.CreateUserRequest{Name: "X", Email: "x@campus.test", Password: "123", Role: models.RoleStudent})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestUserServiceListAndGet(t *testing.T) {
	env := newCampus()
	svc := NewUserService(env.users, nil, nil)
	ctx := context.Background()

	role := models.RoleFaculty
	users, total, err := svc.List(ctx, models.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, users, 3)

	bad := models.Role("root")
	_, _, err = svc.List(ctx, models.UserFilter{Role: &bad})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Get(ctx, "missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
