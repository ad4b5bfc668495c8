package authz

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

type userStub struct {
	users map[string]*models.User
}

func (s *userStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func strPtr(s string) *string { return &s }

func claims(id string, role models.Role) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: role}
}

func TestRequireRole(t *testing.T) {
	assert.True(t, appErrors.Is(RequireRole(nil, models.RoleAdmin), appErrors.ErrUnauthorized))

	err := RequireRole(claims("u1", models.RoleStudent), models.RoleFaculty, models.RoleAdmin)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	assert.Equal(t, InsufficientRole, err.Error())

	assert.Error(t, RequireRole(claims("u1", models.Role("root")), models.Role("root")))
	assert.NoError(t, RequireRole(claims("u1", models.RoleAdmin), models.RoleAdmin))
}

func TestReverify(t *testing.T) {
	stub := &userStub{users: map[string]*models.User{
		"fac-1":   {ID: "fac-1", Role: models.RoleFaculty, Active: true},
		"demoted": {ID: "demoted", Role: models.RoleStudent, Active: true},
		"off":     {ID: "off", Role: models.RoleFaculty, Active: false},
	}}
	guard := NewGuard(stub, nil)
	ctx := context.Background()

	user, err := guard.Reverify(ctx, claims("fac-1", models.RoleFaculty), models.RoleFaculty)
	require.NoError(t, err)
	assert.Equal(t, "fac-1", user.ID)

	_, err = guard.Reverify(ctx, claims("demoted", models.RoleFaculty), models.RoleFaculty)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = guard.Reverify(ctx, claims("off", models.RoleFaculty), models.RoleFaculty)
	assert.True(t, appErrors.Is(err, appErrors.ErrInactiveAccount))

	_, err = guard.Reverify(ctx, claims("ghost", models.RoleFaculty), models.RoleFaculty)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestClassRelationships(t *testing.T) {
	class := &models.Class{
		ClassName:      "CSE-A",
		ClassTeacherID: strPtr("ct"),
		Subjects: []models.ClassSubject{
			{Name: "Math", TeacherID: strPtr("math-t")},
			{Name: "Physics"},
		},
	}

	assert.NoError(t, RequireClassTeacherOrSubjectTeacher(class, "Physics", "ct"))
	assert.NoError(t, RequireClassTeacherOrSubjectTeacher(class, "Math", "math-t"))
	assert.True(t, appErrors.Is(RequireClassTeacherOrSubjectTeacher(class, "Physics", "math-t"), appErrors.ErrForbidden))
	assert.True(t, appErrors.Is(RequireClassTeacherOrSubjectTeacher(class, "Biology", "ct"), appErrors.ErrValidation))

	assert.True(t, TeachesClass(class, "math-t"))
	assert.False(t, TeachesClass(class, "stranger"))
	assert.True(t, appErrors.Is(RequireTeachesClass(class, "stranger"), appErrors.ErrForbidden))
	assert.True(t, appErrors.Is(RequireTeachesClass(nil, "ct"), appErrors.ErrNotFound))
}

func TestRequireCreator(t *testing.T) {
	assert.NoError(t, RequireCreator("fac-1", claims("fac-1", models.RoleFaculty), "course", true))
	assert.NoError(t, RequireCreator("fac-1", claims("adm", models.RoleAdmin), "course", true))
	err := RequireCreator("fac-1", claims("adm", models.RoleAdmin), "event", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event")
}

func TestRequireComplaintReader(t *testing.T) {
	c := &models.Complaint{RaisedByID: "stu", TargetFacultyID: strPtr("fac")}

	assert.NoError(t, RequireComplaintReader(c, claims("stu", models.RoleStudent)))
	assert.NoError(t, RequireComplaintReader(c, claims("fac", models.RoleFaculty)))
	assert.NoError(t, RequireComplaintReader(c, claims("any-admin", models.RoleAdmin)))
	assert.True(t, appErrors.Is(RequireComplaintReader(c, claims("other", models.RoleStudent)), appErrors.ErrForbidden))
	assert.True(t, appErrors.Is(RequireComplaintReader(c, claims("fac2", models.RoleFaculty)), appErrors.ErrForbidden))
}
