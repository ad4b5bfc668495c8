package seed

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-api/internal/models"
)

const fixture = `
users:
  - name: Dr. Rao
    email: Rao@campus.edu
    password: secret1
    role: faculty
    department: CSE
  - name: Asha
    email: asha@campus.edu
    password: secret2
    role: student
classes:
  - name: CSE-A
    department: CSE
    classTeacher: rao@campus.edu
    subjects:
      - name: Math
        teacher: rao@campus.edu
      - name: Physics
    students:
      - asha@campus.edu
`

type memoryUsers struct {
	byEmail  map[string]*models.User
	assigned map[string]string
	seq      int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: map[string]*models.User{}, assigned: map[string]string{}}
}

func (m *memoryUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryUsers) Create(ctx context.Context, user *models.User) error {
	m.seq++
	user.ID = fmt.Sprintf("u-%d", m.seq)
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUsers) AssignClass(ctx context.Context, userID, className string) error {
	m.assigned[userID] = className
	return nil
}

type memoryClasses struct {
	created []*models.Class
}

func (m *memoryClasses) FindByName(ctx context.Context, name string) (*models.Class, error) {
	for _, c := range m.created {
		if c.ClassName == name {
			return c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryClasses) Create(ctx context.Context, class *models.Class) error {
	class.ID = "class-1"
	m.created = append(m.created, class)
	return nil
}

func TestParseRejectsUnknownRole(t *testing.T) {
	_, err := Parse([]byte("users:\n  - name: X\n    email: x@campus.edu\n    password: secret1\n    role: dean\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("teachers: []\n"))
	require.Error(t, err)
}

func TestParseRejectsStudentAsClassTeacher(t *testing.T) {
	data := `
users:
  - name: Asha
    email: asha@campus.edu
    password: secret2
    role: student
classes:
  - name: CSE-A
    classTeacher: asha@campus.edu
`
	_, err := Parse([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want faculty")
}

func TestSeederApply(t *testing.T) {
	file, err := Parse([]byte(fixture))
	require.NoError(t, err)

	users := newMemoryUsers()
	classes := &memoryClasses{}
	seeder := New(users, classes, nil)
	seeder.cost = bcrypt.MinCost

	result, err := seeder.Apply(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, &Result{UsersCreated: 2, ClassesCreated: 1, StudentsAssigned: 1}, result)

	rao := users.byEmail["rao@campus.edu"]
	require.NotNil(t, rao)
	assert.Equal(t, models.RoleFaculty, rao.Role)
	assert.True(t, rao.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(rao.PasswordHash), []byte("secret1")))

	require.Len(t, classes.created, 1)
	class := classes.created[0]
	require.NotNil(t, class.ClassTeacherID)
	assert.Equal(t, rao.ID, *class.ClassTeacherID)
	require.Len(t, class.Subjects, 2)
	require.NotNil(t, class.Subjects[0].TeacherID)
	assert.Equal(t, rao.ID, *class.Subjects[0].TeacherID)
	assert.Nil(t, class.Subjects[1].TeacherID)

	asha := users.byEmail["asha@campus.edu"]
	assert.Equal(t, "CSE-A", users.assigned[asha.ID])
}

func TestSeederApplyIsIdempotent(t *testing.T) {
	file, err := Parse([]byte(fixture))
	require.NoError(t, err)

	users := newMemoryUsers()
	classes := &memoryClasses{}
	seeder := New(users, classes, nil)
	seeder.cost = bcrypt.MinCost

	_, err = seeder.Apply(context.Background(), file)
	require.NoError(t, err)
	result, err := seeder.Apply(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, 2, result.UsersSkipped)
	assert.Equal(t, 1, result.ClassesSkipped)
	assert.Zero(t, result.UsersCreated)
	assert.Len(t, classes.created, 1)
}

func TestSeederApplyUnknownStudent(t *testing.T) {
	file := &File{Classes: []Class{{Name: "CSE-B", Students: []string{"ghost@campus.edu"}}}}
	seeder := New(newMemoryUsers(), &memoryClasses{}, nil)

	_, err := seeder.Apply(context.Background(), file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown user ghost@campus.edu")
}
