package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
)

// memUsers is an in-memory user store shared by the service tests.
type memUsers struct {
	mu     sync.Mutex
	users  map[string]*models.User
	audits []*models.AuditLog
	seq    int
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memUsers) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.ClassName != "" && u.ClassNameValue() != filter.ClassName {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *memUsers) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		m.seq++
		user.ID = fmt.Sprintf("user-%d", m.seq)
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *memUsers) AssignClass(ctx context.Context, userID, className string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	name := className
	u.ClassName = &name
	return nil
}

func (m *memUsers) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, log)
	return nil
}

func (m *memUsers) auditActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	actions := make([]string, 0, len(m.audits))
	for _, a := range m.audits {
		actions = append(actions, a.Action)
	}
	return actions
}

// memClasses is an in-memory class store.
type memClasses struct {
	classes map[string]*models.Class
	users   *memUsers
}

func (m *memClasses) withStudents(c models.Class) *models.Class {
	if m.users != nil {
		students, _, _ := m.users.List(context.Background(), models.UserFilter{ClassName: c.ClassName})
		c.StudentIDs = nil
		for _, s := range students {
			if s.Role == models.RoleStudent {
				c.StudentIDs = append(c.StudentIDs, s.ID)
			}
		}
	}
	return &c
}

func (m *memClasses) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return m.withStudents(*c), nil
	}
	return nil, sql.ErrNoRows
}

func (m *memClasses) FindByName(ctx context.Context, name string) (*models.Class, error) {
	for _, c := range m.classes {
		if c.ClassName == name {
			return m.withStudents(*c), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memClasses) List(ctx context.Context) ([]models.Class, error) {
	var out []models.Class
	for _, c := range m.classes {
		out = append(out, *m.withStudents(*c))
	}
	return out, nil
}

func (m *memClasses) ListForTeacher(ctx context.Context, teacherID string) ([]models.Class, error) {
	var out []models.Class
	for _, c := range m.classes {
		if authz.TeachesClass(c, teacherID) {
			out = append(out, *m.withStudents(*c))
		}
	}
	return out, nil
}

func (m *memClasses) Create(ctx context.Context, class *models.Class) error {
	for _, c := range m.classes {
		if c.ClassName == class.ClassName {
			return repository.ErrDuplicate
		}
	}
	if class.ID == "" {
		class.ID = fmt.Sprintf("class-%d", len(m.classes)+1)
	}
	copy := *class
	m.classes[class.ID] = &copy
	return nil
}

// recordingNotifier captures notifications instead of enqueueing them.
type recordingNotifier struct {
	mu    sync.Mutex
	sent  []models.Notification
	fails error
}

func (n *recordingNotifier) Notify(ctx context.Context, note models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fails != nil {
		return n.fails
	}
	n.sent = append(n.sent, note)
	return nil
}

func (n *recordingNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.RecipientID)
	}
	return out
}

func strPtr(s string) *string { return &s }

func claimsOf(u *models.User) *models.JWTClaims {
	return &models.JWTClaims{UserID: u.ID, Role: u.Role}
}

// campus is the fixture most service tests start from: one class CSE-A taught by
// faculty f1 (class teacher, Physics) and f2 (Math), student s1 and s2 in CSE-A, student
// s3 without a class, an admin and an hr user.
type campus struct {
	users    *memUsers
	classes  *memClasses
	guard    *authz.Guard
	notifier *recordingNotifier
	effects  WorkflowEffects
}

func newCampus() *campus {
	users := &memUsers{users: map[string]*models.User{
		"s1": {ID: "s1", Name: "Asha", Email: "asha@campus.test", Role: models.RoleStudent, ClassName: strPtr("CSE-A"), Active: true},
		"s2": {ID: "s2", Name: "Bilal", Email: "bilal@campus.test", Role: models.RoleStudent, ClassName: strPtr("CSE-A"), Active: true},
		"s3": {ID: "s3", Name: "Chen", Email: "chen@campus.test", Role: models.RoleStudent, Active: true},
		"f1": {ID: "f1", Name: "Dr. Rao", Email: "rao@campus.test", Role: models.RoleFaculty, Active: true},
		"f2": {ID: "f2", Name: "Dr. Iyer", Email: "iyer@campus.test", Role: models.RoleFaculty, Active: true},
		"f3": {ID: "f3", Name: "Dr. Nair", Email: "nair@campus.test", Role: models.RoleFaculty, Active: true},
		"a1": {ID: "a1", Name: "Admin", Email: "admin@campus.test", Role: models.RoleAdmin, Active: true},
		"h1": {ID: "h1", Name: "HR", Email: "hr@campus.test", Role: models.RoleHR, Active: true},
	}}
	classes := &memClasses{users: users, classes: map[string]*models.Class{
		"c1": {
			ID:             "c1",
			ClassName:      "CSE-A",
			Department:     "CSE",
			ClassTeacherID: strPtr("f1"),
			Subjects: []models.ClassSubject{
				{Name: "Math", TeacherID: strPtr("f2")},
				{Name: "Physics", TeacherID: strPtr("f1")},
			},
		},
	}}
	notifier := &recordingNotifier{}
	return &campus{
		users:    users,
		classes:  classes,
		guard:    authz.NewGuard(users, nil),
		notifier: notifier,
		effects:  WorkflowEffects{Audit: users, Notifier: notifier},
	}
}

func (c *campus) claims(id string) *models.JWTClaims {
	return claimsOf(c.users.users[id])
}
