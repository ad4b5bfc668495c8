// Package seed loads users and classes from a YAML fixture into the stores.
package seed

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/campus-api/internal/models"
)

// File models a seed fixture.
type File struct {
	Users   []User  `yaml:"users"`
	Classes []Class `yaml:"classes"`
}

type User struct {
	Name       string `yaml:"name"`
	Email      string `yaml:"email"`
	Password   string `yaml:"password"`
	Role       string `yaml:"role"`
	Department string `yaml:"department"`
}

type Class struct {
	Name         string    `yaml:"name"`
	Department   string    `yaml:"department"`
	ClassTeacher string    `yaml:"classTeacher"`
	Subjects     []Subject `yaml:"subjects"`
	Students     []string  `yaml:"students"`
}

type Subject struct {
	Name    string `yaml:"name"`
	Teacher string `yaml:"teacher"`
}

// Result counts what Apply changed.
type Result struct {
	UsersCreated     int `json:"usersCreated"`
	UsersSkipped     int `json:"usersSkipped"`
	ClassesCreated   int `json:"classesCreated"`
	ClassesSkipped   int `json:"classesSkipped"`
	StudentsAssigned int `json:"studentsAssigned"`
}

// UserStore is the subset of the user repository the seeder needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	AssignClass(ctx context.Context, userID, className string) error
}

// ClassStore is the subset of the class repository the seeder needs.
type ClassStore interface {
	FindByName(ctx context.Context, name string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
}

// ReadFile parses and validates a fixture from disk.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a fixture, rejecting unknown keys.
func Parse(data []byte) (*File, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks roles, required fields and cross references between users and classes.
func (f *File) Validate() error {
	roles := make(map[string]models.Role, len(f.Users))
	for i, u := range f.Users {
		email := normalizeEmail(u.Email)
		if email == "" || strings.TrimSpace(u.Name) == "" {
			return fmt.Errorf("users[%d]: name and email are required", i)
		}
		if len(u.Password) < 6 {
			return fmt.Errorf("users[%d]: password must be at least 6 characters", i)
		}
		role, ok := models.ParseRole(u.Role)
		if !ok {
			return fmt.Errorf("users[%d]: unknown role %q", i, u.Role)
		}
		if _, dup := roles[email]; dup {
			return fmt.Errorf("users[%d]: duplicate email %s", i, email)
		}
		roles[email] = role
	}

	for i, c := range f.Classes {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("classes[%d]: name is required", i)
		}
		if c.ClassTeacher != "" {
			if err := expectRole(roles, c.ClassTeacher, models.RoleFaculty); err != nil {
				return fmt.Errorf("classes[%d].classTeacher: %w", i, err)
			}
		}
		for j, s := range c.Subjects {
			if strings.TrimSpace(s.Name) == "" {
				return fmt.Errorf("classes[%d].subjects[%d]: name is required", i, j)
			}
			if s.Teacher != "" {
				if err := expectRole(roles, s.Teacher, models.RoleFaculty); err != nil {
					return fmt.Errorf("classes[%d].subjects[%d].teacher: %w", i, j, err)
				}
			}
		}
		for j, email := range c.Students {
			if err := expectRole(roles, email, models.RoleStudent); err != nil {
				return fmt.Errorf("classes[%d].students[%d]: %w", i, j, err)
			}
		}
	}
	return nil
}

func expectRole(roles map[string]models.Role, email string, want models.Role) error {
	role, ok := roles[normalizeEmail(email)]
	if !ok {
		// referenced users may already exist in the database
		return nil
	}
	if role != want {
		return fmt.Errorf("%s has role %s, want %s", email, role, want)
	}
	return nil
}

// Seeder writes fixtures through the repositories. Existing users and classes are left untouched.
type Seeder struct {
	users   UserStore
	classes ClassStore
	logger  *zap.Logger
	cost    int
}

func New(users UserStore, classes ClassStore, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{users: users, classes: classes, logger: logger, cost: bcrypt.DefaultCost}
}

// Apply creates missing users first, then classes, then assigns students.
func (s *Seeder) Apply(ctx context.Context, file *File) (*Result, error) {
	result := &Result{}
	ids := make(map[string]string)

	for _, u := range file.Users {
		email := normalizeEmail(u.Email)
		existing, err := s.users.FindByEmail(ctx, email)
		switch {
		case err == nil:
			ids[email] = existing.ID
			result.UsersSkipped++
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return result, fmt.Errorf("lookup %s: %w", email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.cost)
		if err != nil {
			return result, fmt.Errorf("hash password for %s: %w", email, err)
		}
		role, _ := models.ParseRole(u.Role)
		user := &models.User{
			Name:         strings.TrimSpace(u.Name),
			Email:        email,
			PasswordHash: string(hash),
			Role:         role,
			Department:   strings.TrimSpace(u.Department),
			Active:       true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return result, fmt.Errorf("create user %s: %w", email, err)
		}
		ids[email] = user.ID
		result.UsersCreated++
		s.logger.Info("seeded user", zap.String("email", email), zap.String("role", string(role)))
	}

	for _, c := range file.Classes {
		name := strings.TrimSpace(c.Name)
		if _, err := s.classes.FindByName(ctx, name); err == nil {
			result.ClassesSkipped++
		} else if !errors.Is(err, sql.ErrNoRows) {
			return result, fmt.Errorf("lookup class %s: %w", name, err)
		} else {
			class, err := s.buildClass(ctx, c, ids)
			if err != nil {
				return result, err
			}
			if err := s.classes.Create(ctx, class); err != nil {
				return result, fmt.Errorf("create class %s: %w", name, err)
			}
			result.ClassesCreated++
			s.logger.Info("seeded class", zap.String("class", name), zap.Int("subjects", len(class.Subjects)))
		}

		for _, email := range c.Students {
			id, err := s.resolve(ctx, email, ids)
			if err != nil {
				return result, fmt.Errorf("class %s: %w", name, err)
			}
			if err := s.users.AssignClass(ctx, id, name); err != nil {
				return result, fmt.Errorf("assign %s to %s: %w", email, name, err)
			}
			result.StudentsAssigned++
		}
	}
	return result, nil
}

func (s *Seeder) buildClass(ctx context.Context, c Class, ids map[string]string) (*models.Class, error) {
	class := &models.Class{
		ClassName:  strings.TrimSpace(c.Name),
		Department: strings.TrimSpace(c.Department),
	}
	if c.ClassTeacher != "" {
		id, err := s.resolve(ctx, c.ClassTeacher, ids)
		if err != nil {
			return nil, fmt.Errorf("class %s teacher: %w", class.ClassName, err)
		}
		class.ClassTeacherID = &id
	}
	for _, subj := range c.Subjects {
		subject := models.ClassSubject{Name: strings.TrimSpace(subj.Name)}
		if subj.Teacher != "" {
			id, err := s.resolve(ctx, subj.Teacher, ids)
			if err != nil {
				return nil, fmt.Errorf("class %s subject %s: %w", class.ClassName, subject.Name, err)
			}
			subject.TeacherID = &id
		}
		class.Subjects = append(class.Subjects, subject)
	}
	return class, nil
}

func (s *Seeder) resolve(ctx context.Context, email string, ids map[string]string) (string, error) {
	email = normalizeEmail(email)
	if id, ok := ids[email]; ok {
		return id, nil
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("unknown user %s", email)
		}
		return "", err
	}
	ids[email] = user.ID
	return user.ID, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
