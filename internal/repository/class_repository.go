package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-api/internal/models"
)

const classColumns = `id, class_name, department, class_teacher_id, created_at, updated_at`

// ClassRepository persists classes together with their subject teachers.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new instance of ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID returns a class with its subjects and student ids.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	return r.findOne(ctx, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id)
}

// FindByName returns a class by its unique name.
func (r *ClassRepository) FindByName(ctx context.Context, name string) (*models.Class, error) {
	return r.findOne(ctx, `SELECT `+classColumns+` FROM classes WHERE class_name = $1`, name)
}

func (r *ClassRepository) findOne(ctx context.Context, query string, arg string) (*models.Class, error) {
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get class: %w", err)
	}
	if err := r.loadRelations(ctx, &class); err != nil {
		return nil, err
	}
	return &class, nil
}

// List returns every class ordered by name.
func (r *ClassRepository) List(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, `SELECT `+classColumns+` FROM classes ORDER BY class_name ASC`); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	for i := range classes {
		if err := r.loadRelations(ctx, &classes[i]); err != nil {
			return nil, err
		}
	}
	return classes, nil
}

// ListForTeacher returns classes where the teacher is class teacher or teaches a subject.
func (r *ClassRepository) ListForTeacher(ctx context.Context, teacherID string) ([]models.Class, error) {
	const query = `SELECT c.id, c.class_name, c.department, c.class_teacher_id, c.created_at, c.updated_at
FROM classes c
WHERE c.class_teacher_id = $1
   OR EXISTS (SELECT 1 FROM class_subjects cs WHERE cs.class_id = c.id AND cs.teacher_id = $1)
ORDER BY c.class_name ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list classes for teacher: %w", err)
	}
	for i := range classes {
		if err := r.loadRelations(ctx, &classes[i]); err != nil {
			return nil, err
		}
	}
	return classes, nil
}

func (r *ClassRepository) loadRelations(ctx context.Context, class *models.Class) error {
	const subjectsQuery = `SELECT class_id, name, teacher_id, position FROM class_subjects WHERE class_id = $1 ORDER BY position ASC`
	if err := r.db.SelectContext(ctx, &class.Subjects, subjectsQuery, class.ID); err != nil {
		return fmt.Errorf("list class subjects: %w", err)
	}
	const studentsQuery = `SELECT id FROM users WHERE class_name = $1 AND role = 'student' ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &class.StudentIDs, studentsQuery, class.ClassName); err != nil {
		return fmt.Errorf("list class students: %w", err)
	}
	return nil
}

// Create inserts the class and its subjects in one transaction.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) (err error) {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create class: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertClass = `INSERT INTO classes (id, class_name, department, class_teacher_id, created_at, updated_at)
VALUES (:id, :class_name, :department, :class_teacher_id, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertClass, class); err != nil {
		return wrapWrite(err, "create class")
	}

	const insertSubject = `INSERT INTO class_subjects (class_id, name, teacher_id, position) VALUES (:class_id, :name, :teacher_id, :position)`
	for i := range class.Subjects {
		class.Subjects[i].ClassID = class.ID
		class.Subjects[i].Position = i
		if _, err = tx.NamedExecContext(ctx, insertSubject, &class.Subjects[i]); err != nil {
			return wrapWrite(err, "create class subject")
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create class: %w", err)
	}
	return nil
}
