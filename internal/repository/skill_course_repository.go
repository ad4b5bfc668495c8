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

const courseSelect = `SELECT sc.id, sc.title, sc.short_desc, sc.long_desc, sc.category, sc.pass_threshold, sc.created_by,
       u.name AS creator_name, sc.status, sc.created_at, sc.updated_at
FROM skill_courses sc
LEFT JOIN users u ON u.id = sc.created_by`

const roundColumns = `id, course_id, round_number, lesson_title, content_type, video_url, text_content, quiz_title, questions,
       project_title, project_brief, project_requirements, created_at, updated_at`

// SkillCourseRepository persists skill courses and their rounds.
type SkillCourseRepository struct {
	db *sqlx.DB
}

// NewSkillCourseRepository constructs the repository.
func NewSkillCourseRepository(db *sqlx.DB) *SkillCourseRepository {
	return &SkillCourseRepository{db: db}
}

// Create inserts a course.
func (r *SkillCourseRepository) Create(ctx context.Context, course *models.SkillCourse) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO skill_courses (id, title, short_desc, long_desc, category, pass_threshold, created_by, status, created_at, updated_at)
VALUES (:id, :title, :short_desc, :long_desc, :category, :pass_threshold, :created_by, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return wrapWrite(err, "create skill course")
	}
	return nil
}

// GetByID fetches a course.
func (r *SkillCourseRepository) GetByID(ctx context.Context, id string) (*models.SkillCourse, error) {
	var course models.SkillCourse
	if err := r.db.GetContext(ctx, &course, courseSelect+` WHERE sc.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get skill course: %w", err)
	}
	return &course, nil
}

// List returns courses. An empty status lists every course; createdBy narrows to one author.
func (r *SkillCourseRepository) List(ctx context.Context, status models.SkillCourseStatus, createdBy string) ([]models.SkillCourse, error) {
	query := courseSelect + ` WHERE ($1 = '' OR sc.status = $1) AND ($2 = '' OR sc.created_by = $2) ORDER BY sc.created_at DESC`
	var courses []models.SkillCourse
	if err := r.db.SelectContext(ctx, &courses, query, string(status), createdBy); err != nil {
		return nil, fmt.Errorf("list skill courses: %w", err)
	}
	return courses, nil
}

// Update stores editable course fields.
func (r *SkillCourseRepository) Update(ctx context.Context, course *models.SkillCourse) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE skill_courses SET title = :title, short_desc = :short_desc, long_desc = :long_desc, category = :category,
pass_threshold = :pass_threshold, status = :status, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("update skill course: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update skill course rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the course with its rounds, enrollments and submissions.
func (r *SkillCourseRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete skill course: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		`DELETE FROM skill_project_submissions WHERE course_id = $1`,
		`DELETE FROM skill_enrollments WHERE course_id = $1`,
		`DELETE FROM skill_rounds WHERE course_id = $1`,
	} {
		if _, err = tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete skill course children: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM skill_courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete skill course: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete skill course rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete skill course: %w", err)
	}
	return nil
}

// UpsertRound creates or replaces the round with the same number.
func (r *SkillCourseRepository) UpsertRound(ctx context.Context, round *models.SkillRound) error {
	if round.ID == "" {
		round.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	round.CreatedAt = now
	round.UpdatedAt = now
	query := `INSERT INTO skill_rounds (` + roundColumns + `)
VALUES (:id, :course_id, :round_number, :lesson_title, :content_type, :video_url, :text_content, :quiz_title, :questions,
        :project_title, :project_brief, :project_requirements, :created_at, :updated_at)
ON CONFLICT (course_id, round_number) DO UPDATE SET
  lesson_title = EXCLUDED.lesson_title, content_type = EXCLUDED.content_type, video_url = EXCLUDED.video_url,
  text_content = EXCLUDED.text_content, quiz_title = EXCLUDED.quiz_title, questions = EXCLUDED.questions,
  project_title = EXCLUDED.project_title, project_brief = EXCLUDED.project_brief,
  project_requirements = EXCLUDED.project_requirements, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, round); err != nil {
		return fmt.Errorf("upsert skill round: %w", err)
	}
	return nil
}

// ListRounds returns the rounds of a course ordered by number.
func (r *SkillCourseRepository) ListRounds(ctx context.Context, courseID string) ([]models.SkillRound, error) {
	var rounds []models.SkillRound
	query := `SELECT ` + roundColumns + ` FROM skill_rounds WHERE course_id = $1 ORDER BY round_number ASC`
	if err := r.db.SelectContext(ctx, &rounds, query, courseID); err != nil {
		return nil, fmt.Errorf("list skill rounds: %w", err)
	}
	return rounds, nil
}

// GetRound returns a single round.
func (r *SkillCourseRepository) GetRound(ctx context.Context, courseID string, number int) (*models.SkillRound, error) {
	var round models.SkillRound
	query := `SELECT ` + roundColumns + ` FROM skill_rounds WHERE course_id = $1 AND round_number = $2`
	if err := r.db.GetContext(ctx, &round, query, courseID, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get skill round: %w", err)
	}
	return &round, nil
}
