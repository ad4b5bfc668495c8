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

const studentSkillSelect = `SELECT k.id, k.student_id, u.name AS student_name, u.class_name, k.title, k.provider, k.certificate_url,
       k.status, k.approved_by, r.name AS approver_name, k.remarks, k.version, k.created_at, k.updated_at
FROM student_skills k
LEFT JOIN users u ON u.id = k.student_id
LEFT JOIN users r ON r.id = k.approved_by`

// StudentSkillRepository persists skills submitted for validation.
type StudentSkillRepository struct {
	db *sqlx.DB
}

// NewStudentSkillRepository constructs the repository.
func NewStudentSkillRepository(db *sqlx.DB) *StudentSkillRepository {
	return &StudentSkillRepository{db: db}
}

// Create inserts a skill submission.
func (r *StudentSkillRepository) Create(ctx context.Context, skill *models.StudentSkill) error {
	if skill.ID == "" {
		skill.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	skill.CreatedAt = now
	skill.UpdatedAt = now
	skill.Version = 1
	const query = `INSERT INTO student_skills (id, student_id, title, provider, certificate_url, status, approved_by, remarks, version, created_at, updated_at)
	VALUES (:id, :student_id, :title, :provider, :certificate_url, :status, :approved_by, :remarks, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, skill); err != nil {
		return wrapWrite(err, "create student skill")
	}
	return nil
}

// GetByID fetches a skill with the student's current class.
func (r *StudentSkillRepository) GetByID(ctx context.Context, id string) (*models.StudentSkill, error) {
	var skill models.StudentSkill
	if err := r.db.GetContext(ctx, &skill, studentSkillSelect+" WHERE k.id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get student skill: %w", err)
	}
	return &skill, nil
}

// List returns one page of skills, newest first, and the number of matches.
func (r *StudentSkillRepository) List(ctx context.Context, filter models.StudentSkillFilter) ([]models.StudentSkill, int, error) {
	var p predicates
	if filter.StudentID != "" {
		p.eq("k.student_id", filter.StudentID)
	}
	whereIn(&p, "u.class_name", filter.ClassNames)
	if filter.Status != "" {
		p.eq("k.status", string(filter.Status))
	}
	skills := make([]models.StudentSkill, 0)
	query := studentSkillSelect + p.where() + " ORDER BY k.created_at DESC, k.id" + window(filter.Limit, filter.Offset)
	if err := r.db.SelectContext(ctx, &skills, query, p.args...); err != nil {
		return nil, 0, fmt.Errorf("list student skills: %w", err)
	}
	var total int
	countQuery := "SELECT COUNT(*) FROM student_skills k LEFT JOIN users u ON u.id = k.student_id" + p.where()
	if err := r.db.GetContext(ctx, &total, countQuery, p.args...); err != nil {
		return nil, 0, fmt.Errorf("count student skills: %w", err)
	}
	return skills, total, nil
}

// UpdateReview stores a decision when the version still matches.
func (r *StudentSkillRepository) UpdateReview(ctx context.Context, skill *models.StudentSkill, expectedVersion int) error {
	now := time.Now().UTC()
	const query = `UPDATE student_skills SET status = $1, approved_by = $2, remarks = $3, version = version + 1, updated_at = $4
WHERE id = $5 AND version = $6`
	result, err := r.db.ExecContext(ctx, query, string(skill.Status), skill.ApprovedBy, skill.Remarks, now, skill.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("review student skill: %w", err)
	}
	if err := expectOneRow(result, "review student skill"); err != nil {
		return err
	}
	skill.Version = expectedVersion + 1
	skill.UpdatedAt = now
	return nil
}
