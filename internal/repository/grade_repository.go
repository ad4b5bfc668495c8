package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-api/internal/models"
)

const gradeSheetSelect = `SELECT g.id, g.class_id, c.class_name, g.subject, g.faculty_id, u.name AS faculty_name,
       g.title, g.exam_type, g.created_at, g.updated_at
FROM grade_sheets g
LEFT JOIN classes c ON c.id = g.class_id
LEFT JOIN users u ON u.id = g.faculty_id`

const gradeEntrySelect = `SELECT e.id, e.sheet_id, e.student_id, u.name AS student_name, e.max_score, e.obtained_score, e.grade, e.updated_at
FROM grade_entries e
LEFT JOIN users u ON u.id = e.student_id`

// GradeRepository persists grade sheets and their entries.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// CreateSheet inserts the sheet and an empty entry per student in one transaction.
func (r *GradeRepository) CreateSheet(ctx context.Context, sheet *models.GradeSheet, studentIDs []string) error {
	if sheet.ID == "" {
		sheet.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sheet.CreatedAt = now
	sheet.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grade sheet: %w", err)
	}
	const insertSheet = `INSERT INTO grade_sheets (id, class_id, subject, faculty_id, title, exam_type, created_at, updated_at)
VALUES (:id, :class_id, :subject, :faculty_id, :title, :exam_type, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertSheet, sheet); err != nil {
		tx.Rollback() //nolint:errcheck
		return wrapWrite(err, "create grade sheet")
	}

	entries := make([]models.GradeEntry, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		entry := models.GradeEntry{ID: uuid.NewString(), SheetID: sheet.ID, StudentID: studentID, UpdatedAt: now}
		const insertEntry = `INSERT INTO grade_entries (id, sheet_id, student_id, max_score, obtained_score, grade, updated_at)
VALUES (:id, :sheet_id, :student_id, :max_score, :obtained_score, :grade, :updated_at)
ON CONFLICT (sheet_id, student_id) DO NOTHING`
		if _, err := tx.NamedExecContext(ctx, insertEntry, entry); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("create grade entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade sheet: %w", err)
	}
	sheet.Grades = entries
	return nil
}

// GetSheet returns a sheet with every entry.
func (r *GradeRepository) GetSheet(ctx context.Context, id string) (*models.GradeSheet, error) {
	var sheet models.GradeSheet
	if err := r.db.GetContext(ctx, &sheet, gradeSheetSelect+" WHERE g.id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get grade sheet: %w", err)
	}
	entries, err := r.fetchEntries(ctx, []string{id}, "")
	if err != nil {
		return nil, err
	}
	sheet.Grades = entries[id]
	if sheet.Grades == nil {
		sheet.Grades = []models.GradeEntry{}
	}
	return &sheet, nil
}

// ListSheets returns one page of sheets, newest first, with their entries and the number
// of matching sheets.
func (r *GradeRepository) ListSheets(ctx context.Context, filter models.GradeSheetFilter) ([]models.GradeSheet, int, error) {
	var p predicates
	if filter.FacultyID != "" {
		p.eq("g.faculty_id", filter.FacultyID)
	}
	if filter.ClassID != "" {
		p.eq("g.class_id", filter.ClassID)
	}
	if filter.Subject != "" {
		p.eq("g.subject", filter.Subject)
	}
	if filter.StudentID != "" {
		p.raw(fmt.Sprintf("EXISTS (SELECT 1 FROM grade_entries ge WHERE ge.sheet_id = g.id AND ge.student_id = %s)", p.next(filter.StudentID)))
	}

	sheets := make([]models.GradeSheet, 0)
	query := gradeSheetSelect + p.where() + " ORDER BY g.created_at DESC, g.id" + window(filter.Limit, filter.Offset)
	if err := r.db.SelectContext(ctx, &sheets, query, p.args...); err != nil {
		return nil, 0, fmt.Errorf("list grade sheets: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM grade_sheets g"+p.where(), p.args...); err != nil {
		return nil, 0, fmt.Errorf("count grade sheets: %w", err)
	}
	if len(sheets) == 0 {
		return sheets, total, nil
	}

	ids := make([]string, len(sheets))
	for i := range sheets {
		ids[i] = sheets[i].ID
	}
	entries, err := r.fetchEntries(ctx, ids, filter.StudentID)
	if err != nil {
		return nil, 0, err
	}
	for i := range sheets {
		sheets[i].Grades = entries[sheets[i].ID]
		if sheets[i].Grades == nil {
			sheets[i].Grades = []models.GradeEntry{}
		}
	}
	return sheets, total, nil
}

// UpdateEntry stores the scores of one student on a sheet. A student without an entry
// yields sql.ErrNoRows.
func (r *GradeRepository) UpdateEntry(ctx context.Context, entry *models.GradeEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grade_entries SET max_score = $1, obtained_score = $2, grade = $3, updated_at = $4
WHERE sheet_id = $5 AND student_id = $6`
	result, err := r.db.ExecContext(ctx, query, entry.MaxScore, entry.ObtainedScore, entry.Grade, entry.UpdatedAt, entry.SheetID, entry.StudentID)
	if err != nil {
		return fmt.Errorf("update grade entry: %w", err)
	}
	if err := expectRow(result, "update grade entry"); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE grade_sheets SET updated_at = $1 WHERE id = $2`, entry.UpdatedAt, entry.SheetID); err != nil {
		return fmt.Errorf("touch grade sheet: %w", err)
	}
	return nil
}

// fetchEntries returns entries keyed by sheet ID, ordered by student name. A non-empty
// studentID loads only that student's entries.
func (r *GradeRepository) fetchEntries(ctx context.Context, sheetIDs []string, studentID string) (map[string][]models.GradeEntry, error) {
	query := gradeEntrySelect + " WHERE e.sheet_id = ANY($1)"
	args := []interface{}{pq.Array(sheetIDs)}
	if studentID != "" {
		query += " AND e.student_id = $2"
		args = append(args, studentID)
	}
	query += " ORDER BY u.name ASC, e.student_id"
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch grade entries: %w", err)
	}
	defer rows.Close()
	result := make(map[string][]models.GradeEntry, len(sheetIDs))
	for rows.Next() {
		var entry models.GradeEntry
		if err := rows.StructScan(&entry); err != nil {
			return nil, fmt.Errorf("scan grade entry: %w", err)
		}
		result[entry.SheetID] = append(result[entry.SheetID], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grade entries: %w", err)
	}
	return result, nil
}
