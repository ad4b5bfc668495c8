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

const attendanceColumns = `id, class_id, faculty_id, subject_name, session_date, created_at, updated_at`

// AttendanceRepository persists attendance sessions and per-student marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts a new session and fails with ErrDuplicate when one already exists for the
// same class, subject, day and faculty.
func (r *AttendanceRepository) Create(ctx context.Context, attendance *models.Attendance) error {
	return r.write(ctx, attendance, false)
}

// Upsert creates the session or replaces the marks of the existing one.
func (r *AttendanceRepository) Upsert(ctx context.Context, attendance *models.Attendance) error {
	return r.write(ctx, attendance, true)
}

func (r *AttendanceRepository) write(ctx context.Context, attendance *models.Attendance, upsert bool) (err error) {
	if attendance.ID == "" {
		attendance.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	attendance.Date = models.NormalizeAttendanceDate(attendance.Date)
	attendance.CreatedAt = now
	attendance.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write attendance: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `INSERT INTO attendance (` + attendanceColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if upsert {
		query += `
ON CONFLICT (class_id, subject_name, session_date, faculty_id) DO UPDATE SET updated_at = EXCLUDED.updated_at`
	}
	query += ` RETURNING id, created_at`

	var stored struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err = tx.QueryRowxContext(ctx, query,
		attendance.ID, attendance.ClassID, attendance.FacultyID, attendance.SubjectName, attendance.Date, now, now,
	).StructScan(&stored); err != nil {
		return wrapWrite(err, "write attendance")
	}
	attendance.ID = stored.ID
	attendance.CreatedAt = stored.CreatedAt

	if _, err = tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE attendance_id = $1`, attendance.ID); err != nil {
		return fmt.Errorf("clear attendance records: %w", err)
	}
	const insertRecord = `INSERT INTO attendance_records (attendance_id, student_id, status) VALUES ($1, $2, $3)`
	for i := range attendance.Records {
		attendance.Records[i].AttendanceID = attendance.ID
		rec := attendance.Records[i]
		if _, err = tx.ExecContext(ctx, insertRecord, rec.AttendanceID, rec.StudentID, string(rec.Status)); err != nil {
			return wrapWrite(err, "insert attendance record")
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance: %w", err)
	}
	return nil
}

// Get loads a session and its marks.
func (r *AttendanceRepository) Get(ctx context.Context, id string) (*models.Attendance, error) {
	var attendance models.Attendance
	if err := r.db.GetContext(ctx, &attendance, `SELECT `+attendanceColumns+` FROM attendance WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	if err := r.loadRecords(ctx, &attendance); err != nil {
		return nil, err
	}
	return &attendance, nil
}

// ListByClass returns sessions of a class, optionally narrowed to one subject, newest first.
func (r *AttendanceRepository) ListByClass(ctx context.Context, classID, subject string) ([]models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE class_id = $1 AND ($2 = '' OR subject_name = $2) ORDER BY session_date DESC`
	var sessions []models.Attendance
	if err := r.db.SelectContext(ctx, &sessions, query, classID, subject); err != nil {
		return nil, fmt.Errorf("list attendance by class: %w", err)
	}
	for i := range sessions {
		if err := r.loadRecords(ctx, &sessions[i]); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

func (r *AttendanceRepository) loadRecords(ctx context.Context, attendance *models.Attendance) error {
	const query = `SELECT ar.attendance_id, ar.student_id, u.name AS student_name, ar.status
FROM attendance_records ar
LEFT JOIN users u ON u.id = ar.student_id
WHERE ar.attendance_id = $1
ORDER BY u.name ASC`
	if err := r.db.SelectContext(ctx, &attendance.Records, query, attendance.ID); err != nil {
		return fmt.Errorf("list attendance records: %w", err)
	}
	return nil
}

// ListStudentRecords returns every mark of a student joined with its session.
func (r *AttendanceRepository) ListStudentRecords(ctx context.Context, studentID string) ([]models.StudentAttendanceRow, error) {
	const query = `SELECT a.subject_name, c.class_name, a.session_date, ar.status
FROM attendance_records ar
JOIN attendance a ON a.id = ar.attendance_id
JOIN classes c ON c.id = a.class_id
WHERE ar.student_id = $1
ORDER BY a.subject_name ASC, a.session_date ASC`
	var rows []models.StudentAttendanceRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return rows, nil
}
