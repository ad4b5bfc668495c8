package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
)

func TestAttendanceRepositoryUpsertRewritesRecords(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	created := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (class_id, subject_name, session_date, faculty_id) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "class-1", "fac-1", "Math", day, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("att-existing", created))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_records WHERE attendance_id = $1")).
		WithArgs("att-existing").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO attendance_records").WithArgs("att-existing", "stu-1", "present").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attendance_records").WithArgs("att-existing", "stu-2", "late").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	attendance := &models.Attendance{
		ClassID:     "class-1",
		FacultyID:   "fac-1",
		SubjectName: "Math",
		Date:        time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC),
		Records: []models.AttendanceRecord{
			{StudentID: "stu-1", Status: models.AttendancePresent},
			{StudentID: "stu-2", Status: models.AttendanceLate},
		},
	}
	require.NoError(t, repo.Upsert(context.Background(), attendance))
	assert.Equal(t, "att-existing", attendance.ID)
	assert.Equal(t, day, attendance.Date)
	assert.Equal(t, created, attendance.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO attendance").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Attendance{ClassID: "class-1", FacultyID: "fac-1", SubjectName: "Math", Date: time.Now()})
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListStudentRecords(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ar.student_id = $1")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"subject_name", "class_name", "session_date", "status"}).
			AddRow("Math", "CSE-A", day, "present").
			AddRow("Math", "CSE-A", day.AddDate(0, 0, 1), "absent"))

	rows, err := repo.ListStudentRecords(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.AttendanceAbsent, rows[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
