package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
)

var (
	assignmentColumns = []string{"id", "faculty_id", "faculty_name", "class_id", "class_name", "title", "description", "subject", "due_date", "status",
		"submissions_pending", "submissions_total", "created_at", "updated_at"}
	assignmentSubmissionColumns = []string{"id", "assignment_id", "student_id", "student_name", "file_url", "text_answer", "status", "faculty_remark",
		"reviewed_by", "submitted_at", "version", "created_at", "updated_at"}
)

func TestAssignmentRepositoryFacultyListCarriesCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.faculty_id = $1 ORDER BY a.created_at DESC, a.id LIMIT 50 OFFSET 50")).
		WithArgs("f1").
		WillReturnRows(sqlmock.NewRows(assignmentColumns).
			AddRow("as-51", "f1", "Dr. Rao", "c1", "CSE-A", "Lab 3", "", "Physics", now, "Published", 2, 5, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments a WHERE a.faculty_id = $1")).
		WithArgs("f1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(51))

	items, total, err := repo.List(context.Background(), models.AssignmentFilter{FacultyID: "f1", Offset: 50})
	require.NoError(t, err)
	assert.Equal(t, 51, total)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].SubmissionsPending)
	assert.Equal(t, 5, items[0].SubmissionsTotal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpcomingWindow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	today := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.class_id = $1 AND a.status = $2 AND a.due_date >= $3 ORDER BY a.due_date ASC, a.id LIMIT 3 OFFSET 0")).
		WithArgs("c1", "Published", today).
		WillReturnRows(sqlmock.NewRows(assignmentColumns))
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	items, _, err := repo.List(context.Background(), models.AssignmentFilter{ClassID: "c1", Status: models.AssignmentPublished, DueFrom: &today, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreateSubmissionDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO assignment_submissions").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateSubmission(context.Background(), &models.AssignmentSubmission{AssignmentID: "as-1", StudentID: "s1", Status: models.SubmissionPending})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateSubmissionStale(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("UPDATE assignment_submissions").WillReturnResult(sqlmock.NewResult(0, 0))

	sub := &models.AssignmentSubmission{ID: "sub-1", Status: models.SubmissionApproved, Version: 2}
	err := repo.UpdateSubmission(context.Background(), sub, 2)
	assert.ErrorIs(t, err, ErrStaleVersion)
	assert.Equal(t, 2, sub.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositorySubmissionsByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.student_id = $1 AND s.assignment_id = ANY($2)")).
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(assignmentSubmissionColumns).
			AddRow("sub-1", "as-2", "s1", "Asha", nil, "answer", "Rework", "cite sources", "f1", now, 2, now, now))

	got, err := repo.SubmissionsByStudent(context.Background(), "s1", []string{"as-1", "as-2"})
	require.NoError(t, err)
	require.Contains(t, got, "as-2")
	assert.Equal(t, models.SubmissionRework, got["as-2"].Status)
	assert.NotContains(t, got, "as-1")

	empty, err := repo.SubmissionsByStudent(context.Background(), "s1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindSubmissionMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.assignment_id = $1 AND s.student_id = $2")).
		WithArgs("as-1", "s1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindSubmission(context.Background(), "as-1", "s1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
