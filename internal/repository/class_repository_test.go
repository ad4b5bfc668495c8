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

func TestClassRepositoryFindByNameLoadsRelations(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE class_name = $1")).
		WithArgs("CSE-A").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_name", "department", "class_teacher_id", "created_at", "updated_at"}).
			AddRow("class-1", "CSE-A", "CSE", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_subjects WHERE class_id = $1")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"class_id", "name", "teacher_id", "position"}).
			AddRow("class-1", "Math", "fac-1", 0).
			AddRow("class-1", "Physics", nil, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE class_name = $1")).
		WithArgs("CSE-A").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("stu-1").AddRow("stu-2"))

	class, err := repo.FindByName(context.Background(), "CSE-A")
	require.NoError(t, err)
	assert.Nil(t, class.ClassTeacherID)
	require.Len(t, class.Subjects, 2)
	assert.Equal(t, "fac-1", *class.Subjects[0].TeacherID)
	assert.True(t, class.HasStudent("stu-2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreateRollsBackOnDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO classes").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Class{ClassName: "CSE-A"})
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreateWithSubjects(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO classes").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO class_subjects").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO class_subjects").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	class := &models.Class{ClassName: "CSE-B", Subjects: []models.ClassSubject{{Name: "Math"}, {Name: "Art"}}}
	require.NoError(t, repo.Create(context.Background(), class))
	assert.NotEmpty(t, class.ID)
	assert.Equal(t, class.ID, class.Subjects[1].ClassID)
	assert.Equal(t, 1, class.Subjects[1].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}
