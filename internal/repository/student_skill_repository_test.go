package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
)

var studentSkillColumns = []string{"id", "student_id", "student_name", "class_name", "title", "provider", "certificate_url", "status",
	"approved_by", "approver_name", "remarks", "version", "created_at", "updated_at"}

func TestStudentSkillRepositoryListByClasses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentSkillRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.class_name IN ($1,$2) AND k.status = $3 ORDER BY k.created_at DESC, k.id LIMIT 50 OFFSET 0")).
		WithArgs("CSE-A", "CSE-B", "pending").
		WillReturnRows(sqlmock.NewRows(studentSkillColumns).
			AddRow("k1", "s1", "Asha", "CSE-A", "AWS Practitioner", "AWS", nil, "pending", nil, nil, nil, 1, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM student_skills k LEFT JOIN users u ON u.id = k.student_id WHERE u.class_name IN ($1,$2)")).
		WithArgs("CSE-A", "CSE-B", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	skills, total, err := repo.List(context.Background(), models.StudentSkillFilter{ClassNames: []string{"CSE-A", "CSE-B"}, Status: models.SkillPending})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, skills, 1)
	assert.Equal(t, "CSE-A", *skills[0].ClassName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentSkillRepositoryStaleReview(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentSkillRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_skills SET status = $1")).
		WithArgs("approved", "f1", nil, sqlmock.AnyArg(), "k1", 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	approver := "f1"
	err := repo.UpdateReview(context.Background(), &models.StudentSkill{ID: "k1", Status: models.SkillApproved, ApprovedBy: &approver}, 1)
	assert.ErrorIs(t, err, ErrStaleVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}
