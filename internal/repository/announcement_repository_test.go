package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
)

var announcementRowColumns = []string{"id", "title", "message", "priority", "target_audience", "classes", "expires_at",
	"created_by", "creator_name", "created_at", "updated_at"}

func TestAnnouncementRepositoryStudentListPages(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	now := time.Now().UTC()
	class := "CSE-A"
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.target_audience IN ($1,$2) AND (cardinality(a.classes) = 0 OR $3 = ANY(a.classes)) AND (a.expires_at IS NULL OR a.expires_at > $4) ORDER BY CASE a.priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, a.created_at DESC, a.id LIMIT 10 OFFSET 10")).
		WithArgs("students", "all", "CSE-A", now).
		WillReturnRows(sqlmock.NewRows(announcementRowColumns).
			AddRow("a-11", "Exam hall", "Room 4", "high", "students", "{CSE-A}", nil, "fac-1", "Dr Rao", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM announcements a WHERE a.target_audience IN ($1,$2)")).
		WithArgs("students", "all", "CSE-A", now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	items, total, err := repo.List(context.Background(), models.AnnouncementFilter{
		Audiences: []models.AnnouncementAudience{models.AnnouncementAudienceStudents, models.AnnouncementAudienceAll},
		ClassName: &class,
		ActiveAt:  &now,
		Limit:     10,
		Offset:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"CSE-A"}, []string(items[0].Classes))
	assert.Equal(t, "Dr Rao", *items[0].CreatorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryAuthorListIsNewestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.created_by = $1 ORDER BY a.created_at DESC, a.id LIMIT 50 OFFSET 0")).
		WithArgs("fac-1").
		WillReturnRows(sqlmock.NewRows(announcementRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM announcements a WHERE a.created_by = $1")).
		WithArgs("fac-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	items, total, err := repo.List(context.Background(), models.AnnouncementFilter{CreatedBy: "fac-1"})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryCreateDefaultsClasses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectExec("INSERT INTO announcements").WillReturnResult(sqlmock.NewResult(1, 1))

	a := &models.Announcement{Title: "Fee", Message: "Due Friday", Priority: models.AnnouncementPriorityMedium,
		TargetAudience: models.AnnouncementAudienceAll, CreatedBy: "adm-1"}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.NotEmpty(t, a.ID)
	assert.NotNil(t, a.Classes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectExec("DELETE FROM announcements").WithArgs("a-9").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "a-9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
