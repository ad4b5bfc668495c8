package migrate

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"testing/fstest"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	migrations, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, 1, migrations[0].Version)
	for i := 1; i < len(migrations); i++ {
		assert.Greater(t, migrations[i].Version, migrations[i-1].Version)
	}
}

func TestLoadRejectsBadNames(t *testing.T) {
	fsys := fstest.MapFS{"sql/init.sql": {Data: []byte("SELECT 1")}}
	_, err := loadFrom(fsys, "sql")
	assert.Error(t, err)

	fsys = fstest.MapFS{
		"sql/001_a.sql": {Data: []byte("SELECT 1")},
		"sql/1_b.sql":   {Data: []byte("SELECT 2")},
	}
	_, err = loadFrom(fsys, "sql")
	assert.Error(t, err)
}

func TestApplySkipsAppliedVersions(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_version").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_version")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectExec("CREATE TABLE widgets").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schema_version SET version = $1")).WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	version, err := apply(context.Background(), db, []Migration{
		{Version: 1, Name: "001_users.sql", UpSQL: "CREATE TABLE users (id TEXT)"},
		{Version: 2, Name: "002_widgets.sql", UpSQL: "CREATE TABLE widgets (id TEXT)"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyInitialisesVersionTable(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_version").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_version")).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_version (version) VALUES (0)")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	version, err := apply(context.Background(), db, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedWorkflowTables(t *testing.T) {
	migrations, err := Load()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(migrations), 2)
	workflows := migrations[1]
	assert.Equal(t, 2, workflows.Version)
	for _, table := range []string{"announcements", "grade_entries", "assignment_submissions", "jobs", "job_applications", "interviews", "offers", "student_skills"} {
		assert.Contains(t, workflows.UpSQL, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}
