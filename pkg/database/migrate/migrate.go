// Package migrate applies the embedded schema migrations in version order.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Migration is one embedded SQL file.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// Load returns the embedded migrations sorted by version.
func Load() ([]Migration, error) {
	return loadFrom(migrationsFS, "sql")
}

func loadFrom(fsys fs.FS, dir string) ([]Migration, error) {
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var migrations []Migration
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := fs.ReadFile(fsys, dir+"/"+f.Name())
		if err != nil {
			return nil, err
		}
		var v int
		if _, err := fmt.Sscanf(f.Name(), "%d_", &v); err != nil {
			return nil, fmt.Errorf("invalid migration filename %s: %w", f.Name(), err)
		}
		migrations = append(migrations, Migration{Version: v, Name: f.Name(), UpSQL: string(data)})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version == migrations[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", migrations[i].Version)
		}
	}
	return migrations, nil
}

// Run applies pending migrations inside one transaction and returns the resulting version.
func Run(ctx context.Context, db *sqlx.DB, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	migrations, err := Load()
	if err != nil {
		return 0, err
	}
	return apply(ctx, db, migrations, logger)
}

func apply(ctx context.Context, db *sqlx.DB, migrations []Migration, logger *zap.Logger) (version int, err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin migrations: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema_version: %w", err)
	}

	var current int
	err = tx.GetContext(ctx, &current, `SELECT version FROM schema_version LIMIT 1`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err = tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return 0, fmt.Errorf("init schema_version: %w", err)
		}
		current = 0
	case err != nil:
		return 0, fmt.Errorf("read schema_version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if _, err = tx.ExecContext(ctx, m.UpSQL); err != nil {
			return 0, fmt.Errorf("migration %s: %w", m.Name, err)
		}
		if _, err = tx.ExecContext(ctx, `UPDATE schema_version SET version = $1`, m.Version); err != nil {
			return 0, fmt.Errorf("update schema_version: %w", err)
		}
		logger.Info("migration applied", zap.String("name", m.Name), zap.Int("version", m.Version))
		current = m.Version
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit migrations: %w", err)
	}
	return current, nil
}
