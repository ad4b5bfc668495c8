package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleVersion is returned when a versioned update matched no row.
	ErrStaleVersion = errors.New("stale version")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// wrapWrite maps unique violations to ErrDuplicate and annotates everything else.
func wrapWrite(err error, op string) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectOneRow converts a zero-row versioned update into ErrStaleVersion.
func expectOneRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return ErrStaleVersion
	}
	return nil
}

// expectRow converts a zero-row update or delete of an unversioned record into sql.ErrNoRows.
func expectRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
