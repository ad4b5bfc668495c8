// Package export renders tabular report data as CSV or PDF documents.
package export

import (
	"errors"
	"time"
)

// ErrNoColumns is returned when a dataset declares no headers.
var ErrNoColumns = errors.New("dataset has no columns")

// Dataset is a rectangular table. Rows shorter than Headers are padded with empty cells.
type Dataset struct {
	Title       string
	Headers     []string
	Rows        [][]string
	GeneratedAt time.Time
	// NumericColumns are right aligned in PDF output.
	NumericColumns map[int]bool
}

// Renderer turns a dataset into file bytes.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	Extension() string
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return ErrNoColumns
	}
	return nil
}

func (d Dataset) cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}
