package repository

import (
	"fmt"
	"strings"

	"github.com/noah-isme/campus-api/internal/models"
)

// predicates collects AND-ed WHERE clauses with $n placeholders numbered in order.
type predicates struct {
	clauses []string
	args    []interface{}
}

func (p *predicates) next(value interface{}) string {
	p.args = append(p.args, value)
	return fmt.Sprintf("$%d", len(p.args))
}

func (p *predicates) eq(column string, value interface{}) {
	p.clauses = append(p.clauses, column+" = "+p.next(value))
}

// like matches value case-insensitively against any of columns.
func (p *predicates) like(value string, columns ...string) {
	ph := p.next("%" + strings.ToLower(value) + "%")
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("LOWER(%s) LIKE %s", col, ph)
	}
	p.clauses = append(p.clauses, "("+strings.Join(parts, " OR ")+")")
}

func (p *predicates) raw(clause string) {
	p.clauses = append(p.clauses, clause)
}

// where renders " WHERE a AND b", or "" when nothing was added.
func (p *predicates) where() string {
	if len(p.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.clauses, " AND ")
}

func whereIn[T ~string](p *predicates, column string, values []T) {
	if len(values) == 0 {
		return
	}
	ph := make([]string, len(values))
	for i, v := range values {
		ph[i] = p.next(string(v))
	}
	p.clauses = append(p.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(ph, ",")))
}

// window renders the LIMIT/OFFSET tail of a paged listing.
func window(limit, offset int) string {
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", clampLimit(limit, models.MaxPageSize, models.DefaultPageSize), offset)
}

// clampLimit returns limit when it lies in (0, max], else fallback.
func clampLimit(limit, max, fallback int) int {
	if limit <= 0 || limit > max {
		return fallback
	}
	return limit
}
