// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package query

import (
	"fmt"
	"strings"
)

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
//
// Example usage:
//
//	wb := query.NewWhereBuilder()
//	wb.AddContains("name", filter.Name)
//	wb.AddEquals("run_no", filter.RunNo)
//	wb.AddRange("start_timestamp", from, to)
//	whereClause, args := wb.Build()
//	// contains(lower(name), lower(?)) AND run_no = ? AND start_timestamp >= ? AND start_timestamp < ?
type WhereBuilder struct {
	clauses []string
	args    []any
}

// NewWhereBuilder creates a new WhereBuilder instance.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []any{},
	}
}

// AddClause adds a raw WHERE clause with its arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...any) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddEquals adds "column = ?". An empty value is skipped.
func (wb *WhereBuilder) AddEquals(column, value string) *WhereBuilder {
	if value == "" {
		return wb
	}
	return wb.AddClause(column+" = ?", value)
}

// AddContains adds a case-insensitive substring match. An empty value is
// skipped.
func (wb *WhereBuilder) AddContains(column, value string) *WhereBuilder {
	if value == "" {
		return wb
	}
	return wb.AddClause(fmt.Sprintf("contains(lower(%s), lower(?))", column), value)
}

// AddRange adds a half-open [from, to) filter on an integer column. Nil bounds
// are skipped.
func (wb *WhereBuilder) AddRange(column string, from, to *int64) *WhereBuilder {
	if from != nil {
		wb.AddClause(column+" >= ?", *from)
	}
	if to != nil {
		wb.AddClause(column+" < ?", *to)
	}
	return wb
}

// AddInt64 adds "column = ?" when value is non-nil.
func (wb *WhereBuilder) AddInt64(column string, value *int64) *WhereBuilder {
	if value == nil {
		return wb
	}
	return wb.AddClause(column+" = ?", *value)
}

// AddIn adds "column IN (?, ?, ...)". An empty list is skipped.
func (wb *WhereBuilder) AddIn(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		wb.args = append(wb.args, v)
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	return wb
}

// Build constructs the final WHERE clause and returns it with arguments.
// Clauses are joined with "AND". Returns ("1=1", []) if no clauses were added.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.clauses) == 0 {
		return "1=1", []any{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the WHERE clause with "WHERE " prefix.
func (wb *WhereBuilder) BuildWithPrefix() (string, []any) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses added to the builder.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty returns true if no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}

// Page returns LIMIT/OFFSET arguments for a zero-based page. Size below one
// is treated as one and negative pages as zero.
func Page(page, size int) (limit, offset int) {
	if size < 1 {
		size = 1
	}
	if page < 0 {
		page = 0
	}
	return size, page * size
}
