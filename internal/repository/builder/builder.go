package builder

import (
	"fmt"
	"strings"
)

// SQLBuilder helps construct SQL queries dynamically.
// Placeholders are written as "?"; callers rebind them for their driver.
type SQLBuilder struct {
	table   string
	columns []string
	values  []interface{}
	where   []string
	args    []interface{}
	verb    verb
}

type verb int

const (
	verbSelect verb = iota + 1
	verbInsert
)

// NewSQLBuilder creates a new instance of SQLBuilder.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{}
}

// Select specifies the columns to retrieve.
func (b *SQLBuilder) Select(cols ...string) *SQLBuilder {
	b.verb = verbSelect
	b.columns = cols
	return b
}

// Insert specifies the table and columns for insertion.
func (b *SQLBuilder) Insert(table string, cols ...string) *SQLBuilder {
	b.verb = verbInsert
	b.table = table
	b.columns = cols
	return b
}

// From specifies the table to select from.
func (b *SQLBuilder) From(table string) *SQLBuilder {
	b.table = table
	return b
}

// Values specifies the values for insertion.
func (b *SQLBuilder) Values(vals ...interface{}) *SQLBuilder {
	b.values = vals
	return b
}

// Where adds a condition; conditions are joined with AND.
func (b *SQLBuilder) Where(condition string, args ...interface{}) *SQLBuilder {
	b.where = append(b.where, condition)
	b.args = append(b.args, args...)
	return b
}

// BuildSafe is Build with a check that every placeholder has an argument.
func (b *SQLBuilder) BuildSafe() (string, []interface{}, error) {
	sql, args := b.Build()
	if n := strings.Count(sql, "?"); n != len(args) {
		return "", nil, fmt.Errorf("placeholder count (%d) does not match argument count (%d)", n, len(args))
	}
	return sql, args, nil
}

// Build constructs the final SQL string and arguments.
func (b *SQLBuilder) Build() (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	switch b.verb {
	case verbSelect:
		sb.WriteString("SELECT ")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(" FROM ")
		sb.WriteString(b.table)
	case verbInsert:
		sb.WriteString("INSERT INTO ")
		sb.WriteString(b.table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(") VALUES (")
		sb.WriteString(strings.TrimSuffix(strings.Repeat("?, ", len(b.values)), ", "))
		sb.WriteString(")")
		return sb.String(), append(args, b.values...)
	}

	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
		args = append(args, b.args...)
	}

	return sb.String(), args
}
