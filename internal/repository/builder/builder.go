package builder

import (
	"fmt"
	"strings"
)

type statementKind int

const (
	kindSelect statementKind = iota + 1
	kindInsert
	kindDelete
)

// SQLBuilder helps construct PostgreSQL queries with positional placeholders.
// Conditions are written with "?" and rebound to $1, $2, ... by Build.
type SQLBuilder struct {
	kind      statementKind
	table     string
	columns   []string
	values    []interface{}
	where     []string
	whereArgs []interface{}
	orderBy   []string
	conflict  *onConflict
	returning []string
}

type onConflict struct {
	target  []string
	updates []string
}

// NewSQLBuilder creates a new instance of SQLBuilder.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{}
}

// Select specifies the columns to retrieve.
func (b *SQLBuilder) Select(cols ...string) *SQLBuilder {
	b.kind = kindSelect
	b.columns = cols
	return b
}

// Insert specifies the table and columns for insertion.
func (b *SQLBuilder) Insert(table string, cols ...string) *SQLBuilder {
	b.kind = kindInsert
	b.table = table
	b.columns = cols
	return b
}

// Delete specifies the table to delete from.
func (b *SQLBuilder) Delete(table string) *SQLBuilder {
	b.kind = kindDelete
	b.table = table
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

// Where adds a condition, multiple conditions are joined with AND.
func (b *SQLBuilder) Where(condition string, args ...interface{}) *SQLBuilder {
	b.where = append(b.where, condition)
	b.whereArgs = append(b.whereArgs, args...)
	return b
}

// OnConflictUpdate turns an INSERT into an upsert: on a conflict over target
// the listed columns are overwritten with the proposed values.
func (b *SQLBuilder) OnConflictUpdate(target []string, cols ...string) *SQLBuilder {
	b.conflict = &onConflict{target: target, updates: cols}
	return b
}

// Returning adds a RETURNING clause.
func (b *SQLBuilder) Returning(cols ...string) *SQLBuilder {
	b.returning = cols
	return b
}

// OrderBy adds an ORDER BY clause.
func (b *SQLBuilder) OrderBy(order string) *SQLBuilder {
	b.orderBy = append(b.orderBy, order)
	return b
}

// Build constructs the final SQL string and arguments.
func (b *SQLBuilder) Build() (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}
	next := 1

	switch b.kind {
	case kindSelect:
		sb.WriteString("SELECT ")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(" FROM ")
		sb.WriteString(b.table)
	case kindInsert:
		sb.WriteString("INSERT INTO ")
		sb.WriteString(b.table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(") VALUES (")
		placeholders := make([]string, len(b.values))
		for i := range b.values {
			placeholders[i] = fmt.Sprintf("$%d", next)
			next++
		}
		sb.WriteString(strings.Join(placeholders, ", "))
		sb.WriteString(")")
		args = append(args, b.values...)

		if b.conflict != nil {
			sb.WriteString(" ON CONFLICT (")
			sb.WriteString(strings.Join(b.conflict.target, ", "))
			sb.WriteString(") DO UPDATE SET ")
			sets := make([]string, len(b.conflict.updates))
			for i, col := range b.conflict.updates {
				sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
			}
			sb.WriteString(strings.Join(sets, ", "))
		}
	case kindDelete:
		sb.WriteString("DELETE FROM ")
		sb.WriteString(b.table)
	}

	if len(b.where) > 0 && b.kind != kindInsert {
		sb.WriteString(" WHERE ")
		sb.WriteString(rebind(strings.Join(b.where, " AND "), &next))
		args = append(args, b.whereArgs...)
	}

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}

	if len(b.returning) > 0 {
		sb.WriteString(" RETURNING ")
		sb.WriteString(strings.Join(b.returning, ", "))
	}

	return sb.String(), args
}

// rebind replaces every "?" with the next positional placeholder.
func rebind(clause string, next *int) string {
	parts := strings.Split(clause, "?")
	var sb strings.Builder
	for i, part := range parts {
		sb.WriteString(part)
		if i < len(parts)-1 {
			sb.WriteString(fmt.Sprintf("$%d", *next))
			*next++
		}
	}
	return sb.String()
}
