package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// sqlWriter accumulates one statement and its bind arguments. Placeholders
// are Postgres-style, numbered in bind order.
type sqlWriter struct {
	buf  strings.Builder
	args []any
}

func (w *sqlWriter) str(s string) {
	w.buf.WriteString(s)
}

func (w *sqlWriter) bind(value any) {
	w.args = append(w.args, value)
	w.buf.WriteString("$")
	w.buf.WriteString(strconv.Itoa(len(w.args)))
}

// fragment writes raw SQL, rewriting each ? to the next numbered placeholder
// as long as values remain. A ? beyond the values is kept verbatim.
func (w *sqlWriter) fragment(sql string, values []any) {
	if len(values) == 0 {
		w.buf.WriteString(sql)
		return
	}

	next := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] != '?' || next >= len(values) {
			w.buf.WriteByte(sql[i])
			continue
		}
		w.bind(values[next])
		next++
	}
}

func (w *sqlWriter) where(conds []Condition) {
	if len(conds) == 0 {
		return
	}
	w.str(" WHERE ")
	for i, cond := range conds {
		if i > 0 {
			w.str(" AND ")
		}
		cond(w)
	}
}

// Condition writes one WHERE fragment.
type Condition func(w *sqlWriter)

func Eq(column string, value any) Condition {
	return func(w *sqlWriter) {
		w.str(column)
		w.str(" = ")
		w.bind(value)
	}
}

func IsNull(column string) Condition {
	return func(w *sqlWriter) {
		w.str(column)
		w.str(" IS NULL")
	}
}

// EqLiteral inlines the value as a quoted literal instead of binding it.
// Used on retry paths where a pooler lost the unnamed prepared statement
// between Parse and Bind.
func EqLiteral(column, value string) Condition {
	return func(w *sqlWriter) {
		w.str(column)
		w.str(" = '")
		w.str(strings.ReplaceAll(value, "'", "''"))
		w.str("'")
	}
}

// Expr admits fragments the structured conditions cannot express, e.g.
// comparisons against NOW() arithmetic. Each ? binds the next value.
func Expr(sql string, values ...any) Condition {
	return func(w *sqlWriter) {
		w.fragment(sql, values)
	}
}

type SelectBuilder struct {
	columns []string
	table   string
	conds   []Condition
	order   []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conds ...Condition) *SelectBuilder {
	b.conds = append(b.conds, conds...)
	return b
}

func (b *SelectBuilder) OrderBy(columns ...string) *SelectBuilder {
	b.order = append(b.order, columns...)
	return b
}

// Limit caps the row count. Values <= 0 leave the statement unbounded.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("querybuilder: select without columns")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("querybuilder: select without table")
	}

	var w sqlWriter
	w.str("SELECT ")
	w.str(strings.Join(b.columns, ", "))
	w.str(" FROM ")
	w.str(b.table)
	w.where(b.conds)
	if len(b.order) > 0 {
		w.str(" ORDER BY ")
		w.str(strings.Join(b.order, ", "))
	}
	if b.limit > 0 {
		w.str(" LIMIT ")
		w.str(strconv.Itoa(b.limit))
	}

	return w.buf.String(), w.args, nil
}

type assignment struct {
	column string
	value  any
}

type UpdateBuilder struct {
	table   string
	assigns []assignment
	conds   []Condition
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.assigns = append(b.assigns, assignment{column: column, value: value})
	return b
}

func (b *UpdateBuilder) Where(conds ...Condition) *UpdateBuilder {
	b.conds = append(b.conds, conds...)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("querybuilder: update without table")
	}
	if len(b.assigns) == 0 {
		return "", nil, fmt.Errorf("querybuilder: update without assignments")
	}

	var w sqlWriter
	w.str("UPDATE ")
	w.str(b.table)
	w.str(" SET ")
	for i, a := range b.assigns {
		if i > 0 {
			w.str(", ")
		}
		w.str(a.column)
		w.str(" = ")
		w.bind(a.value)
	}
	w.where(b.conds)

	return w.buf.String(), w.args, nil
}
