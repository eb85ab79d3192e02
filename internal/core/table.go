// Package core holds the record table model shared by sources, the
// preparation pipeline and the report layer.
//
// A Table is never mutated after construction: every transformation returns
// a new Table. Row slices may be shared between tables because no method
// writes into them.
package core

import "strings"

// Table is an ordered collection of rows over named columns.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// NewTable copies columns and rows into a new table. Rows shorter than the
// header are padded with nulls; longer rows are truncated.
func NewTable(columns []string, rows [][]Value) *Table {
	cols := append([]string(nil), columns...)
	out := make([][]Value, len(rows))
	for i, r := range rows {
		row := make([]Value, len(cols))
		copy(row, r)
		out[i] = row
	}
	return newTable(cols, out)
}

func newTable(columns []string, rows [][]Value) *Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; !dup {
			index[c] = i
		}
	}
	return &Table{columns: columns, index: index, rows: rows}
}

// FromRecords builds a text table from a header and string records.
func FromRecords(header []string, records [][]string) *Table {
	rows := make([][]Value, len(records))
	for i, rec := range records {
		row := make([]Value, len(header))
		for j := 0; j < len(header) && j < len(rec); j++ {
			row[j] = Text(rec[j])
		}
		rows[i] = row
	}
	return newTable(append([]string(nil), header...), rows)
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Has reports whether the column exists.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Value returns the cell at row i for column; missing columns yield null.
func (t *Table) Value(i int, column string) Value {
	j, ok := t.index[column]
	if !ok {
		return Null()
	}
	return t.rows[i][j]
}

// Column returns a copy of a column's values.
func (t *Table) Column(column string) ([]Value, bool) {
	j, ok := t.index[column]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, true
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	return append([]Value(nil), t.rows[i]...)
}

// Record returns row i as a column-name keyed map.
func (t *Table) Record(i int) map[string]Value {
	rec := make(map[string]Value, len(t.columns))
	for j, c := range t.columns {
		if _, seen := rec[c]; !seen {
			rec[c] = t.rows[i][j]
		}
	}
	return rec
}

// WithColumn returns a table where column holds values, replacing an
// existing column of that name or appending a new one. Missing trailing
// values are null.
func (t *Table) WithColumn(column string, values []Value) *Table {
	j, exists := t.index[column]
	cols := t.columns
	if !exists {
		cols = append(append([]string(nil), t.columns...), column)
		j = len(cols) - 1
	}
	rows := make([][]Value, len(t.rows))
	for i, r := range t.rows {
		row := make([]Value, len(cols))
		copy(row, r)
		if i < len(values) {
			row[j] = values[i]
		} else {
			row[j] = Null()
		}
		rows[i] = row
	}
	return newTable(cols, rows)
}

// WithColumnNames returns the same rows under new column names. The number
// of names must match the number of columns; otherwise t is returned as is.
func (t *Table) WithColumnNames(names []string) *Table {
	if len(names) != len(t.columns) {
		return t
	}
	return newTable(append([]string(nil), names...), t.rows)
}

// SelectRows returns a table with the rows at the given indexes, in order.
func (t *Table) SelectRows(indexes []int) *Table {
	rows := make([][]Value, 0, len(indexes))
	for _, i := range indexes {
		rows = append(rows, t.rows[i])
	}
	return newTable(t.columns, rows)
}

// DropDuplicateRows removes rows identical to an earlier row and returns the
// resulting table with the number of rows removed.
func (t *Table) DropDuplicateRows() (*Table, int) {
	seen := make(map[string]struct{}, len(t.rows))
	keep := make([]int, 0, len(t.rows))
	var b strings.Builder
	for i, r := range t.rows {
		b.Reset()
		for _, v := range r {
			b.WriteString(v.key())
			b.WriteByte(0x1f)
		}
		k := b.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	if len(keep) == len(t.rows) {
		return t, 0
	}
	return t.SelectRows(keep), len(t.rows) - len(keep)
}

// Equal reports whether both tables have the same columns and cells.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.columns) != len(o.columns) || len(t.rows) != len(o.rows) {
		return false
	}
	for i := range t.columns {
		if t.columns[i] != o.columns[i] {
			return false
		}
	}
	for i := range t.rows {
		for j := range t.rows[i] {
			if !t.rows[i][j].Equal(o.rows[i][j]) {
				return false
			}
		}
	}
	return true
}
