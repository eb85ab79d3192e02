// Package sqlite loads sales tables from SQLite databases and imports
// tables into the versioned orders schema.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
	"salesdash/internal/source"

	_ "modernc.org/sqlite"
)

// DefaultTable is the table written by Import.
const DefaultTable = "orders"

var _ source.Loader = (*Loader)(nil)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Loader reads every row of one table.
type Loader struct {
	dbPath string
	table  string
}

// New returns a loader for table in the database at dbPath. An empty table
// name reads DefaultTable.
func New(dbPath, table string) (*Loader, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		table = DefaultTable
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Loader{dbPath: dbPath, table: table}, nil
}

func (l *Loader) Identity() string {
	p := l.dbPath
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return "sqlite:" + p + "#" + l.table
}

func (l *Loader) Load(ctx context.Context) (*core.Table, error) {
	name := l.dbPath + "#" + l.table
	// sql.Open would create a missing file.
	if _, err := os.Stat(l.dbPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.SourceNotFound(l.dbPath, err)
		}
		return nil, core.SourceUnreadable(l.dbPath, err)
	}

	db, err := sql.Open("sqlite", l.dbPath)
	if err != nil {
		return nil, core.SourceUnreadable(name, fmt.Errorf("open sqlite database: %w", err))
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT * FROM "`+l.table+`"`)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, core.SourceNotFound(name, err)
		}
		return nil, core.SourceUnreadable(name, fmt.Errorf("query: %w", err))
	}
	defer rows.Close()

	t, err := scanTable(rows)
	if err != nil {
		return nil, core.SourceUnreadable(name, err)
	}
	if l.table == DefaultTable {
		t = dropEmptyColumns(t)
	}
	slog.DebugContext(ctx, "Loaded sqlite table", "table", l.table, "rows", t.Len())
	return t, nil
}

func scanTable(rows *sql.Rows) (*core.Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	var out [][]core.Value
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make([]core.Value, len(cols))
		for i, v := range raw {
			row[i] = toValue(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return core.NewTable(cols, out), nil
}

// dropEmptyColumns removes columns without a single non-null cell. The
// orders schema carries every column Import knows, and one that was never
// written must read as absent, not as a column of nulls.
func dropEmptyColumns(t *core.Table) *core.Table {
	if t.Len() == 0 {
		return t
	}
	var keep []string
	for _, c := range t.Columns() {
		values, _ := t.Column(c)
		for _, v := range values {
			if !v.IsNull() {
				keep = append(keep, c)
				break
			}
		}
	}
	if len(keep) == len(t.Columns()) {
		return t
	}
	rows := make([][]core.Value, t.Len())
	for i := range rows {
		row := make([]core.Value, len(keep))
		for j, c := range keep {
			row[j] = t.Value(i, c)
		}
		rows[i] = row
	}
	return core.NewTable(keep, rows)
}

func toValue(v any) core.Value {
	switch x := v.(type) {
	case nil:
		return core.Null()
	case int64:
		return core.Number(decimal.NewFromInt(x))
	case float64:
		return core.Number(decimal.NewFromFloat(x))
	case bool:
		if x {
			return core.Number(decimal.NewFromInt(1))
		}
		return core.Number(decimal.Zero)
	case []byte:
		return core.Text(string(x))
	case string:
		return core.Text(x)
	case time.Time:
		return core.Date(x)
	default:
		return core.Text(fmt.Sprint(x))
	}
}
