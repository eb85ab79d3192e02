package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"salesdash/internal/core"
)

// OrderColumns are the columns of the orders schema, in table order. The
// alternate date and total columns let exports without order_date or sales
// round-trip unchanged.
var OrderColumns = []string{
	"order_id", "order_date", "customer_id", "product_id", "category",
	"region", "payment_method", "quantity", "price", "discount", "sales",
	"date", "orderdate", "purchase_date", "order_total", "amount", "total",
}

// ImportResult describes what Import wrote.
type ImportResult struct {
	Rows    int
	Mapped  []string
	Ignored []string
}

// Import migrates the database at dbPath and appends every row of t to the
// orders table. Columns of t are matched to the schema by exact name, so t
// should already be normalized. Only matched columns are written; the rest
// of the schema stays NULL and unmatched table columns are ignored. Cells
// are stored as text.
func Import(ctx context.Context, dbPath string, t *core.Table) (ImportResult, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return ImportResult{}, fmt.Errorf("create db directory: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		return ImportResult{}, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open sqlite database: %w", err)
	}
	defer db.Close()

	var res ImportResult
	for _, c := range OrderColumns {
		if t.Has(c) {
			res.Mapped = append(res.Mapped, c)
		}
	}
	known := make(map[string]bool, len(OrderColumns))
	for _, c := range OrderColumns {
		known[c] = true
	}
	for _, c := range t.Columns() {
		if !known[c] {
			res.Ignored = append(res.Ignored, c)
		}
	}

	if len(res.Mapped) == 0 {
		return ImportResult{}, fmt.Errorf("no column matches the orders schema (%s)", strings.Join(OrderColumns, ", "))
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	quoted := make([]string, len(res.Mapped))
	for i, c := range res.Mapped {
		quoted[i] = `"` + c + `"`
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(res.Mapped)), ",")
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO orders ("+strings.Join(quoted, ",")+") VALUES ("+placeholders+")")
	if err != nil {
		return ImportResult{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(res.Mapped))
	for i := 0; i < t.Len(); i++ {
		for j, c := range res.Mapped {
			v := t.Value(i, c)
			if v.IsNull() {
				args[j] = nil
			} else {
				args[j] = v.String()
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return ImportResult{}, fmt.Errorf("insert row %d: %w", i+1, err)
		}
		res.Rows++
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("commit: %w", err)
	}
	slog.InfoContext(ctx, "Orders imported", "path", dbPath, "rows", res.Rows, "ignored_columns", res.Ignored)
	return res, nil
}
