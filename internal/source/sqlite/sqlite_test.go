package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
	"salesdash/internal/pipeline"
)

func TestImportAndLoad(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "data", "sales.db")
	src := core.FromRecords(
		[]string{"order_date", "category", "quantity", "price", "notes"},
		[][]string{
			{"2024-01-01", "Books", "2", "10", "gift"},
			{"2024-01-02", "", "1", "5", ""},
		},
	)

	res, err := Import(ctx, dbPath, src)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Rows != 2 || len(res.Mapped) != 4 || len(res.Ignored) != 1 || res.Ignored[0] != "notes" {
		t.Fatalf("unexpected result %+v", res)
	}

	l, err := New(dbPath, "")
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := l.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := strings.Join(tbl.Columns(), ","); got != "order_date,category,quantity,price" {
		t.Fatalf("columns = %s", got)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Len())
	}
	if got := tbl.Value(0, "category").String(); got != "Books" {
		t.Fatalf("category = %q", got)
	}
	if !tbl.Value(1, "category").IsNull() {
		t.Fatalf("missing cells should load as null")
	}
	if tbl.Has("sales") {
		t.Fatalf("a schema column that was never written should not load")
	}

	// Importing again appends and re-running migrations is a no-op.
	if _, err := Import(ctx, dbPath, src); err != nil {
		t.Fatalf("second Import: %v", err)
	}
	tbl, err = l.Load(ctx)
	if err != nil {
		t.Fatalf("Load after second import: %v", err)
	}
	if tbl.Len() != 4 {
		t.Fatalf("expected 4 rows after second import, got %d", tbl.Len())
	}
}

func TestImportRoundTripKeepsDerivedSales(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "sales.db")
	src := core.FromRecords(
		[]string{"date", "customer_id", "quantity", "price", "discount"},
		[][]string{
			{"2024-01-05", "c1", "2", "10", "0"},
			{"2024-01-06", "c2", "1", "5", "50"},
		},
	)
	direct := pipeline.Prepare(src, pipeline.DefaultOptions())

	res, err := Import(ctx, dbPath, src)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(res.Ignored) != 0 {
		t.Fatalf("ignored = %v", res.Ignored)
	}
	l, _ := New(dbPath, "")
	tbl, err := l.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	loaded := pipeline.Prepare(tbl, pipeline.DefaultOptions())

	for name, p := range map[string]pipeline.Prepared{"direct": direct, "sqlite": loaded} {
		if p.Sales.Strategy != pipeline.StrategyQuantityPrice {
			t.Errorf("%s: strategy = %s", name, p.Sales.Strategy)
		}
		if p.Date.Source != "date" || p.Date.Nulls != 0 {
			t.Errorf("%s: date resolution = %+v", name, p.Date)
		}
		k := pipeline.ComputeKPIs(p.Table, pipeline.DefaultSalesField, pipeline.ColumnCustomer)
		if !k.TotalSales.Equal(decimal.RequireFromString("22.5")) {
			t.Errorf("%s: total sales = %s", name, k.TotalSales)
		}
	}
}

func TestImportRejectsUnknownColumns(t *testing.T) {
	src := core.FromRecords([]string{"foo", "bar"}, [][]string{{"1", "2"}})
	if _, err := Import(context.Background(), filepath.Join(t.TempDir(), "x.db"), src); err == nil {
		t.Fatal("expected an error when no column matches")
	}
}

func TestLoadNotFound(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	l, _ := New(filepath.Join(dir, "missing.db"), "")
	if _, err := l.Load(ctx); !errors.Is(err, core.ErrSourceNotFound) {
		t.Fatalf("expected not found for a missing file, got %v", err)
	}

	dbPath := filepath.Join(dir, "sales.db")
	if err := RunMigrations(dbPath); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	l, _ = New(dbPath, "refunds")
	if _, err := l.Load(ctx); !errors.Is(err, core.ErrSourceNotFound) {
		t.Fatalf("expected not found for a missing table, got %v", err)
	}
}

func TestNewRejectsBadTableNames(t *testing.T) {
	for _, name := range []string{"orders; DROP TABLE orders", "1orders", `a"b`} {
		if _, err := New("x.db", name); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
	l, err := New("x.db", " sales_2024 ")
	if err != nil {
		t.Fatal(err)
	}
	if l.table != "sales_2024" {
		t.Fatalf("table = %q", l.table)
	}
}
