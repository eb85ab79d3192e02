package xlsx

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"salesdash/internal/core"
)

func writeWorkbook(t *testing.T, sheets map[string][][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for name, rows := range sheets {
		if name != "Sheet1" {
			if _, err := f.NewSheet(name); err != nil {
				t.Fatalf("new sheet: %v", err)
			}
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			r := row
			if err := f.SetSheetRow(name, cell, &r); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestLoadFirstSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Sheet1": {
			{"Order Date", "Category", "Sales"},
			{"2024-01-01", "Books", 12.5},
			{},
			{"2024-01-02", "Toys"},
		},
	})
	tbl, err := New(path, "").Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Len())
	}
	if got := tbl.Value(0, "Sales").String(); got != "12.5" {
		t.Fatalf("sales = %q", got)
	}
	if !tbl.Value(1, "Sales").IsNull() {
		t.Fatalf("short row should be padded with null")
	}
}

func TestLoadNamedSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Sheet1": {{"x"}, {"1"}},
		"Orders": {{"category"}, {"Books"}, {"Toys"}},
	})
	tbl, err := New(path, "Orders").Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Len() != 2 || !tbl.Has("category") {
		t.Fatalf("read the wrong sheet: %v", tbl.Columns())
	}

	_, err = New(path, "Missing").Load(context.Background())
	if !errors.Is(err, core.ErrSourceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	_, err := New(filepath.Join(dir, "nope.xlsx"), "").Load(context.Background())
	if !errors.Is(err, core.ErrSourceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	empty := writeWorkbook(t, map[string][][]any{"Sheet1": nil})
	_, err = New(empty, "").Load(context.Background())
	if !errors.Is(err, core.ErrSourceUnreadable) {
		t.Fatalf("expected unreadable, got %v", err)
	}
}
