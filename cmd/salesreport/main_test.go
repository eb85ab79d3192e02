package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"salesdash/internal/cli"
)

const ordersCSV = `Order_Date;Category;Region;Payment_Method;Customer_ID;Product_ID;Quantity;Price;Discount
2024-01-05;Books;North;card;c1;p1;2;600;0
2024-02-10;Toys;South;cash;c2;p2;1;20;0
2024-02-11;Books;South;card;c1;p2;3;10;0
2024-02-11;Books;South;card;c1;p2;3;10;0
`

func writeOrders(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	if err := os.WriteFile(path, []byte(ordersCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runReport(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("DATA_SOURCE", "csv")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunPrintsReport(t *testing.T) {
	path := writeOrders(t)
	code, out, errOut := runReport(t, "-path", path, "-category", "Books", "-top", "1")
	if code != cli.ExitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	for _, want := range []string{
		"1 duplicates dropped",
		"quantity_price",
		"category in Books",
		"Total sales",
		"1,230.00",
		"Top products",
		"2024-02",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Toys") {
		t.Errorf("filtered category leaked into the report:\n%s", out)
	}
}

func TestRunExitCodes(t *testing.T) {
	dir := t.TempDir()
	unreadable := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(unreadable, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing file", []string{"-path", filepath.Join(dir, "nope.csv")}, cli.ExitNotFound},
		{"empty file", []string{"-path", unreadable}, cli.ExitUnreadable},
		{"bad date", []string{"-path", unreadable, "-start", "yesterday"}, cli.ExitBadArgument},
		{"unknown flag", []string{"-bogus"}, cli.ExitBadArgument},
		{"unknown source", []string{"-source", "parquet"}, cli.ExitBadArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runReport(t, tt.args...)
			if code != tt.want {
				t.Fatalf("exit %d, want %d: %s", code, tt.want, errOut)
			}
		})
	}
}

func TestShare(t *testing.T) {
	if got := share(decimal.RequireFromString("25"), decimal.RequireFromString("200")); got != "12.5%" {
		t.Fatalf("share = %q", got)
	}
	if got := share(decimal.RequireFromString("1"), decimal.RequireFromString("0")); got != "-" {
		t.Fatalf("share of zero total = %q", got)
	}
}
