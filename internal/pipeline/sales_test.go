package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
)

var threshold = decimal.NewFromFloat(DefaultDiscountPercentThreshold)

func salesOf(t *testing.T, tbl *core.Table, field string) []string {
	t.Helper()
	out := make([]string, tbl.Len())
	for i := range out {
		v := tbl.Value(i, field)
		if v.Kind() != core.KindNumber {
			t.Fatalf("row %d: sales kind %v, want number", i, v.Kind())
		}
		out[i] = v.String()
	}
	return out
}

func assertStrings(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestCoerceNumber(t *testing.T) {
	cases := []struct {
		in        core.Value
		want      string
		defaulted bool
	}{
		{core.Text("12"), "12", false},
		{core.Text(" 1,234.50 "), "1234.5", false},
		{core.Text("$19.99"), "19.99", false},
		{core.Text("50%"), "50", false},
		{core.Text("-3"), "-3", false},
		{core.Number(decimal.RequireFromString("7.25")), "7.25", false},
		{core.Text("abc"), "0", true},
		{core.Text("N/A"), "0", true},
		{core.Null(), "0", true},
	}
	for _, tc := range cases {
		got, defaulted := CoerceNumber(tc.in)
		if got.String() != tc.want || defaulted != tc.defaulted {
			t.Fatalf("CoerceNumber(%q) = %s,%v want %s,%v", tc.in.String(), got, defaulted, tc.want, tc.defaulted)
		}
	}
}

func TestDiscountScaleIsTableLevel(t *testing.T) {
	dec := func(ss ...string) []decimal.Decimal {
		out := make([]decimal.Decimal, len(ss))
		for i, s := range ss {
			out[i] = decimal.RequireFromString(s)
		}
		return out
	}
	if got := DiscountScale(dec("0", "0.2", "1"), threshold); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("max 1 should not scale, got %s", got)
	}
	if got := DiscountScale(dec("0", "0.2", "50"), threshold); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("max 50 should scale, got %s", got)
	}
	if got := DiscountScale(nil, threshold); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("empty column should not scale, got %s", got)
	}
}

func TestDeriveSalesPercentDiscountScenario(t *testing.T) {
	raw := core.FromRecords(
		[]string{"quantity", "price", "discount"},
		[][]string{{"2", "10", "0"}, {"1", "5", "50"}},
	)
	out, d := DeriveSales(raw, "sales", threshold)
	if d.Strategy != StrategyQuantityPrice || !d.DiscountScaled || d.Defaulted != 0 {
		t.Fatalf("unexpected derivation %+v", d)
	}
	assertStrings(t, salesOf(t, out, "sales"), []string{"20", "2.5"})
	if got := ComputeKPIs(out, "sales", ColumnCustomer).TotalSales.String(); got != "22.5" {
		t.Fatalf("total sales = %s, want 22.5", got)
	}
}

// Every discount is divided by 100 once any value exceeds the threshold,
// including values that are already fractions.
func TestDeriveSalesScalesWholeColumn(t *testing.T) {
	raw := core.FromRecords(
		[]string{"quantity", "price", "discount"},
		[][]string{{"1", "100", "0.5"}, {"1", "100", "10"}},
	)
	out, d := DeriveSales(raw, "sales", threshold)
	if !d.DiscountScaled {
		t.Fatalf("expected scaling")
	}
	assertStrings(t, salesOf(t, out, "sales"), []string{"99.5", "90"})
}

func TestDeriveSalesFractionDiscount(t *testing.T) {
	raw := core.FromRecords(
		[]string{"quantity", "price", "discount"},
		[][]string{{"3", "10", "0.1"}, {"1", "8", ""}},
	)
	out, d := DeriveSales(raw, "sales", threshold)
	if d.DiscountScaled {
		t.Fatalf("fractions must not be scaled")
	}
	if d.Defaulted != 1 {
		t.Fatalf("missing discount should count as defaulted, got %d", d.Defaulted)
	}
	assertStrings(t, salesOf(t, out, "sales"), []string{"27", "8"})
}

func TestDeriveSalesWithoutDiscountColumn(t *testing.T) {
	raw := core.FromRecords([]string{"quantity", "price"}, [][]string{{"2", "2.5"}, {"x", "4"}})
	out, d := DeriveSales(raw, "sales", threshold)
	if d.Strategy != StrategyQuantityPrice || d.Defaulted != 1 {
		t.Fatalf("unexpected derivation %+v", d)
	}
	assertStrings(t, salesOf(t, out, "sales"), []string{"5", "0"})
}

// Non-numeric sales are read as exactly 0 rather than rejected.
func TestDeriveSalesExistingColumnDegradesToZero(t *testing.T) {
	raw := core.FromRecords(
		[]string{"sales", "quantity", "price"},
		[][]string{{"10.5", "100", "100"}, {"oops", "1", "1"}, {"", "1", "1"}},
	)
	out, d := DeriveSales(raw, "sales", threshold)
	if d.Strategy != StrategySalesColumn || d.Source != "sales" || d.Defaulted != 2 {
		t.Fatalf("unexpected derivation %+v", d)
	}
	assertStrings(t, salesOf(t, out, "sales"), []string{"10.5", "0", "0"})
}

func TestDeriveSalesFallbackOrder(t *testing.T) {
	raw := core.FromRecords(
		[]string{"total", "amount", "quantity"},
		[][]string{{"1", "7", "3"}, {"2", "bad", "3"}},
	)
	out, d := DeriveSales(raw, "sales", threshold)
	if d.Strategy != StrategyFallbackTotal || d.Source != "amount" || d.Defaulted != 1 {
		t.Fatalf("unexpected derivation %+v", d)
	}
	assertStrings(t, salesOf(t, out, "sales"), []string{"7", "0"})
}

func TestDeriveSalesNoInputsIsZero(t *testing.T) {
	raw := core.FromRecords([]string{"customer_id", "quantity"}, [][]string{{"c1", "2"}, {"c2", "3"}})
	out, d := DeriveSales(raw, "sales", threshold)
	if d.Strategy != StrategyZero {
		t.Fatalf("unexpected strategy %q", d.Strategy)
	}
	assertStrings(t, salesOf(t, out, "sales"), []string{"0", "0"})
	if got := ComputeKPIs(out, "sales", ColumnCustomer).TotalSales; !got.IsZero() {
		t.Fatalf("total sales = %s, want 0", got)
	}
}
