package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTextBlankIsNull(t *testing.T) {
	for _, s := range []string{"", "  ", "\t"} {
		if !Text(s).IsNull() {
			t.Fatalf("Text(%q) should be null", s)
		}
	}
	if Text("x").IsNull() {
		t.Fatalf("Text(\"x\") should not be null")
	}
}

func TestValueEqualAndString(t *testing.T) {
	d := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		v    Value
		want string
	}{
		{Null(), ""},
		{Text("abc"), "abc"},
		{Number(decimal.RequireFromString("2.50")), "2.5"},
		{Date(d), "2024-03-05"},
	}
	for _, tc := range cases {
		if got := tc.v.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
		if !tc.v.Equal(tc.v) {
			t.Fatalf("value %q not equal to itself", tc.want)
		}
	}
	if Text("2.5").Equal(Number(decimal.RequireFromString("2.5"))) {
		t.Fatalf("text and number must not compare equal")
	}
	if !Number(decimal.RequireFromString("2.50")).Equal(Number(decimal.RequireFromString("2.5"))) {
		t.Fatalf("numerically equal decimals should compare equal")
	}
}

func TestNewTablePadsAndCopies(t *testing.T) {
	rows := [][]Value{{Text("a")}, {Text("b"), Text("c"), Text("extra")}}
	tbl := NewTable([]string{"x", "y"}, rows)
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d", tbl.Len())
	}
	if !tbl.Value(0, "y").IsNull() {
		t.Fatalf("short row should be padded with null")
	}
	rows[1][0] = Text("changed")
	if got := tbl.Value(1, "x").String(); got != "b" {
		t.Fatalf("table shares caller rows: got %q", got)
	}
	if !tbl.Value(0, "missing").IsNull() {
		t.Fatalf("missing column should read as null")
	}
}

func TestWithColumnDoesNotMutateSource(t *testing.T) {
	base := FromRecords([]string{"a"}, [][]string{{"1"}, {"2"}})
	added := base.WithColumn("b", []Value{Text("x")})
	if base.Has("b") {
		t.Fatalf("source table gained a column")
	}
	if !added.Has("b") || added.Value(0, "b").String() != "x" || !added.Value(1, "b").IsNull() {
		t.Fatalf("unexpected added column: %v %v", added.Value(0, "b"), added.Value(1, "b"))
	}

	replaced := added.WithColumn("a", []Value{Text("9"), Text("8")})
	if got := added.Value(0, "a").String(); got != "1" {
		t.Fatalf("replace mutated source: %q", got)
	}
	if got := replaced.Value(1, "a").String(); got != "8" {
		t.Fatalf("replace failed: %q", got)
	}
	if len(replaced.Columns()) != 2 {
		t.Fatalf("replace should not add a column: %v", replaced.Columns())
	}
}

func TestSelectRowsAndEqual(t *testing.T) {
	tbl := FromRecords([]string{"k"}, [][]string{{"a"}, {"b"}, {"c"}})
	sel := tbl.SelectRows([]int{2, 0})
	if sel.Len() != 2 || sel.Value(0, "k").String() != "c" || sel.Value(1, "k").String() != "a" {
		t.Fatalf("unexpected selection")
	}
	if !tbl.Equal(tbl.SelectRows([]int{0, 1, 2})) {
		t.Fatalf("full selection should equal source")
	}
	if tbl.Equal(sel) {
		t.Fatalf("different tables compared equal")
	}
}

func TestDropDuplicateRows(t *testing.T) {
	tbl := FromRecords([]string{"a", "b"}, [][]string{
		{"1", "x"},
		{"1", "x"},
		{"1", ""},
		{"2", "x"},
		{"1", ""},
	})
	out, dropped := tbl.DropDuplicateRows()
	if dropped != 2 || out.Len() != 3 {
		t.Fatalf("dropped=%d len=%d", dropped, out.Len())
	}
	same, dropped := out.DropDuplicateRows()
	if dropped != 0 || same != out {
		t.Fatalf("expected no-op on unique rows")
	}
}

func TestSourceErrorsWrapSentinels(t *testing.T) {
	cause := errors.New("boom")
	err := SourceUnreadable("sales.csv", cause)
	if !errors.Is(err, ErrSourceUnreadable) || !errors.Is(err, cause) {
		t.Fatalf("unreadable error does not wrap: %v", err)
	}
	if errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("unreadable error matched not-found")
	}
	if !errors.Is(SourceNotFound("sales.csv", nil), ErrSourceNotFound) {
		t.Fatalf("not-found error does not wrap sentinel")
	}
}
