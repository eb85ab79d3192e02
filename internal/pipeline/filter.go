package pipeline

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"salesdash/internal/core"
)

// Categorical dimensions used by filters and reports.
const (
	ColumnCategory      = "category"
	ColumnRegion        = "region"
	ColumnPaymentMethod = "payment_method"
	ColumnCustomer      = "customer_id"
	ColumnProduct       = "product_id"
)

// Selection holds the user's filter choices. Zero Start or End leaves that
// side of the interval open; empty value lists disable that filter.
type Selection struct {
	Start          time.Time
	End            time.Time
	Categories     []string
	Regions        []string
	PaymentMethods []string
}

// HasDateRange reports whether a date interval filter is active.
func (s Selection) HasDateRange() bool {
	return !s.Start.IsZero() || !s.End.IsZero()
}

// IsEmpty reports whether the selection filters nothing.
func (s Selection) IsEmpty() bool {
	return !s.HasDateRange() && len(s.Categories) == 0 && len(s.Regions) == 0 && len(s.PaymentMethods) == 0
}

type valueFilter struct {
	column string
	accept map[string]struct{}
}

// Apply returns the rows of t that satisfy every active filter. Dates are
// compared by calendar day, both bounds inclusive, and rows with a null date
// are dropped while an interval is active. A categorical filter whose column
// is absent from t is skipped. Columns are never removed.
func Apply(t *core.Table, sel Selection, dateField string) *core.Table {
	if sel.IsEmpty() {
		return t
	}

	var filters []valueFilter
	for _, f := range []struct {
		column string
		values []string
	}{
		{ColumnCategory, sel.Categories},
		{ColumnRegion, sel.Regions},
		{ColumnPaymentMethod, sel.PaymentMethods},
	} {
		if len(f.values) == 0 || !t.Has(f.column) {
			continue
		}
		filters = append(filters, valueFilter{
			column: f.column,
			accept: lo.SliceToMap(f.values, func(v string) (string, struct{}) {
				return strings.TrimSpace(v), struct{}{}
			}),
		})
	}

	var start, end time.Time
	if !sel.Start.IsZero() {
		start = day(sel.Start)
	}
	if !sel.End.IsZero() {
		end = day(sel.End)
	}

	keep := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if sel.HasDateRange() {
			d, ok := t.Value(i, dateField).Time()
			if !ok {
				continue
			}
			d = day(d)
			if !start.IsZero() && d.Before(start) {
				continue
			}
			if !end.IsZero() && d.After(end) {
				continue
			}
		}
		if !matchesAll(t, i, filters) {
			continue
		}
		keep = append(keep, i)
	}
	return t.SelectRows(keep)
}

func matchesAll(t *core.Table, row int, filters []valueFilter) bool {
	for _, f := range filters {
		v := t.Value(row, f.column)
		if v.IsNull() {
			return false
		}
		if _, ok := f.accept[strings.TrimSpace(v.String())]; !ok {
			return false
		}
	}
	return true
}
