package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"salesdash/internal/core"
)

// Group is one (dimension value, summed value) pair.
type Group struct {
	Key string
	Sum decimal.Decimal
}

// Aggregate is an ordered sequence of groups.
type Aggregate []Group

// Total sums every group.
func (a Aggregate) Total() decimal.Decimal {
	total := decimal.Zero
	for _, g := range a {
		total = total.Add(g.Sum)
	}
	return total
}

func missingDimension(dimension string) *core.Notice {
	return &core.Notice{
		Kind:    core.NoticeMissingDimension,
		Field:   dimension,
		Message: fmt.Sprintf("column %q is not present in the dataset", dimension),
	}
}

func valueOrSales(valueField string) string {
	if valueField == "" {
		return DefaultSalesField
	}
	return valueField
}

// GroupSum sums valueField, sales when empty, per distinct value of
// dimension, in order of first appearance. Rows with a null dimension value
// are skipped. A missing dimension column yields an empty result and a
// notice, never an error.
func GroupSum(t *core.Table, dimension, valueField string) (Aggregate, *core.Notice) {
	valueField = valueOrSales(valueField)
	if !t.Has(dimension) {
		return Aggregate{}, missingDimension(dimension)
	}
	sums := make(map[string]decimal.Decimal)
	order := make([]string, 0)
	for i := 0; i < t.Len(); i++ {
		k := t.Value(i, dimension)
		if k.IsNull() {
			continue
		}
		key := strings.TrimSpace(k.String())
		v, _ := CoerceNumber(t.Value(i, valueField))
		if _, seen := sums[key]; !seen {
			order = append(order, key)
			sums[key] = decimal.Zero
		}
		sums[key] = sums[key].Add(v)
	}
	out := make(Aggregate, 0, len(order))
	for _, k := range order {
		out = append(out, Group{Key: k, Sum: sums[k]})
	}
	return out, nil
}

// TopN returns the n largest groups by sum, descending. Equal sums keep
// their first-appearance order. n <= 0 returns every group.
func TopN(t *core.Table, dimension, valueField string, n int) (Aggregate, *core.Notice) {
	groups, notice := GroupSum(t, dimension, valueField)
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Sum.GreaterThan(groups[j].Sum)
	})
	if n > 0 && len(groups) > n {
		groups = groups[:n]
	}
	return groups, notice
}

// MonthLayout is the key format of monthly trend groups.
const MonthLayout = "2006-01"

// MonthlyTrend sums valueField per calendar month of dateField in
// chronological order. Rows with a null date are skipped. An empty
// valueField sums sales.
func MonthlyTrend(t *core.Table, dateField, valueField string) Aggregate {
	valueField = valueOrSales(valueField)
	sums := make(map[string]decimal.Decimal)
	for i := 0; i < t.Len(); i++ {
		d, ok := t.Value(i, dateField).Time()
		if !ok {
			continue
		}
		key := d.UTC().Format(MonthLayout)
		v, _ := CoerceNumber(t.Value(i, valueField))
		sums[key] = sums[key].Add(v)
	}
	keys := lo.Keys(sums)
	sort.Strings(keys)
	out := make(Aggregate, 0, len(keys))
	for _, k := range keys {
		out = append(out, Group{Key: k, Sum: sums[k]})
	}
	return out
}

// KPIs are the headline figures of a report.
type KPIs struct {
	Orders            int
	TotalSales        decimal.Decimal
	AverageOrderValue decimal.Decimal
	UniqueCustomers   int
}

// ComputeKPIs computes total and mean of salesField over all rows and the
// number of distinct non-null customer values. An empty table has zero
// average; an absent customer column counts zero customers.
func ComputeKPIs(t *core.Table, salesField, customerField string) KPIs {
	salesField = valueOrSales(salesField)
	k := KPIs{Orders: t.Len(), TotalSales: decimal.Zero, AverageOrderValue: decimal.Zero}
	for i := 0; i < t.Len(); i++ {
		v, _ := CoerceNumber(t.Value(i, salesField))
		k.TotalSales = k.TotalSales.Add(v)
	}
	if k.Orders > 0 {
		k.AverageOrderValue = k.TotalSales.Div(decimal.NewFromInt(int64(k.Orders)))
	}
	k.UniqueCustomers = len(DistinctValues(t, customerField))
	return k
}

// DistinctValues returns the sorted distinct non-null values of column.
func DistinctValues(t *core.Table, column string) []string {
	values, ok := t.Column(column)
	if !ok {
		return []string{}
	}
	present := lo.FilterMap(values, func(v core.Value, _ int) (string, bool) {
		return strings.TrimSpace(v.String()), !v.IsNull()
	})
	out := lo.Uniq(present)
	sort.Strings(out)
	return out
}

// DateBounds returns the earliest and latest non-null dates of field.
func DateBounds(t *core.Table, field string) (first, last time.Time, ok bool) {
	for i := 0; i < t.Len(); i++ {
		d, has := t.Value(i, field).Time()
		if !has {
			continue
		}
		if !ok || d.Before(first) {
			first = d
		}
		if !ok || d.After(last) {
			last = d
		}
		ok = true
	}
	return first, last, ok
}
