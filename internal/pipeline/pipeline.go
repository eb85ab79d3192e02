// Package pipeline prepares a raw sales table and derives report figures.
//
// Preparation runs once per loaded dataset: column normalization, removal of
// duplicate rows, date resolution and sales derivation. Reports run once per
// filter selection over the prepared table: filtering, group-by summaries,
// monthly trend, top-N rankings and KPIs.
//
// Nothing in this package returns an error. Values that cannot be coerced
// degrade to documented defaults (0 or null) and missing columns produce
// empty results, both reported as core.Notice values.
package pipeline

import (
	"fmt"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
)

// Canonical derived fields.
const (
	DefaultDateField  = "order_date"
	DefaultSalesField = "sales"
)

// DefaultDateCandidates lists the date columns probed when none are configured.
var DefaultDateCandidates = []string{"order_date", "date", "orderdate", "purchase_date"}

// DefaultDiscountPercentThreshold is the discount maximum above which the
// column is read as percentages.
const DefaultDiscountPercentThreshold = 1.0

// DefaultTopN is the size of customer and product rankings.
const DefaultTopN = 10

// Options configure preparation and reporting.
type Options struct {
	DateCandidates           []string
	DiscountPercentThreshold float64
	DateField                string
	SalesField               string
	TopN                     int
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		DateCandidates:           append([]string(nil), DefaultDateCandidates...),
		DiscountPercentThreshold: DefaultDiscountPercentThreshold,
		DateField:                DefaultDateField,
		SalesField:               DefaultSalesField,
		TopN:                     DefaultTopN,
	}
}

// WithDefaults fills unset fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if len(o.DateCandidates) == 0 {
		o.DateCandidates = d.DateCandidates
	}
	if o.DiscountPercentThreshold <= 0 {
		o.DiscountPercentThreshold = d.DiscountPercentThreshold
	}
	if o.DateField == "" {
		o.DateField = d.DateField
	}
	if o.SalesField == "" {
		o.SalesField = d.SalesField
	}
	if o.TopN <= 0 {
		o.TopN = d.TopN
	}
	return o
}

// Prepared is a dataset ready for reporting. Table must be treated as
// read-only; it is shared by every report built from it.
type Prepared struct {
	Table             *core.Table
	Date              DateResolution
	Sales             SalesDerivation
	DuplicatesDropped int
	Notices           []core.Notice
}

// Prepare runs the load-time steps over a raw table.
func Prepare(raw *core.Table, opts Options) Prepared {
	opts = opts.WithDefaults()

	t, notices := NormalizeColumns(raw)

	t, dropped := t.DropDuplicateRows()
	if dropped > 0 {
		notices = append(notices, core.Notice{
			Kind:    core.NoticeDuplicateRows,
			Message: fmt.Sprintf("%d duplicate rows removed", dropped),
		})
	}

	t, dates := ResolveDate(t, opts.DateCandidates, opts.DateField)
	if dates.Source == "" {
		notices = append(notices, core.Notice{
			Kind:    core.NoticeMissingDate,
			Field:   opts.DateField,
			Message: fmt.Sprintf("none of the date columns %v are present; dates are empty", opts.DateCandidates),
		})
	} else if dates.Nulls > 0 {
		notices = append(notices, core.Notice{
			Kind:    core.NoticeCoercedValues,
			Field:   dates.Source,
			Message: fmt.Sprintf("%d values in %q are not dates and were left empty", dates.Nulls, dates.Source),
		})
	}

	t, sales := DeriveSales(t, opts.SalesField, decimal.NewFromFloat(opts.DiscountPercentThreshold))
	if sales.Defaulted > 0 {
		notices = append(notices, core.Notice{
			Kind:    core.NoticeCoercedValues,
			Field:   opts.SalesField,
			Message: fmt.Sprintf("%d non-numeric inputs to %q were read as 0", sales.Defaulted, opts.SalesField),
		})
	}

	return Prepared{
		Table:             t,
		Date:              dates,
		Sales:             sales,
		DuplicatesDropped: dropped,
		Notices:           notices,
	}
}

// Report is everything the presentation layer draws for one selection.
type Report struct {
	Selection       Selection
	KPIs            KPIs
	ByCategory      Aggregate
	ByRegion        Aggregate
	ByPaymentMethod Aggregate
	MonthlyTrend    Aggregate
	TopCustomers    Aggregate
	TopProducts     Aggregate
	Notices         []core.Notice
}

// BuildReport filters a prepared table and computes every report series.
func BuildReport(p Prepared, sel Selection, opts Options) Report {
	opts = opts.WithDefaults()
	t := Apply(p.Table, sel, opts.DateField)

	r := Report{
		Selection:    sel,
		KPIs:         ComputeKPIs(t, opts.SalesField, ColumnCustomer),
		MonthlyTrend: MonthlyTrend(t, opts.DateField, opts.SalesField),
		Notices:      append([]core.Notice(nil), p.Notices...),
	}

	collect := func(a Aggregate, n *core.Notice) Aggregate {
		if n != nil {
			r.Notices = append(r.Notices, *n)
		}
		return a
	}
	r.ByCategory = collect(GroupSum(t, ColumnCategory, opts.SalesField))
	r.ByRegion = collect(GroupSum(t, ColumnRegion, opts.SalesField))
	r.ByPaymentMethod = collect(GroupSum(t, ColumnPaymentMethod, opts.SalesField))
	r.TopCustomers = collect(TopN(t, ColumnCustomer, opts.SalesField, opts.TopN))
	r.TopProducts = collect(TopN(t, ColumnProduct, opts.SalesField, opts.TopN))
	return r
}

// FilterOptions are the choices offered for a prepared dataset.
type FilterOptions struct {
	Categories     []string
	Regions        []string
	PaymentMethods []string
	HasDates       bool
	MinDate        string
	MaxDate        string
}

// BuildFilterOptions lists distinct dimension values and the date bounds.
func BuildFilterOptions(p Prepared, opts Options) FilterOptions {
	opts = opts.WithDefaults()
	fo := FilterOptions{
		Categories:     DistinctValues(p.Table, ColumnCategory),
		Regions:        DistinctValues(p.Table, ColumnRegion),
		PaymentMethods: DistinctValues(p.Table, ColumnPaymentMethod),
	}
	if first, last, ok := DateBounds(p.Table, opts.DateField); ok {
		fo.HasDates = true
		fo.MinDate = first.Format(core.DateLayout)
		fo.MaxDate = last.Format(core.DateLayout)
	}
	return fo
}
