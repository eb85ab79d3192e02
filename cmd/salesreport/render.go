package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"salesdash/internal/core"
	"salesdash/internal/pipeline"
)

func money(d decimal.Decimal) string {
	return humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

func share(part, total decimal.Decimal) string {
	if total.IsZero() {
		return "-"
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

func render(w io.Writer, identity string, rawRows int, p pipeline.Prepared, r pipeline.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "Source:\t%s\t\n", identity)
	fmt.Fprintf(tw, "Rows:\t%s loaded, %s duplicates dropped\t\n",
		humanize.Comma(int64(rawRows)), humanize.Comma(int64(p.DuplicatesDropped)))
	fmt.Fprintf(tw, "Dates:\t%s\t\n", dateLine(p))
	fmt.Fprintf(tw, "Sales:\t%s\t\n", salesLine(p))
	if sel := selectionLine(r.Selection); sel != "" {
		fmt.Fprintf(tw, "Filters:\t%s\t\n", sel)
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Orders\t%s\t\n", humanize.Comma(int64(r.KPIs.Orders)))
	fmt.Fprintf(tw, "Total sales\t%s\t\n", money(r.KPIs.TotalSales))
	fmt.Fprintf(tw, "Average order value\t%s\t\n", money(r.KPIs.AverageOrderValue))
	fmt.Fprintf(tw, "Unique customers\t%s\t\n", humanize.Comma(int64(r.KPIs.UniqueCustomers)))

	total := r.KPIs.TotalSales
	sections := []struct {
		title string
		data  pipeline.Aggregate
	}{
		{"Sales by category", r.ByCategory},
		{"Sales by region", r.ByRegion},
		{"Sales by payment method", r.ByPaymentMethod},
		{"Monthly trend", r.MonthlyTrend},
		{"Top customers", r.TopCustomers},
		{"Top products", r.TopProducts},
	}
	for _, s := range sections {
		fmt.Fprintf(tw, "\n%s\t\t\t\n", s.title)
		if len(s.data) == 0 {
			fmt.Fprintln(tw, "(none)\t\t\t")
			continue
		}
		for _, g := range s.data {
			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", g.Key, money(g.Sum), share(g.Sum, total))
		}
	}

	if len(r.Notices) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Notices\t")
		for _, n := range r.Notices {
			fmt.Fprintf(tw, "%s\t%s\t\n", n.Kind, n.Message)
		}
	}
	return tw.Flush()
}

func dateLine(p pipeline.Prepared) string {
	if p.Date.Source == "" {
		return "no date column"
	}
	if p.Date.Nulls == 0 {
		return p.Date.Source
	}
	return fmt.Sprintf("%s (%s unparseable)", p.Date.Source, humanize.Comma(int64(p.Date.Nulls)))
}

func salesLine(p pipeline.Prepared) string {
	s := string(p.Sales.Strategy)
	if p.Sales.Source != "" {
		s += " from " + p.Sales.Source
	}
	if p.Sales.DiscountScaled {
		s += ", discount read as percent"
	}
	return s
}

func selectionLine(sel pipeline.Selection) string {
	var parts []string
	if !sel.Start.IsZero() {
		parts = append(parts, "from "+sel.Start.Format(core.DateLayout))
	}
	if !sel.End.IsZero() {
		parts = append(parts, "to "+sel.End.Format(core.DateLayout))
	}
	for _, f := range []struct {
		name   string
		values []string
	}{
		{"category", sel.Categories},
		{"region", sel.Regions},
		{"payment", sel.PaymentMethods},
	} {
		if len(f.values) > 0 {
			parts = append(parts, f.name+" in "+strings.Join(f.values, "|"))
		}
	}
	return strings.Join(parts, ", ")
}
