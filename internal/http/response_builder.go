// Package http serves reports and filter options as JSON.
//
// This file holds the response shapes and the helpers that write them.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"salesdash/internal/core"
	"salesdash/internal/middleware/trace"
	"salesdash/internal/pipeline"
	"salesdash/internal/services"
)

// Error kinds carried in error bodies.
const (
	KindBadRequest  = "bad_request"
	KindNotFound    = "source_not_found"
	KindUnreadable  = "source_unreadable"
	KindUnavailable = "unavailable"
	KindRateLimited = "rate_limited"
	KindInternal    = "internal"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Param     string `json:"param,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type DatasetDTO struct {
	Source            string    `json:"source"`
	RawRows           int       `json:"raw_rows"`
	Rows              int       `json:"rows"`
	DuplicatesDropped int       `json:"duplicates_dropped"`
	DateSource        string    `json:"date_source"`
	SalesStrategy     string    `json:"sales_strategy"`
	SalesSource       string    `json:"sales_source,omitempty"`
	DiscountScaled    bool      `json:"discount_scaled"`
	LoadedAt          time.Time `json:"loaded_at"`
}

type SelectionDTO struct {
	Start          string   `json:"start,omitempty"`
	End            string   `json:"end,omitempty"`
	Categories     []string `json:"category,omitempty"`
	Regions        []string `json:"region,omitempty"`
	PaymentMethods []string `json:"payment,omitempty"`
}

// GroupDTO is one point of a chart series. Sales is an exact decimal
// string; Display is rounded for labels.
type GroupDTO struct {
	Key     string          `json:"key"`
	Sales   decimal.Decimal `json:"sales"`
	Display string          `json:"display"`
}

type KPIsDTO struct {
	Orders                   int             `json:"orders"`
	TotalSales               decimal.Decimal `json:"total_sales"`
	TotalSalesDisplay        string          `json:"total_sales_display"`
	AverageOrderValue        decimal.Decimal `json:"average_order_value"`
	AverageOrderValueDisplay string          `json:"average_order_value_display"`
	UniqueCustomers          int             `json:"unique_customers"`
}

type ReportResponse struct {
	Dataset         DatasetDTO    `json:"dataset"`
	Selection       SelectionDTO  `json:"selection"`
	KPIs            KPIsDTO       `json:"kpis"`
	ByCategory      []GroupDTO    `json:"by_category"`
	ByRegion        []GroupDTO    `json:"by_region"`
	ByPaymentMethod []GroupDTO    `json:"by_payment_method"`
	MonthlyTrend    []GroupDTO    `json:"monthly_trend"`
	TopCustomers    []GroupDTO    `json:"top_customers"`
	TopProducts     []GroupDTO    `json:"top_products"`
	Notices         []core.Notice `json:"notices"`
}

type FiltersResponse struct {
	Dataset        DatasetDTO `json:"dataset"`
	Categories     []string   `json:"categories"`
	Regions        []string   `json:"regions"`
	PaymentMethods []string   `json:"payment_methods"`
	HasDates       bool       `json:"has_dates"`
	MinDate        string     `json:"min_date,omitempty"`
	MaxDate        string     `json:"max_date,omitempty"`
}

type ReloadResponse struct {
	Reloaded bool       `json:"reloaded"`
	Dataset  DatasetDTO `json:"dataset"`
}

func formatMoney(d decimal.Decimal) string {
	return humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

func newDatasetDTO(info services.DatasetInfo) DatasetDTO {
	return DatasetDTO{
		Source:            info.Source,
		RawRows:           info.RawRows,
		Rows:              info.Rows,
		DuplicatesDropped: info.DuplicatesDropped,
		DateSource:        info.DateSource,
		SalesStrategy:     string(info.SalesStrategy),
		SalesSource:       info.SalesSource,
		DiscountScaled:    info.DiscountScaled,
		LoadedAt:          info.LoadedAt,
	}
}

func newSelectionDTO(sel pipeline.Selection) SelectionDTO {
	dto := SelectionDTO{
		Categories:     sel.Categories,
		Regions:        sel.Regions,
		PaymentMethods: sel.PaymentMethods,
	}
	if !sel.Start.IsZero() {
		dto.Start = sel.Start.Format(core.DateLayout)
	}
	if !sel.End.IsZero() {
		dto.End = sel.End.Format(core.DateLayout)
	}
	return dto
}

func newSeries(a pipeline.Aggregate) []GroupDTO {
	return lo.Map(a, func(g pipeline.Group, _ int) GroupDTO {
		return GroupDTO{Key: g.Key, Sales: g.Sum, Display: formatMoney(g.Sum)}
	})
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func newReportResponse(res services.ReportResult) ReportResponse {
	r := res.Report
	return ReportResponse{
		Dataset:   newDatasetDTO(res.Dataset),
		Selection: newSelectionDTO(r.Selection),
		KPIs: KPIsDTO{
			Orders:                   r.KPIs.Orders,
			TotalSales:               r.KPIs.TotalSales,
			TotalSalesDisplay:        formatMoney(r.KPIs.TotalSales),
			AverageOrderValue:        r.KPIs.AverageOrderValue,
			AverageOrderValueDisplay: formatMoney(r.KPIs.AverageOrderValue),
			UniqueCustomers:          r.KPIs.UniqueCustomers,
		},
		ByCategory:      newSeries(r.ByCategory),
		ByRegion:        newSeries(r.ByRegion),
		ByPaymentMethod: newSeries(r.ByPaymentMethod),
		MonthlyTrend:    newSeries(r.MonthlyTrend),
		TopCustomers:    newSeries(r.TopCustomers),
		TopProducts:     newSeries(r.TopProducts),
		Notices:         orEmpty(r.Notices),
	}
}

func newFiltersResponse(res services.FilterResult) FiltersResponse {
	o := res.Options
	return FiltersResponse{
		Dataset:        newDatasetDTO(res.Dataset),
		Categories:     orEmpty(o.Categories),
		Regions:        orEmpty(o.Regions),
		PaymentMethods: orEmpty(o.PaymentMethods),
		HasDates:       o.HasDates,
		MinDate:        o.MinDate,
		MaxDate:        o.MaxDate,
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, kind, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:     msg,
		Kind:      kind,
		RequestID: trace.GetRequestID(r.Context()),
	})
}

// statusFor maps a service error to a status and error kind.
func statusFor(err error) (int, string) {
	var perr *ParamError
	switch {
	case errors.As(err, &perr):
		return http.StatusBadRequest, KindBadRequest
	case errors.Is(err, core.ErrSourceNotFound):
		return http.StatusNotFound, KindNotFound
	case errors.Is(err, core.ErrSourceUnreadable):
		return http.StatusBadGateway, KindUnreadable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, KindUnavailable
	default:
		return http.StatusInternalServerError, KindInternal
	}
}
