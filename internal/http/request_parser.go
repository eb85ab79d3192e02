// Package http serves reports and filter options as JSON.
//
// This file turns query strings into filter selections.

package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"salesdash/internal/core"
	"salesdash/internal/pipeline"
)

// Query parameter names accepted by the report endpoint.
const (
	ParamStart    = "start"
	ParamEnd      = "end"
	ParamCategory = "category"
	ParamRegion   = "region"
	ParamPayment  = "payment"
	ParamTop      = "top"
)

const maxTopN = 1000

// ParamError reports a malformed query parameter.
type ParamError struct {
	Param  string
	Value  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Param, e.Value, e.Reason)
}

// ReportQuery is a parsed report request.
type ReportQuery struct {
	Selection pipeline.Selection
	TopN      int
}

// ParseReportQuery reads a selection and an optional ranking size. Dates are
// YYYY-MM-DD; categorical parameters may repeat and blank values are
// ignored. start after end is rejected.
func ParseReportQuery(query url.Values) (ReportQuery, error) {
	var q ReportQuery

	start, err := parseDay(query, ParamStart)
	if err != nil {
		return q, err
	}
	end, err := parseDay(query, ParamEnd)
	if err != nil {
		return q, err
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return q, &ParamError{Param: ParamStart, Value: query.Get(ParamStart), Reason: "after end"}
	}

	q.Selection = pipeline.Selection{
		Start:          start,
		End:            end,
		Categories:     parseValues(query, ParamCategory),
		Regions:        parseValues(query, ParamRegion),
		PaymentMethods: parseValues(query, ParamPayment),
	}

	if v := strings.TrimSpace(query.Get(ParamTop)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTopN {
			return q, &ParamError{Param: ParamTop, Value: v, Reason: fmt.Sprintf("must be between 1 and %d", maxTopN)}
		}
		q.TopN = n
	}
	return q, nil
}

func parseDay(query url.Values, param string) (time.Time, error) {
	v := strings.TrimSpace(query.Get(param))
	if v == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(core.DateLayout, v)
	if err != nil {
		return time.Time{}, &ParamError{Param: param, Value: v, Reason: "expected YYYY-MM-DD"}
	}
	return d, nil
}

// parseValues returns the distinct non-blank values of a repeated parameter
// in request order.
func parseValues(query url.Values, param string) []string {
	values := lo.FilterMap(query[param], func(v string, _ int) (string, bool) {
		v = sanitizeInput(v)
		return v, v != ""
	})
	if len(values) == 0 {
		return nil
	}
	return lo.Uniq(values)
}

// sanitizeInput trims whitespace and drops control characters.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
