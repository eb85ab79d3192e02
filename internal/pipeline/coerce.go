package pipeline

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
)

// CoerceNumber converts v to a decimal. Anything that cannot be read as a
// number, including null, yields zero with defaulted set. It never fails.
func CoerceNumber(v core.Value) (value decimal.Decimal, defaulted bool) {
	switch v.Kind() {
	case core.KindNumber:
		d, _ := v.Decimal()
		return d, false
	case core.KindText:
		if d, ok := ParseNumber(v.String()); ok {
			return d, false
		}
	}
	return decimal.Zero, true
}

// ParseNumber reads a decimal from loosely formatted text such as
// "1,234.50", "$12", "€ 3.10" or "50%". The percent sign is dropped, not
// applied.
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimLeft(s, "$€£¥ ")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// dateLayouts are tried in order. Numeric dates with the year last are read
// month-first whatever the separator.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-1-2",
	"2006-1-2 15:04:05",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01-02-2006",
	"1-2-2006",
	"01.02.2006",
	"1.2.2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 January 2006",
	"20060102",
	"01-02-06",
}

// ParseDate reads a date using the permissive layout list. Times are kept;
// zones other than those written in the value are treated as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CoerceDate converts v to a date. Unparseable values report ok=false and
// are meant to become null.
func CoerceDate(v core.Value) (t time.Time, ok bool) {
	switch v.Kind() {
	case core.KindDate:
		return v.Time()
	case core.KindText:
		return ParseDate(v.String())
	}
	return time.Time{}, false
}

// day truncates t to its calendar day in UTC.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
