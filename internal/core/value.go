package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies what a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// DateLayout is the textual form of date values.
const DateLayout = "2006-01-02"

// Value is a single table cell. The zero value is null.
type Value struct {
	kind Kind
	text string
	num  decimal.Decimal
	date time.Time
}

// Null returns the missing-value marker.
func Null() Value {
	return Value{}
}

// Text wraps a raw string cell. Blank strings are treated as missing.
func Text(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{kind: KindText, text: s}
}

// Number wraps a numeric cell.
func Number(d decimal.Decimal) Value {
	return Value{kind: KindNumber, num: d}
}

// Date wraps a date cell. A zero time is treated as missing.
func Date(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindDate, date: t}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// String returns the textual form of the value; null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num.String()
	case KindDate:
		return v.date.Format(DateLayout)
	default:
		return ""
	}
}

// Decimal returns the number held by a numeric value.
func (v Value) Decimal() (decimal.Decimal, bool) {
	if v.kind != KindNumber {
		return decimal.Zero, false
	}
	return v.num, true
}

// Time returns the date held by a date value.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

// Equal reports whether both values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num.Equal(o.num)
	case KindDate:
		return v.date.Equal(o.date)
	default:
		return true
	}
}

// key is a kind-qualified string used for row identity.
func (v Value) key() string {
	return v.kind.String() + ":" + v.String()
}
