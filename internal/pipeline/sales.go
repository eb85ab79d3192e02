package pipeline

import (
	"github.com/shopspring/decimal"

	"salesdash/internal/core"
)

// Input columns read by the sales deriver.
const (
	ColumnSales    = "sales"
	ColumnQuantity = "quantity"
	ColumnPrice    = "price"
	ColumnDiscount = "discount"
)

// FallbackTotalColumns are tried in order when neither a sales column nor
// quantity and price are present.
var FallbackTotalColumns = []string{"order_total", "amount", "total"}

// SalesStrategy names the rule that produced the sales field.
type SalesStrategy string

const (
	StrategySalesColumn   SalesStrategy = "sales_column"
	StrategyQuantityPrice SalesStrategy = "quantity_price"
	StrategyFallbackTotal SalesStrategy = "fallback_total"
	StrategyZero          SalesStrategy = "zero"
)

// SalesDerivation describes how the sales field was produced.
type SalesDerivation struct {
	Strategy SalesStrategy
	// Source is the column read for the sales_column and fallback_total
	// strategies.
	Source string
	// Defaulted counts input cells that were not numeric and read as 0.
	Defaulted int
	// DiscountScaled is set when the discount column was read as percentages.
	DiscountScaled bool
}

var hundred = decimal.NewFromInt(100)

// DiscountScale is the table-level percent detection policy: when the
// largest discount exceeds threshold every discount in the table is divided
// by 100, so the returned divisor is either 1 or 100.
func DiscountScale(discounts []decimal.Decimal, threshold decimal.Decimal) decimal.Decimal {
	if len(discounts) == 0 {
		return decimal.NewFromInt(1)
	}
	if decimal.Max(discounts[0], discounts[1:]...).GreaterThan(threshold) {
		return hundred
	}
	return decimal.NewFromInt(1)
}

// DeriveSales writes a non-null numeric field computed from, in priority
// order: an existing sales column; quantity × price × (1 − discount); the
// first fallback total column present; or zero.
func DeriveSales(t *core.Table, field string, discountThreshold decimal.Decimal) (*core.Table, SalesDerivation) {
	n := t.Len()
	values := make([]core.Value, n)
	var d SalesDerivation

	switch {
	case t.Has(ColumnSales):
		d.Strategy, d.Source = StrategySalesColumn, ColumnSales
		d.Defaulted = coerceColumn(t, ColumnSales, values)

	case t.Has(ColumnQuantity) && t.Has(ColumnPrice):
		d.Strategy = StrategyQuantityPrice
		discounts := make([]decimal.Decimal, n)
		if t.Has(ColumnDiscount) {
			for i := range discounts {
				v, defaulted := CoerceNumber(t.Value(i, ColumnDiscount))
				if defaulted {
					d.Defaulted++
				}
				discounts[i] = v
			}
		}
		divisor := decimal.NewFromInt(1)
		if t.Has(ColumnDiscount) {
			divisor = DiscountScale(discounts, discountThreshold)
			d.DiscountScaled = divisor.Equal(hundred)
		}
		one := decimal.NewFromInt(1)
		for i := range values {
			q, qd := CoerceNumber(t.Value(i, ColumnQuantity))
			p, pd := CoerceNumber(t.Value(i, ColumnPrice))
			if qd {
				d.Defaulted++
			}
			if pd {
				d.Defaulted++
			}
			disc := discounts[i].Div(divisor)
			values[i] = core.Number(q.Mul(p).Mul(one.Sub(disc)))
		}

	default:
		for _, c := range FallbackTotalColumns {
			if t.Has(c) {
				d.Strategy, d.Source = StrategyFallbackTotal, c
				break
			}
		}
		if d.Strategy == StrategyFallbackTotal {
			d.Defaulted = coerceColumn(t, d.Source, values)
			break
		}
		d.Strategy = StrategyZero
		for i := range values {
			values[i] = core.Number(decimal.Zero)
		}
	}

	return t.WithColumn(field, values), d
}

// coerceColumn fills out with the numeric reading of column and returns how
// many cells defaulted to zero.
func coerceColumn(t *core.Table, column string, out []core.Value) int {
	defaulted := 0
	for i := range out {
		v, def := CoerceNumber(t.Value(i, column))
		if def {
			defaulted++
		}
		out[i] = core.Number(v)
	}
	return defaulted
}
