package money

import (
	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept on persisted and returned amounts.
const Scale = 2

var hundred = decimal.NewFromInt(100)

func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Percent returns base × pct / 100, rounded.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(pct).Div(hundred))
}

func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Parse accepts a decimal string; empty input is zero.
func Parse(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic("money: invalid amount " + s + ": " + err.Error())
	}
	return d
}
