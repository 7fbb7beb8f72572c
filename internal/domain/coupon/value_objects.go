package coupon

import (
	"regexp"
	"strings"

	"handicraft-store/internal/pkg/errs"
	"handicraft-store/internal/pkg/money"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCouponCode      = errs.Validation("invalid coupon code format")
	ErrInvalidKind            = errs.Validation("coupon kind must be percent or fixed")
	ErrInvalidDiscountAmount  = errs.Validation("discount amount must be positive")
	ErrInvalidDiscountPercent = errs.Validation("percentage discount must be between 0 and 100")
)

var couponCodeRegex = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

type Code string

func NewCouponCode(code string) (Code, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if !couponCodeRegex.MatchString(code) {
		return Code(""), ErrInvalidCouponCode
	}
	return Code(code), nil
}

func (c Code) String() string {
	return string(c)
}

type Kind string

const (
	KindPercent Kind = "percent"
	KindFixed   Kind = "fixed"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindPercent, KindFixed:
		return k, nil
	default:
		return "", ErrInvalidKind
	}
}

// Discount is tagged by kind: value is a percentage for KindPercent and a
// currency amount for KindFixed.
type Discount struct {
	kind  Kind
	value decimal.Decimal
}

func NewFixedDiscount(amount decimal.Decimal) (Discount, error) {
	if !amount.IsPositive() {
		return Discount{}, ErrInvalidDiscountAmount
	}
	return Discount{kind: KindFixed, value: money.Round(amount)}, nil
}

func NewPercentageDiscount(pct decimal.Decimal) (Discount, error) {
	if !pct.IsPositive() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return Discount{}, ErrInvalidDiscountPercent
	}
	return Discount{kind: KindPercent, value: pct}, nil
}

func NewDiscount(kind Kind, value decimal.Decimal) (Discount, error) {
	switch kind {
	case KindPercent:
		return NewPercentageDiscount(value)
	case KindFixed:
		return NewFixedDiscount(value)
	default:
		return Discount{}, ErrInvalidKind
	}
}

func (d Discount) Kind() Kind             { return d.kind }
func (d Discount) Value() decimal.Decimal { return d.value }
func (d Discount) IsPercentage() bool     { return d.kind == KindPercent }
func (d Discount) IsFixed() bool          { return d.kind == KindFixed }

// AmountFor never exceeds base.
func (d Discount) AmountFor(base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	var amount decimal.Decimal
	if d.IsPercentage() {
		amount = money.Percent(base, d.value)
	} else {
		amount = d.value
	}
	return money.Min(amount, base)
}
