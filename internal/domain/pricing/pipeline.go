// Package pricing turns cart lines plus an optional coupon and cart discount
// into a priced total. Every function here is pure.
package pricing

import (
	"time"

	"handicraft-store/internal/domain/cart"
	"handicraft-store/internal/domain/coupon"
	"handicraft-store/internal/pkg/errs"
	"handicraft-store/internal/pkg/money"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeTaxRate     = errs.Validation("tax rate cannot be negative")
	ErrNegativeShippingFee = errs.Validation("shipping fee cannot be negative")
)

type Config struct {
	TaxRate     decimal.Decimal
	ShippingFee decimal.Decimal
}

type Pipeline struct {
	taxRate     decimal.Decimal
	shippingFee decimal.Decimal
}

func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.TaxRate.IsNegative() {
		return nil, ErrNegativeTaxRate
	}
	if cfg.ShippingFee.IsNegative() {
		return nil, ErrNegativeShippingFee
	}
	return &Pipeline{taxRate: cfg.TaxRate, shippingFee: money.Round(cfg.ShippingFee)}, nil
}

func (p *Pipeline) TaxRate() decimal.Decimal { return p.taxRate }

type Input struct {
	Lines           []cart.LineItem
	Coupon          *coupon.Coupon
	DiscountPercent decimal.Decimal
	Now             time.Time
}

type Result struct {
	Subtotal              decimal.Decimal
	CouponDiscount        decimal.Decimal
	CartDiscount          decimal.Decimal
	Discount              decimal.Decimal
	SubtotalAfterDiscount decimal.Decimal
	Shipping              decimal.Decimal
	Tax                   decimal.Decimal
	Total                 decimal.Decimal
}

// Quote is a priced result plus the reason the coupon was dropped, if it was.
// A rejected coupon never fails pricing.
type Quote struct {
	Result
	CouponRejection error
}

func (q Quote) CouponApplied() bool {
	return q.CouponRejection == nil && q.CouponDiscount.IsPositive()
}

// Price computes subtotal, discount, shipping, tax and total. Repeated calls
// with the same input yield the same result.
func (p *Pipeline) Price(in Input) Quote {
	subtotal := money.Round(cart.SubtotalOf(in.Lines))
	d := ResolveDiscount(subtotal, in.Coupon, in.DiscountPercent, in.Now)

	after := subtotal.Sub(d.Total)
	tax := money.Round(after.Mul(p.taxRate))

	return Quote{
		Result: Result{
			Subtotal:              subtotal,
			CouponDiscount:        d.Coupon,
			CartDiscount:          d.Cart,
			Discount:              d.Total,
			SubtotalAfterDiscount: after,
			Shipping:              p.shippingFee,
			Tax:                   tax,
			Total:                 after.Add(p.shippingFee).Add(tax),
		},
		CouponRejection: d.CouponRejection,
	}
}
