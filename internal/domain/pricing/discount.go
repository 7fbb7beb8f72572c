package pricing

import (
	"time"

	"handicraft-store/internal/domain/coupon"
	"handicraft-store/internal/pkg/money"

	"github.com/shopspring/decimal"
)

type Discount struct {
	Coupon          decimal.Decimal
	Cart            decimal.Decimal
	Total           decimal.Decimal
	CouponRejection error
}

// ResolveDiscount adds the coupon discount and the cart percent discount, both
// computed on the undiscounted subtotal, then clamps the sum to the subtotal.
func ResolveDiscount(subtotal decimal.Decimal, c *coupon.Coupon, cartPercent decimal.Decimal, now time.Time) Discount {
	var d Discount
	if c != nil {
		amount, err := c.Apply(subtotal, now)
		if err != nil {
			d.CouponRejection = err
		} else {
			d.Coupon = amount
		}
	}
	if cartPercent.IsPositive() {
		d.Cart = money.Percent(subtotal, cartPercent)
	}
	d.Total = money.Min(d.Coupon.Add(d.Cart), money.NonNegative(subtotal))
	return d
}
