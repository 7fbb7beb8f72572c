package queries

import (
	"handicraft-store/internal/domain/cart"
	"handicraft-store/internal/domain/coupon"
	"handicraft-store/internal/domain/loyalty"
	"handicraft-store/internal/domain/order"
	"handicraft-store/internal/domain/pricing"
	"handicraft-store/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func lineVariant(l cart.LineItem) *string {
	if !l.HasVariant() {
		return nil
	}
	v := l.VariantID()
	return &v
}

func variantPtr(v string) *string {
	if v == "" || v == cart.DefaultVariant {
		return nil
	}
	return &v
}

func ToCartView(c *cart.Cart) *CartView {
	lines := c.Lines()
	view := &CartView{
		UserID:          c.OwnerID(),
		Lines:           make([]CartLineView, 0, len(lines)),
		CouponCode:      c.CouponCode(),
		DiscountPercent: c.DiscountPercent(),
		Subtotal:        c.Subtotal(),
		UpdatedAt:       c.UpdatedAt(),
	}
	for _, l := range lines {
		view.ItemCount += l.Quantity()
		view.Lines = append(view.Lines, CartLineView{
			ProductID:       l.ProductID(),
			VariantID:       lineVariant(l),
			UnitBasePrice:   l.UnitBasePrice(),
			VariantModifier: l.VariantModifier(),
			UnitPrice:       l.UnitPrice(),
			Quantity:        l.Quantity(),
			LineTotal:       l.LineTotal(),
		})
	}
	return view
}

// EmptyCartView is what a user without a stored cart sees.
func EmptyCartView(userID uuid.UUID) *CartView {
	return &CartView{
		UserID:          userID,
		Lines:           []CartLineView{},
		DiscountPercent: decimal.Zero,
		Subtotal:        decimal.Zero,
	}
}

func ToPricingView(r pricing.Result) PricingView {
	return PricingView{
		Subtotal:              r.Subtotal,
		CouponDiscount:        r.CouponDiscount,
		CartDiscount:          r.CartDiscount,
		DiscountTotal:         r.Discount,
		SubtotalAfterDiscount: r.SubtotalAfterDiscount,
		Shipping:              r.Shipping,
		Tax:                   r.Tax,
		Total:                 r.Total,
	}
}

func ToRejectionView(err error) *RejectionView {
	if err == nil {
		return nil
	}
	kind, ok := errs.KindOf(err)
	if !ok {
		return &RejectionView{Kind: string(errs.KindConflict), Reason: err.Error()}
	}
	return &RejectionView{Kind: string(kind), Reason: errs.ReasonOf(err)}
}

func ToQuoteView(q pricing.Quote, taxRate decimal.Decimal, couponCode *string) *QuoteView {
	return &QuoteView{
		Pricing:         ToPricingView(q.Result),
		TaxRate:         taxRate,
		CouponCode:      couponCode,
		CouponRejection: ToRejectionView(q.CouponRejection),
	}
}

func ToOrderView(o *order.Order) *OrderView {
	lines := o.Lines()
	addr := o.ShippingAddress()
	view := &OrderView{
		ID:         o.ID(),
		UserID:     o.UserID(),
		Status:     o.Status().String(),
		Lines:      make([]OrderLineView, 0, len(lines)),
		Pricing:    ToPricingView(o.Pricing()),
		CouponCode: o.CouponCode(),
		ShippingAddress: AddressView{
			Recipient:  addr.Recipient,
			Line1:      addr.Line1,
			Line2:      addr.Line2,
			City:       addr.City,
			Region:     addr.Region,
			PostalCode: addr.PostalCode,
			Country:    addr.Country,
		},
		PaymentMethod: o.PaymentMethod().String(),
		PointsAwarded: o.PointsAwarded(),
		CreatedAt:     o.CreatedAt(),
		UpdatedAt:     o.UpdatedAt(),
	}
	for _, l := range lines {
		view.Lines = append(view.Lines, OrderLineView{
			ProductID:       l.ProductID,
			VariantID:       variantPtr(l.VariantID),
			UnitBasePrice:   l.UnitBasePrice,
			VariantModifier: l.VariantModifier,
			Quantity:        l.Quantity,
			LineTotal:       l.LineTotal(),
		})
	}
	return view
}

func ToOrderStatsView(st order.Stats) *OrderStatsView {
	byStatus := make(map[string]int, len(st.OrdersByStatus))
	for s, n := range st.OrdersByStatus {
		byStatus[s.String()] = n
	}
	return &OrderStatsView{
		TotalOrders:       st.TotalOrders,
		TotalRevenue:      st.TotalRevenue,
		AverageOrderValue: st.AverageOrderValue,
		OrdersByStatus:    byStatus,
	}
}

func ToAccountView(a *loyalty.Account) *AccountView {
	tier := a.Tier()
	return &AccountView{
		UserID:      a.UserID(),
		TotalPoints: a.TotalPoints(),
		Tier:        tier.String(),
		Multiplier:  tier.Multiplier(),
		UpdatedAt:   a.UpdatedAt(),
	}
}

func ToPointEntryViews(entries []loyalty.PointEntry) []PointEntryView {
	out := make([]PointEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, PointEntryView{
			Delta:       e.Delta,
			Description: e.Description,
			OrderID:     e.OrderID,
			RewardID:    e.RewardID,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}

func ToRewardView(r *loyalty.Reward) *RewardView {
	return &RewardView{
		ID:          r.ID(),
		Name:        r.Name(),
		Description: r.Description(),
		PointsCost:  r.PointsCost(),
		Effect:      r.Effect(),
		CreatedAt:   r.CreatedAt(),
	}
}

func ToCouponView(c *coupon.Coupon) *CouponView {
	return &CouponView{
		ID:            c.ID(),
		Code:          c.Code().String(),
		Kind:          string(c.Discount().Kind()),
		Value:         c.Discount().Value(),
		MinPurchase:   c.MinPurchase(),
		ExpiresAt:     c.ExpiresAt(),
		UsesRemaining: c.UsesRemaining(),
		CreatedAt:     c.CreatedAt(),
	}
}
