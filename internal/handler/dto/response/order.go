package response

import (
	"time"

	"handicraft-store/internal/usecase/commands"
	"handicraft-store/internal/usecase/queries"
)

type OrderLineResponse struct {
	ProductID       string  `json:"product_id"`
	VariantID       *string `json:"variant_id,omitempty"`
	UnitBasePrice   string  `json:"unit_base_price"`
	VariantModifier string  `json:"variant_modifier"`
	Quantity        int     `json:"quantity"`
	LineTotal       string  `json:"line_total"`
}

type AddressResponse struct {
	Recipient  string `json:"recipient"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	Status          string              `json:"status"`
	Lines           []OrderLineResponse `json:"lines"`
	Pricing         PricingResponse     `json:"pricing"`
	CouponCode      *string             `json:"coupon_code,omitempty"`
	ShippingAddress AddressResponse     `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method"`
	PointsAwarded   bool                `json:"points_awarded"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func FromOrderView(v *queries.OrderView) *OrderResponse {
	res := &OrderResponse{}
	mustCopy(res, v)
	if res.Lines == nil {
		res.Lines = []OrderLineResponse{}
	}
	return res
}

func FromOrderList(items []*queries.OrderView) []*OrderResponse {
	res := make([]*OrderResponse, len(items))
	for i, it := range items {
		res[i] = FromOrderView(it)
	}
	return res
}

type CheckoutResponse struct {
	Order           *OrderResponse     `json:"order"`
	CouponRejection *RejectionResponse `json:"coupon_rejection,omitempty"`
	Replayed        bool               `json:"replayed,omitempty"`
}

func FromCheckoutResult(r *commands.CheckoutResult) *CheckoutResponse {
	res := &CheckoutResponse{Order: FromOrderView(r.Order), Replayed: r.Replayed}
	if r.CouponRejection != nil {
		res.CouponRejection = &RejectionResponse{
			Kind:   r.CouponRejection.Kind,
			Reason: r.CouponRejection.Reason,
		}
	}
	return res
}

type OrderStatsResponse struct {
	TotalOrders       int            `json:"total_orders"`
	TotalRevenue      string         `json:"total_revenue"`
	AverageOrderValue string         `json:"average_order_value"`
	OrdersByStatus    map[string]int `json:"orders_by_status"`
}

func FromOrderStats(v *queries.OrderStatsView) *OrderStatsResponse {
	res := &OrderStatsResponse{}
	mustCopy(res, v)
	return res
}
