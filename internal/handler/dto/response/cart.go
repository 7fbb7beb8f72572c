package response

import (
	"time"

	"handicraft-store/internal/usecase/queries"
)

type CartLineResponse struct {
	ProductID       string  `json:"product_id"`
	VariantID       *string `json:"variant_id,omitempty"`
	UnitBasePrice   string  `json:"unit_base_price"`
	VariantModifier string  `json:"variant_modifier"`
	UnitPrice       string  `json:"unit_price"`
	Quantity        int     `json:"quantity"`
	LineTotal       string  `json:"line_total"`
}

type CartResponse struct {
	UserID          string             `json:"user_id"`
	Lines           []CartLineResponse `json:"lines"`
	CouponCode      *string            `json:"coupon_code,omitempty"`
	DiscountPercent string             `json:"discount_percent"`
	ItemCount       int                `json:"item_count"`
	Subtotal        string             `json:"subtotal"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func FromCartView(v *queries.CartView) *CartResponse {
	res := &CartResponse{}
	mustCopy(res, v)
	if res.Lines == nil {
		res.Lines = []CartLineResponse{}
	}
	return res
}

type PricingResponse struct {
	Subtotal              string `json:"subtotal"`
	CouponDiscount        string `json:"coupon_discount"`
	CartDiscount          string `json:"cart_discount"`
	DiscountTotal         string `json:"discount_total"`
	SubtotalAfterDiscount string `json:"subtotal_after_discount"`
	Shipping              string `json:"shipping"`
	Tax                   string `json:"tax"`
	Total                 string `json:"total"`
}

type RejectionResponse struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

type QuoteResponse struct {
	Pricing         PricingResponse    `json:"pricing"`
	TaxRate         string             `json:"tax_rate"`
	CouponCode      *string            `json:"coupon_code,omitempty"`
	CouponRejection *RejectionResponse `json:"coupon_rejection,omitempty"`
}

func FromQuoteView(v *queries.QuoteView) *QuoteResponse {
	res := &QuoteResponse{}
	mustCopy(res, v)
	// rates keep their full precision; money is fixed to two places
	res.TaxRate = v.TaxRate.String()
	return res
}
