package queries

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartLineView struct {
	ProductID       uuid.UUID       `json:"product_id"`
	VariantID       *string         `json:"variant_id,omitempty"`
	UnitBasePrice   decimal.Decimal `json:"unit_base_price"`
	VariantModifier decimal.Decimal `json:"variant_modifier"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

type CartView struct {
	UserID          uuid.UUID       `json:"user_id"`
	Lines           []CartLineView  `json:"lines"`
	CouponCode      *string         `json:"coupon_code,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	ItemCount       int             `json:"item_count"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type PricingView struct {
	Subtotal              decimal.Decimal `json:"subtotal"`
	CouponDiscount        decimal.Decimal `json:"coupon_discount"`
	CartDiscount          decimal.Decimal `json:"cart_discount"`
	DiscountTotal         decimal.Decimal `json:"discount_total"`
	SubtotalAfterDiscount decimal.Decimal `json:"subtotal_after_discount"`
	Shipping              decimal.Decimal `json:"shipping"`
	Tax                   decimal.Decimal `json:"tax"`
	Total                 decimal.Decimal `json:"total"`
}

// RejectionView explains why an attached coupon contributed no discount.
type RejectionView struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

type QuoteView struct {
	Pricing         PricingView     `json:"pricing"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	CouponCode      *string         `json:"coupon_code,omitempty"`
	CouponRejection *RejectionView  `json:"coupon_rejection,omitempty"`
}

type OrderLineView struct {
	ProductID       uuid.UUID       `json:"product_id"`
	VariantID       *string         `json:"variant_id,omitempty"`
	UnitBasePrice   decimal.Decimal `json:"unit_base_price"`
	VariantModifier decimal.Decimal `json:"variant_modifier"`
	Quantity        int             `json:"quantity"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

type AddressView struct {
	Recipient  string `json:"recipient"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

type OrderView struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	Status          string          `json:"status"`
	Lines           []OrderLineView `json:"lines"`
	Pricing         PricingView     `json:"pricing"`
	CouponCode      *string         `json:"coupon_code,omitempty"`
	ShippingAddress AddressView     `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	PointsAwarded   bool            `json:"points_awarded"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type OrderStatsView struct {
	TotalOrders       int             `json:"total_orders"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	OrdersByStatus    map[string]int  `json:"orders_by_status"`
}

type AccountView struct {
	UserID      uuid.UUID       `json:"user_id"`
	TotalPoints int64           `json:"total_points"`
	Tier        string          `json:"tier"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type PointEntryView struct {
	Delta       int64      `json:"delta"`
	Description string     `json:"description"`
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
	RewardID    *uuid.UUID `json:"reward_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type RewardView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PointsCost  int64     `json:"points_cost"`
	Effect      string    `json:"effect"`
	CreatedAt   time.Time `json:"created_at"`
}

type CouponView struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Kind          string          `json:"kind"`
	Value         decimal.Decimal `json:"value"`
	MinPurchase   decimal.Decimal `json:"min_purchase"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	UsesRemaining *int            `json:"uses_remaining,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
