package coupon

import (
	"time"

	"handicraft-store/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ReasonExpired        = "expired"
	ReasonBelowMinimum   = "below minimum purchase"
	ReasonUsageExhausted = "usage exhausted"
	ReasonNotFound       = "coupon not found"
)

var (
	ErrCouponNotFound       = errs.NotFound(ReasonNotFound)
	ErrCouponExpired        = errs.Conflict(ReasonExpired)
	ErrBelowMinimumPurchase = errs.Conflict(ReasonBelowMinimum)
	ErrUsageExhausted       = errs.Conflict(ReasonUsageExhausted)
	ErrDuplicateCode        = errs.Conflict("coupon code already exists")
	ErrInvalidMinPurchase   = errs.Validation("minimum purchase cannot be negative")
	ErrInvalidUsesRemaining = errs.Validation("uses remaining cannot be negative")
)

type Coupon struct {
	id            uuid.UUID
	code          Code
	discount      Discount
	minPurchase   decimal.Decimal
	expiresAt     *time.Time
	usesRemaining *int
	createdAt     time.Time
}

func NewCoupon(
	id uuid.UUID,
	code string,
	discount Discount,
	minPurchase decimal.Decimal,
	expiresAt *time.Time,
	usesRemaining *int,
	now time.Time,
) (*Coupon, error) {
	couponCode, err := NewCouponCode(code)
	if err != nil {
		return nil, err
	}
	if minPurchase.IsNegative() {
		return nil, ErrInvalidMinPurchase
	}
	if usesRemaining != nil && *usesRemaining < 0 {
		return nil, ErrInvalidUsesRemaining
	}

	return &Coupon{
		id:            id,
		code:          couponCode,
		discount:      discount,
		minPurchase:   minPurchase,
		expiresAt:     expiresAt,
		usesRemaining: usesRemaining,
		createdAt:     now,
	}, nil
}

func ReconstructCoupon(
	id uuid.UUID,
	code Code,
	discount Discount,
	minPurchase decimal.Decimal,
	expiresAt *time.Time,
	usesRemaining *int,
	createdAt time.Time,
) *Coupon {
	return &Coupon{
		id:            id,
		code:          code,
		discount:      discount,
		minPurchase:   minPurchase,
		expiresAt:     expiresAt,
		usesRemaining: usesRemaining,
		createdAt:     createdAt,
	}
}

// CheckApplicable reports the first failing condition: expiry, then minimum
// purchase, then remaining uses.
func (c *Coupon) CheckApplicable(subtotal decimal.Decimal, now time.Time) error {
	if c.expiresAt != nil && now.After(*c.expiresAt) {
		return ErrCouponExpired
	}
	if subtotal.LessThan(c.minPurchase) {
		return ErrBelowMinimumPurchase
	}
	if c.IsLimited() && *c.usesRemaining <= 0 {
		return ErrUsageExhausted
	}
	return nil
}

// Apply returns the discount for subtotal, or zero and the rejection when the
// coupon does not apply.
func (c *Coupon) Apply(subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if err := c.CheckApplicable(subtotal, now); err != nil {
		return decimal.Zero, err
	}
	return c.discount.AmountFor(subtotal), nil
}

// ConsumeUse decrements the remaining uses of a limited coupon.
func (c *Coupon) ConsumeUse() error {
	if !c.IsLimited() {
		return nil
	}
	if *c.usesRemaining <= 0 {
		return ErrUsageExhausted
	}
	n := *c.usesRemaining - 1
	c.usesRemaining = &n
	return nil
}

func (c *Coupon) IsLimited() bool { return c.usesRemaining != nil }

func (c *Coupon) ID() uuid.UUID                { return c.id }
func (c *Coupon) Code() Code                   { return c.code }
func (c *Coupon) Discount() Discount           { return c.discount }
func (c *Coupon) MinPurchase() decimal.Decimal { return c.minPurchase }
func (c *Coupon) ExpiresAt() *time.Time        { return c.expiresAt }
func (c *Coupon) UsesRemaining() *int          { return c.usesRemaining }
func (c *Coupon) CreatedAt() time.Time         { return c.createdAt }
