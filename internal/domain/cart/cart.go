package cart

import (
	"time"

	"handicraft-store/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingProduct         = errs.Validation("product id is required")
	ErrInvalidQuantity        = errs.Validation("quantity must be at least 1")
	ErrQuantityTooLarge       = errs.Validation("quantity exceeds the per-line maximum")
	ErrNegativePrice          = errs.Validation("unit price cannot be negative")
	ErrInvalidDiscountPercent = errs.Validation("cart discount percent must be between 0 and 100")
	ErrInvalidCouponCode      = errs.Validation("coupon code is required")
	ErrLineNotFound           = errs.NotFound("cart line not found")
	ErrEmptyCart              = errs.Validation("cart is empty")
	maxDiscountPercent        = decimal.NewFromInt(100)
)

// Cart holds the line items of one shopping session. Lines keep insertion order.
type Cart struct {
	ownerID         uuid.UUID
	lines           map[LineKey]LineItem
	order           []LineKey
	couponCode      *string
	discountPercent *decimal.Decimal
	updatedAt       time.Time
}

func NewCart(ownerID uuid.UUID, now time.Time) *Cart {
	return &Cart{
		ownerID:   ownerID,
		lines:     make(map[LineKey]LineItem),
		updatedAt: now,
	}
}

func ReconstructCart(
	ownerID uuid.UUID,
	lines []LineItem,
	couponCode *string,
	discountPercent *decimal.Decimal,
	updatedAt time.Time,
) *Cart {
	c := NewCart(ownerID, updatedAt)
	for _, l := range lines {
		c.put(l)
	}
	c.couponCode = couponCode
	c.discountPercent = discountPercent
	return c
}

// AddLine merges into an existing line with the same key by incrementing its
// quantity; the existing line keeps its captured prices. A merge that would
// pass MaxQuantity is rejected and leaves the cart unchanged.
func (c *Cart) AddLine(item LineItem, now time.Time) error {
	if err := checkQuantity(item.quantity); err != nil {
		return err
	}
	key := item.Key()
	if existing, ok := c.lines[key]; ok {
		if item.quantity > MaxQuantity-existing.quantity {
			return ErrQuantityTooLarge
		}
		existing.quantity += item.quantity
		c.lines[key] = existing
	} else {
		c.put(item)
	}
	c.updatedAt = now
	return nil
}

// SetQuantity clamps qty to [1, MaxQuantity]; it never removes a line.
func (c *Cart) SetQuantity(productID uuid.UUID, variantID string, qty int, now time.Time) error {
	key := NewLineKey(productID, variantID)
	line, ok := c.lines[key]
	if !ok {
		return ErrLineNotFound
	}
	line.quantity = max(1, min(qty, MaxQuantity))
	c.lines[key] = line
	c.updatedAt = now
	return nil
}

// RemoveLine is idempotent.
func (c *Cart) RemoveLine(productID uuid.UUID, variantID string, now time.Time) {
	key := NewLineKey(productID, variantID)
	if _, ok := c.lines[key]; !ok {
		return
	}
	delete(c.lines, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.updatedAt = now
}

// Clear empties the cart and resets the applied coupon and cart discount.
func (c *Cart) Clear(now time.Time) {
	c.lines = make(map[LineKey]LineItem)
	c.order = nil
	c.couponCode = nil
	c.discountPercent = nil
	c.updatedAt = now
}

func (c *Cart) ApplyCoupon(code string, now time.Time) error {
	if code == "" {
		return ErrInvalidCouponCode
	}
	c.couponCode = &code
	c.updatedAt = now
	return nil
}

func (c *Cart) RemoveCoupon(now time.Time) {
	c.couponCode = nil
	c.updatedAt = now
}

func (c *Cart) SetDiscountPercent(pct decimal.Decimal, now time.Time) error {
	if pct.IsNegative() || pct.GreaterThan(maxDiscountPercent) {
		return ErrInvalidDiscountPercent
	}
	if pct.IsZero() {
		c.discountPercent = nil
	} else {
		c.discountPercent = &pct
	}
	c.updatedAt = now
	return nil
}

// Subtotal is recomputed on every call.
func (c *Cart) Subtotal() decimal.Decimal {
	return SubtotalOf(c.Lines())
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []LineItem {
	out := make([]LineItem, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.lines[k])
	}
	return out
}

func (c *Cart) Line(productID uuid.UUID, variantID string) (LineItem, bool) {
	l, ok := c.lines[NewLineKey(productID, variantID)]
	return l, ok
}

func (c *Cart) IsEmpty() bool { return len(c.order) == 0 }

func (c *Cart) OwnerID() uuid.UUID   { return c.ownerID }
func (c *Cart) CouponCode() *string  { return c.couponCode }
func (c *Cart) UpdatedAt() time.Time { return c.updatedAt }

// DiscountPercent is zero when no cart discount is attached.
func (c *Cart) DiscountPercent() decimal.Decimal {
	if c.discountPercent == nil {
		return decimal.Zero
	}
	return *c.discountPercent
}

func (c *Cart) put(l LineItem) {
	key := l.Key()
	if _, ok := c.lines[key]; !ok {
		c.order = append(c.order, key)
	}
	c.lines[key] = l
}
