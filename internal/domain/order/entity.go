package order

import (
	"time"

	"handicraft-store/internal/domain/cart"
	"handicraft-store/internal/domain/pricing"
	"handicraft-store/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound        = errs.NotFound("order not found")
	ErrInvalidStatus        = errs.Validation("invalid order status")
	ErrInvalidPaymentMethod = errs.Validation("invalid payment method")
	ErrIncompleteAddress    = errs.Validation("shipping address requires recipient, line1, city and country")
	ErrIllegalTransition    = errs.State("illegal status transition")
	ErrNotCancellable       = errs.Conflict("only pending orders can be cancelled")
)

type Order struct {
	id              uuid.UUID
	userID          uuid.UUID
	lines           []Line
	pricing         pricing.Result
	couponCode      *string
	status          Status
	shippingAddress Address
	paymentMethod   PaymentMethod
	pointsAwarded   bool
	createdAt       time.Time
	updatedAt       time.Time
}

// Create snapshots the cart into a pending order and clears the cart. On
// error the cart is left untouched.
func Create(
	id uuid.UUID,
	c *cart.Cart,
	priced pricing.Result,
	couponCode *string,
	address Address,
	payment PaymentMethod,
	now time.Time,
) (*Order, error) {
	if c.IsEmpty() {
		return nil, cart.ErrEmptyCart
	}
	addr, err := NewAddress(address)
	if err != nil {
		return nil, err
	}
	if _, err := ParsePaymentMethod(string(payment)); err != nil {
		return nil, err
	}

	o := &Order{
		id:              id,
		userID:          c.OwnerID(),
		lines:           snapshotLines(c.Lines()),
		pricing:         priced,
		couponCode:      couponCode,
		status:          StatusPending,
		shippingAddress: addr,
		paymentMethod:   payment,
		createdAt:       now,
		updatedAt:       now,
	}
	c.Clear(now)
	return o, nil
}

func ReconstructOrder(
	id, userID uuid.UUID,
	lines []Line,
	priced pricing.Result,
	couponCode *string,
	status Status,
	address Address,
	payment PaymentMethod,
	pointsAwarded bool,
	createdAt, updatedAt time.Time,
) *Order {
	return &Order{
		id:              id,
		userID:          userID,
		lines:           lines,
		pricing:         priced,
		couponCode:      couponCode,
		status:          status,
		shippingAddress: address,
		paymentMethod:   payment,
		pointsAwarded:   pointsAwarded,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// Advance moves one step along pending → processing → shipped → delivered.
// Cancellation goes through Cancel.
func (o *Order) Advance(next Status, now time.Time) error {
	if !next.IsValid() {
		return ErrInvalidStatus
	}
	if o.status.IsTerminal() {
		return errs.Wrapf(ErrIllegalTransition, "order is %s", o.status)
	}
	if !o.status.CanAdvanceTo(next) {
		return errs.Wrapf(ErrIllegalTransition, "%s -> %s", o.status, next)
	}
	o.status = next
	o.updatedAt = now
	return nil
}

func (o *Order) Cancel(now time.Time) error {
	if o.status != StatusPending {
		return errs.Wrapf(ErrNotCancellable, "order is %s", o.status)
	}
	o.status = StatusCancelled
	o.updatedAt = now
	return nil
}

// MarkPointsAwarded reports false if points were already awarded.
func (o *Order) MarkPointsAwarded() bool {
	if o.pointsAwarded {
		return false
	}
	o.pointsAwarded = true
	return true
}

func (o *Order) IsOwnedBy(userID uuid.UUID) bool { return o.userID == userID }

func (o *Order) ID() uuid.UUID                { return o.id }
func (o *Order) UserID() uuid.UUID            { return o.userID }
func (o *Order) Pricing() pricing.Result      { return o.pricing }
func (o *Order) CouponCode() *string          { return o.couponCode }
func (o *Order) Status() Status               { return o.status }
func (o *Order) ShippingAddress() Address     { return o.shippingAddress }
func (o *Order) PaymentMethod() PaymentMethod { return o.paymentMethod }
func (o *Order) PointsAwarded() bool          { return o.pointsAwarded }
func (o *Order) CreatedAt() time.Time         { return o.createdAt }
func (o *Order) UpdatedAt() time.Time         { return o.updatedAt }

func (o *Order) Lines() []Line {
	out := make([]Line, len(o.lines))
	copy(out, o.lines)
	return out
}
