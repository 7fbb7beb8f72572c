package loyalty

import (
	"time"

	"handicraft-store/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPointsUnit is the currency amount that earns one base point.
var DefaultPointsUnit = decimal.NewFromInt(1000)

var (
	ErrInsufficientPoints = errs.Conflict("insufficient points")
	ErrNegativeOrderTotal = errs.Validation("order total cannot be negative")
	ErrInvalidPointsUnit  = errs.Validation("points unit must be positive")
	ErrAccountNotFound    = errs.NotFound("loyalty account not found")
)

type PointEntry struct {
	Delta       int64
	Description string
	OrderID     *uuid.UUID
	RewardID    *uuid.UUID
	CreatedAt   time.Time
}

// Account tracks cumulative points. Tier is derived from points on every read.
type Account struct {
	userID      uuid.UUID
	totalPoints int64
	history     []PointEntry
	persisted   int
	createdAt   time.Time
	updatedAt   time.Time
}

func NewAccount(userID uuid.UUID, now time.Time) *Account {
	return &Account{userID: userID, createdAt: now, updatedAt: now}
}

// ReconstructAccount treats history as already persisted.
func ReconstructAccount(userID uuid.UUID, totalPoints int64, history []PointEntry, createdAt, updatedAt time.Time) *Account {
	h := make([]PointEntry, len(history))
	copy(h, history)
	return &Account{
		userID:      userID,
		totalPoints: totalPoints,
		history:     h,
		persisted:   len(h),
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// PointsFor returns floor(floor(total/unit) × multiplier) for the given tier.
func PointsFor(orderTotal, unit decimal.Decimal, tier Tier) (int64, error) {
	if orderTotal.IsNegative() {
		return 0, ErrNegativeOrderTotal
	}
	if !unit.IsPositive() {
		return 0, ErrInvalidPointsUnit
	}
	base := orderTotal.Div(unit).Floor()
	return base.Mul(tier.Multiplier()).Floor().IntPart(), nil
}

// Award credits points for a completed order using the tier held before the
// award. No entry is appended when the order earns zero points.
func (a *Account) Award(orderID uuid.UUID, orderTotal, unit decimal.Decimal, now time.Time) (PointEntry, bool, error) {
	points, err := PointsFor(orderTotal, unit, a.Tier())
	if err != nil {
		return PointEntry{}, false, err
	}
	if points == 0 {
		return PointEntry{}, false, nil
	}
	id := orderID
	entry := PointEntry{
		Delta:       points,
		Description: "points earned for order " + orderID.String(),
		OrderID:     &id,
		CreatedAt:   now,
	}
	a.totalPoints += points
	a.history = append(a.history, entry)
	a.updatedAt = now
	return entry, true, nil
}

// Redeem checks and decrements in one step; on failure the account is untouched.
func (a *Account) Redeem(reward *Reward, now time.Time) (PointEntry, error) {
	if a.totalPoints < reward.PointsCost() {
		return PointEntry{}, ErrInsufficientPoints
	}
	id := reward.ID()
	entry := PointEntry{
		Delta:       -reward.PointsCost(),
		Description: "redeemed " + reward.Name(),
		RewardID:    &id,
		CreatedAt:   now,
	}
	a.totalPoints -= reward.PointsCost()
	a.history = append(a.history, entry)
	a.updatedAt = now
	return entry, nil
}

// History is oldest first.
func (a *Account) History() []PointEntry {
	out := make([]PointEntry, len(a.history))
	copy(out, a.history)
	return out
}

// PendingEntries returns entries appended since the account was loaded.
func (a *Account) PendingEntries() []PointEntry {
	out := make([]PointEntry, len(a.history)-a.persisted)
	copy(out, a.history[a.persisted:])
	return out
}

func (a *Account) MarkPersisted() { a.persisted = len(a.history) }

func (a *Account) UserID() uuid.UUID    { return a.userID }
func (a *Account) TotalPoints() int64   { return a.totalPoints }
func (a *Account) Tier() Tier           { return TierFor(a.totalPoints) }
func (a *Account) CreatedAt() time.Time { return a.createdAt }
func (a *Account) UpdatedAt() time.Time { return a.updatedAt }
