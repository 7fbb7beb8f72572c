package shared

import (
	"context"
	"time"

	"handicraft-store/internal/domain/cart"
	"handicraft-store/internal/domain/coupon"
	"handicraft-store/internal/domain/loyalty"
	"handicraft-store/internal/domain/order"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: read-write transaction; any error discards every write made through tx
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinReadOnly: consistent snapshot for multi-record reads
	WithinReadOnly(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Carts() CartRepository
	Coupons() CouponRepository
	Orders() OrderRepository
	Loyalty() LoyaltyRepository
	Rewards() RewardRepository
	Notifications() NotificationRepository
	IdempotencyKeys() IdempotencyRepository
}

type CartRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error)
	Save(ctx context.Context, c *cart.Cart) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type CouponRepository interface {
	FindByCode(ctx context.Context, code coupon.Code) (*coupon.Coupon, error)
	Create(ctx context.Context, c *coupon.Coupon) error
	// ConsumeUse decrements uses_remaining only while it is positive and
	// reports whether a use was taken. Unlimited coupons always succeed.
	ConsumeUse(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]*coupon.Coupon, error)
}

type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	// FindByIDForUpdate locks the order row until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error)
	Create(ctx context.Context, o *order.Order) error
	Update(ctx context.Context, o *order.Order) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*order.Order, error)
	StatusTotals(ctx context.Context) ([]order.StatusTotal, error)
}

type LoyaltyRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*loyalty.Account, error)
	// FindForUpdate locks the account; point mutations on one account serialize on it.
	FindForUpdate(ctx context.Context, userID uuid.UUID) (*loyalty.Account, error)
	// EnsureForUpdate creates an empty account when missing, then locks it.
	EnsureForUpdate(ctx context.Context, userID uuid.UUID, now time.Time) (*loyalty.Account, error)
	// Save writes the balance and appends pending history entries.
	Save(ctx context.Context, a *loyalty.Account) error
}

type RewardRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*loyalty.Reward, error)
	Create(ctx context.Context, r *loyalty.Reward) error
	List(ctx context.Context) ([]*loyalty.Reward, error)
}

type NotificationRepository interface {
	Enqueue(ctx context.Context, job NotificationJob) error
	// ClaimPending returns due jobs oldest first and moves their run_at to
	// leaseUntil, so other pollers skip them until the lease lapses.
	ClaimPending(ctx context.Context, limit int, now, leaseUntil time.Time) ([]NotificationJob, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string, retryAt time.Time) error
}

type IdempotencyRepository interface {
	// Find ignores keys that expired before now.
	Find(ctx context.Context, key, userID uuid.UUID, now time.Time) (*IdempotencyKey, error)
	Create(ctx context.Context, k IdempotencyKey) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Catalog is the read-only product price source.
type Catalog interface {
	PriceOf(ctx context.Context, productID uuid.UUID, variantID string) (*CatalogPrice, error)
}
