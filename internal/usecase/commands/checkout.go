package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"handicraft-store/internal/domain/cart"
	"handicraft-store/internal/domain/coupon"
	"handicraft-store/internal/domain/order"
	"handicraft-store/internal/domain/pricing"
	"handicraft-store/internal/pkg/clock"
	"handicraft-store/internal/pkg/errs"
	"handicraft-store/internal/usecase/queries"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
)

const idempotencyKeyTTL = 24 * time.Hour

var (
	ErrIdempotencyKeyReused = errs.Conflict("idempotency key was used for a different request")
	ErrIdempotencyKeyInUse  = errs.Conflict("a checkout with this idempotency key is already in progress")
)

type CheckoutRequest struct {
	ShippingAddress order.Address
	PaymentMethod   string
	// IdempotencyKey makes retries of the same checkout return the first order.
	IdempotencyKey *uuid.UUID
}

type CheckoutResult struct {
	Order           *queries.OrderView
	CouponRejection *queries.RejectionView
	Replayed        bool
}

type CheckoutCommands interface {
	Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResult, error)
}

type checkoutUseCaseImpl struct {
	uow      shared.UnitOfWork
	pipeline *pricing.Pipeline
	cache    queries.CartCache
	clock    clock.Clock
	logger   *slog.Logger
}

func NewCheckoutUseCase(uow shared.UnitOfWork, pipeline *pricing.Pipeline, cache queries.CartCache, clk clock.Clock, logger *slog.Logger) CheckoutCommands {
	return &checkoutUseCaseImpl{uow: uow, pipeline: pipeline, cache: cache, clock: clk, logger: logger}
}

// Checkout prices the cart, takes one coupon use when the coupon applies,
// writes the order and its notifications, and clears the cart in one
// transaction. A coupon that fails any check is dropped and reported instead
// of aborting the checkout.
func (uc *checkoutUseCaseImpl) Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResult, error) {
	payment, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	address, err := order.NewAddress(req.ShippingAddress)
	if err != nil {
		return nil, err
	}

	var (
		placed    *order.Order
		rejection error
		replayed  bool
		hash      string
	)
	if req.IdempotencyKey != nil {
		hash = requestHash(req)
	}
	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		now := uc.clock.Now()
		replayed = false
		if req.IdempotencyKey != nil {
			prev, err := replay(ctx, tx, *req.IdempotencyKey, userID, hash, now)
			if err != nil {
				return err
			}
			if prev != nil {
				placed, replayed = prev, true
				return nil
			}
		}

		c, err := tx.Carts().FindByUser(ctx, userID)
		if err != nil {
			return shared.TranslateNotFound(err, cart.ErrEmptyCart)
		}
		if c.IsEmpty() {
			return cart.ErrEmptyCart
		}
		attached := c.CouponCode()

		cp, missing, err := queries.LoadAttachedCoupon(ctx, tx, c)
		if err != nil {
			return err
		}
		in := pricing.Input{Lines: c.Lines(), Coupon: cp, DiscountPercent: c.DiscountPercent(), Now: now}
		quote := uc.pipeline.Price(in)
		if missing {
			quote.CouponRejection = coupon.ErrCouponNotFound
		}

		var appliedCode *string
		if cp != nil && quote.CouponRejection == nil {
			taken, err := tx.Coupons().ConsumeUse(ctx, cp.ID())
			if err != nil {
				return err
			}
			if taken {
				code := cp.Code().String()
				appliedCode = &code
			} else {
				in.Coupon = nil
				quote = uc.pipeline.Price(in)
				quote.CouponRejection = coupon.ErrUsageExhausted
			}
		}

		o, err := order.Create(uuid.New(), c, quote.Result, appliedCode, address, payment, now)
		if err != nil {
			return err
		}
		if err = tx.Orders().Create(ctx, o); err != nil {
			return err
		}
		if err = tx.Carts().Save(ctx, c); err != nil {
			return err
		}
		if req.IdempotencyKey != nil {
			err = tx.IdempotencyKeys().Create(ctx, shared.IdempotencyKey{
				Key:         *req.IdempotencyKey,
				UserID:      userID,
				RequestHash: hash,
				OrderID:     o.ID(),
				ExpiresAt:   now.Add(idempotencyKeyTTL),
				CreatedAt:   now,
			})
			if err != nil {
				return shared.TranslateDuplicate(err, ErrIdempotencyKeyInUse)
			}
		}
		if err = enqueueOrderPlaced(ctx, tx, o); err != nil {
			return err
		}
		if quote.CouponRejection != nil && attached != nil {
			id := o.ID()
			if err = enqueueCouponRejected(ctx, tx, userID, &id, *attached, quote.CouponRejection, now); err != nil {
				return err
			}
		}

		placed = o
		rejection = quote.CouponRejection
		return nil
	})
	if err != nil {
		return nil, err
	}
	if replayed {
		uc.logger.Info("checkout replayed", "order_id", placed.ID(), "user_id", userID)
		return &CheckoutResult{Order: queries.ToOrderView(placed), Replayed: true}, nil
	}

	invalidateCart(uc.cache, uc.logger, userID)
	uc.logger.Info("order placed",
		"order_id", placed.ID(),
		"user_id", userID,
		"total", placed.Pricing().Total.StringFixed(2),
		"coupon_rejected", rejection != nil)

	return &CheckoutResult{
		Order:           queries.ToOrderView(placed),
		CouponRejection: queries.ToRejectionView(rejection),
	}, nil
}

// replay returns the order an earlier checkout stored under key, or nil when
// the key is unused or expired.
func replay(ctx context.Context, tx shared.Tx, key, userID uuid.UUID, hash string, now time.Time) (*order.Order, error) {
	prev, err := tx.IdempotencyKeys().Find(ctx, key, userID, now)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if prev.RequestHash != hash {
		return nil, ErrIdempotencyKeyReused
	}
	return tx.Orders().FindByID(ctx, prev.OrderID)
}

func requestHash(req CheckoutRequest) string {
	data, _ := json.Marshal(struct {
		Address order.Address `json:"address"`
		Payment string        `json:"payment"`
	}{req.ShippingAddress, req.PaymentMethod})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
