package queries

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"handicraft-store/internal/domain/cart"
	"handicraft-store/internal/domain/coupon"
	"handicraft-store/internal/domain/pricing"
	"handicraft-store/internal/pkg/clock"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var ErrCacheMiss = errors.New("cache miss")

//go:generate mockgen -destination=../../../tests/mock/queries/queries_mock.go -package=queriesmock handicraft-store/internal/usecase/queries CartQueries,LoyaltyQueries,OrderQueries

// CartCache stores rendered cart views. Callers treat every error as a miss.
//
// Every Delete bumps the user's generation. A reader takes Generation before
// loading the cart and hands it to Set, which drops the fill if a write was
// invalidated in between.
type CartCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartView, error)
	Generation(ctx context.Context, userID uuid.UUID) (int64, error)
	Set(ctx context.Context, userID uuid.UUID, view *CartView, generation int64) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

const sharedReadTimeout = 5 * time.Second

type CartQueries interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	Quote(ctx context.Context, userID uuid.UUID) (*QuoteView, error)
}

type cartQueriesImpl struct {
	uow      shared.UnitOfWork
	cache    CartCache
	pipeline *pricing.Pipeline
	clock    clock.Clock
	logger   *slog.Logger
	sfg      singleflight.Group
}

func NewCartQueries(uow shared.UnitOfWork, cache CartCache, pipeline *pricing.Pipeline, clk clock.Clock, logger *slog.Logger) CartQueries {
	return &cartQueriesImpl{uow: uow, cache: cache, pipeline: pipeline, clock: clk, logger: logger}
}

// GetCart reads through the cache; concurrent misses for one user share a
// single store read. The shared read is detached from any one caller so a
// cancelled request does not fail the others waiting on it.
func (q *cartQueriesImpl) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	ch := q.sfg.DoChan(userID.String(), func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()
		return q.readThrough(readCtx, userID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*CartView), nil
	}
}

func (q *cartQueriesImpl) readThrough(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	view, err := q.cache.Get(ctx, userID)
	if err == nil {
		return view, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		q.logger.Warn("cart cache get failed", "user_id", userID, "error", err)
	}

	gen, genErr := q.cache.Generation(ctx, userID)
	if genErr != nil {
		q.logger.Warn("cart cache generation failed", "user_id", userID, "error", genErr)
	}

	var c *cart.Cart
	err = q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		found, ferr := tx.Carts().FindByUser(ctx, userID)
		if ferr != nil {
			return ferr
		}
		c = found
		return nil
	})
	if shared.IsNotFound(err) {
		return EmptyCartView(userID), nil
	}
	if err != nil {
		return nil, err
	}

	view = ToCartView(c)
	if genErr == nil {
		if serr := q.cache.Set(ctx, userID, view, gen); serr != nil {
			q.logger.Warn("cart cache set failed", "user_id", userID, "error", serr)
		}
	}
	return view, nil
}

// Quote prices the current cart without placing an order.
func (q *cartQueriesImpl) Quote(ctx context.Context, userID uuid.UUID) (*QuoteView, error) {
	var (
		c             *cart.Cart
		cp            *coupon.Coupon
		missingCoupon bool
	)
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		found, err := tx.Carts().FindByUser(ctx, userID)
		if shared.IsNotFound(err) {
			c = cart.NewCart(userID, q.clock.Now())
			return nil
		}
		if err != nil {
			return err
		}
		c = found
		cp, missingCoupon, err = LoadAttachedCoupon(ctx, tx, c)
		return err
	})
	if err != nil {
		return nil, err
	}

	quote := q.pipeline.Price(pricing.Input{
		Lines:           c.Lines(),
		Coupon:          cp,
		DiscountPercent: c.DiscountPercent(),
		Now:             q.clock.Now(),
	})
	if missingCoupon {
		quote.CouponRejection = coupon.ErrCouponNotFound
	}
	return ToQuoteView(quote, q.pipeline.TaxRate(), c.CouponCode()), nil
}

// LoadAttachedCoupon resolves the cart's coupon code. A code that no longer
// exists yields (nil, true, nil) so pricing can report it as a rejection.
func LoadAttachedCoupon(ctx context.Context, tx shared.Tx, c *cart.Cart) (*coupon.Coupon, bool, error) {
	code := c.CouponCode()
	if code == nil {
		return nil, false, nil
	}
	cp, err := tx.Coupons().FindByCode(ctx, coupon.Code(*code))
	if shared.IsNotFound(err) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cp, false, nil
}
