package commands

import (
	"context"
	"log/slog"
	"time"

	"handicraft-store/internal/domain/cart"
	"handicraft-store/internal/domain/coupon"
	"handicraft-store/internal/pkg/clock"
	"handicraft-store/internal/pkg/errs"
	"handicraft-store/internal/usecase/queries"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errs.NotFound("product not found")

//go:generate mockgen -destination=../../../tests/mock/commands/commands_mock.go -package=commandsmock handicraft-store/internal/usecase/commands CartCommands,CheckoutCommands,OrderCommands,LoyaltyCommands,CatalogAdminCommands

type AddLineRequest struct {
	ProductID uuid.UUID
	VariantID string
	Quantity  int
}

type SetQuantityRequest struct {
	ProductID uuid.UUID
	VariantID string
	Quantity  int
}

type CartCommands interface {
	AddLine(ctx context.Context, userID uuid.UUID, req AddLineRequest) (*queries.CartView, error)
	SetQuantity(ctx context.Context, userID uuid.UUID, req SetQuantityRequest) (*queries.CartView, error)
	RemoveLine(ctx context.Context, userID, productID uuid.UUID, variantID string) (*queries.CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*queries.CartView, error)
	RemoveCoupon(ctx context.Context, userID uuid.UUID) (*queries.CartView, error)
	SetDiscount(ctx context.Context, userID uuid.UUID, percent decimal.Decimal) (*queries.CartView, error)
}

type cartUseCaseImpl struct {
	uow     shared.UnitOfWork
	catalog shared.Catalog
	cache   queries.CartCache
	clock   clock.Clock
	logger  *slog.Logger
}

func NewCartUseCase(uow shared.UnitOfWork, catalog shared.Catalog, cache queries.CartCache, clk clock.Clock, logger *slog.Logger) CartCommands {
	return &cartUseCaseImpl{uow: uow, catalog: catalog, cache: cache, clock: clk, logger: logger}
}

// AddLine prices the line from the catalog before touching the cart.
func (uc *cartUseCaseImpl) AddLine(ctx context.Context, userID uuid.UUID, req AddLineRequest) (*queries.CartView, error) {
	if req.Quantity < 1 {
		return nil, cart.ErrInvalidQuantity
	}
	price, err := uc.catalog.PriceOf(ctx, req.ProductID, req.VariantID)
	if err != nil {
		return nil, shared.TranslateNotFound(err, ErrProductNotFound)
	}
	item, err := cart.NewLineItem(req.ProductID, req.VariantID, price.UnitBasePrice, price.VariantModifier, req.Quantity)
	if err != nil {
		return nil, err
	}

	return uc.mutate(ctx, userID, func(c *cart.Cart, now time.Time) error {
		return c.AddLine(item, now)
	})
}

func (uc *cartUseCaseImpl) SetQuantity(ctx context.Context, userID uuid.UUID, req SetQuantityRequest) (*queries.CartView, error) {
	return uc.mutate(ctx, userID, func(c *cart.Cart, now time.Time) error {
		return c.SetQuantity(req.ProductID, req.VariantID, req.Quantity, now)
	})
}

func (uc *cartUseCaseImpl) RemoveLine(ctx context.Context, userID, productID uuid.UUID, variantID string) (*queries.CartView, error) {
	return uc.mutate(ctx, userID, func(c *cart.Cart, now time.Time) error {
		c.RemoveLine(productID, variantID, now)
		return nil
	})
}

func (uc *cartUseCaseImpl) Clear(ctx context.Context, userID uuid.UUID) error {
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		err := tx.Carts().Delete(ctx, userID)
		if shared.IsNotFound(err) {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	uc.invalidate(userID)
	return nil
}

// ApplyCoupon requires the code to exist but attaches it even when it does not
// currently apply; pricing reports why.
func (uc *cartUseCaseImpl) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*queries.CartView, error) {
	normalized, err := coupon.NewCouponCode(code)
	if err != nil {
		return nil, err
	}
	var view *queries.CartView
	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, ferr := tx.Coupons().FindByCode(ctx, normalized); ferr != nil {
			return shared.TranslateNotFound(ferr, coupon.ErrCouponNotFound)
		}
		c, ferr := uc.loadOrCreate(ctx, tx, userID)
		if ferr != nil {
			return ferr
		}
		if ferr = c.ApplyCoupon(normalized.String(), uc.clock.Now()); ferr != nil {
			return ferr
		}
		if ferr = tx.Carts().Save(ctx, c); ferr != nil {
			return ferr
		}
		view = queries.ToCartView(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.invalidate(userID)
	return view, nil
}

func (uc *cartUseCaseImpl) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*queries.CartView, error) {
	return uc.mutate(ctx, userID, func(c *cart.Cart, now time.Time) error {
		c.RemoveCoupon(now)
		return nil
	})
}

func (uc *cartUseCaseImpl) SetDiscount(ctx context.Context, userID uuid.UUID, percent decimal.Decimal) (*queries.CartView, error) {
	return uc.mutate(ctx, userID, func(c *cart.Cart, now time.Time) error {
		return c.SetDiscountPercent(percent, now)
	})
}

func (uc *cartUseCaseImpl) mutate(ctx context.Context, userID uuid.UUID, fn func(c *cart.Cart, now time.Time) error) (*queries.CartView, error) {
	var view *queries.CartView
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		c, err := uc.loadOrCreate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err = fn(c, uc.clock.Now()); err != nil {
			return err
		}
		if err = tx.Carts().Save(ctx, c); err != nil {
			return err
		}
		view = queries.ToCartView(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.invalidate(userID)
	return view, nil
}

func (uc *cartUseCaseImpl) loadOrCreate(ctx context.Context, tx shared.Tx, userID uuid.UUID) (*cart.Cart, error) {
	c, err := tx.Carts().FindByUser(ctx, userID)
	if shared.IsNotFound(err) {
		return cart.NewCart(userID, uc.clock.Now()), nil
	}
	return c, err
}

func (uc *cartUseCaseImpl) invalidate(userID uuid.UUID) {
	invalidateCart(uc.cache, uc.logger, userID)
}

func invalidateCart(cache queries.CartCache, logger *slog.Logger, userID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := cache.Delete(ctx, userID); err != nil {
		logger.Warn("cart cache invalidate failed", "user_id", userID, "error", err)
	}
}
