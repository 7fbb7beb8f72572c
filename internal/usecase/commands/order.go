package commands

import (
	"context"
	"log/slog"

	"handicraft-store/internal/domain/loyalty"
	"handicraft-store/internal/domain/order"
	"handicraft-store/internal/domain/user"
	"handicraft-store/internal/pkg/clock"
	"handicraft-store/internal/usecase/queries"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderCommands interface {
	// Advance moves an order one step forward. Passing cancelled routes to Cancel.
	Advance(ctx context.Context, orderID uuid.UUID, next string) (*queries.OrderView, error)
	Cancel(ctx context.Context, actorID uuid.UUID, role user.Role, orderID uuid.UUID) (*queries.OrderView, error)
}

type orderUseCaseImpl struct {
	uow        shared.UnitOfWork
	pointsUnit decimal.Decimal
	clock      clock.Clock
	logger     *slog.Logger
}

func NewOrderUseCase(uow shared.UnitOfWork, pointsUnit decimal.Decimal, clk clock.Clock, logger *slog.Logger) OrderCommands {
	if !pointsUnit.IsPositive() {
		pointsUnit = loyalty.DefaultPointsUnit
	}
	return &orderUseCaseImpl{uow: uow, pointsUnit: pointsUnit, clock: clk, logger: logger}
}

func (uc *orderUseCaseImpl) Advance(ctx context.Context, orderID uuid.UUID, next string) (*queries.OrderView, error) {
	status, err := order.ParseStatus(next)
	if err != nil {
		return nil, err
	}
	if status == order.StatusCancelled {
		return uc.Cancel(ctx, uuid.Nil, user.RoleAdmin, orderID)
	}

	var (
		updated *order.Order
		award   *loyalty.PointEntry
	)
	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		o, err := tx.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return shared.TranslateNotFound(err, order.ErrOrderNotFound)
		}
		from := o.Status()
		now := uc.clock.Now()
		if err = o.Advance(status, now); err != nil {
			return err
		}

		award = nil
		if o.Status() == order.StatusDelivered && o.MarkPointsAwarded() {
			entry, err := uc.awardPoints(ctx, tx, o)
			if err != nil {
				return err
			}
			award = entry
		}

		if err = tx.Orders().Update(ctx, o); err != nil {
			return err
		}
		if err = enqueueStatusChanged(ctx, tx, o, from); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("order advanced", "order_id", orderID, "status", updated.Status())
	if award != nil {
		uc.logger.Info("points awarded", "order_id", orderID, "user_id", updated.UserID(), "points", award.Delta)
	}
	return queries.ToOrderView(updated), nil
}

// awardPoints credits the order owner inside the caller's transaction. The
// account row is locked so awards and redemptions on one account serialize.
func (uc *orderUseCaseImpl) awardPoints(ctx context.Context, tx shared.Tx, o *order.Order) (*loyalty.PointEntry, error) {
	acc, err := tx.Loyalty().EnsureForUpdate(ctx, o.UserID(), uc.clock.Now())
	if err != nil {
		return nil, err
	}
	entry, earned, err := acc.Award(o.ID(), o.Pricing().Total, uc.pointsUnit, uc.clock.Now())
	if err != nil || !earned {
		return nil, err
	}
	if err = tx.Loyalty().Save(ctx, acc); err != nil {
		return nil, err
	}
	if err = enqueuePointsAwarded(ctx, tx, acc, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Cancel lets customers cancel their own pending orders; admins may cancel any
// pending order. Other customers' orders look missing.
func (uc *orderUseCaseImpl) Cancel(ctx context.Context, actorID uuid.UUID, role user.Role, orderID uuid.UUID) (*queries.OrderView, error) {
	var updated *order.Order
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		o, err := tx.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return shared.TranslateNotFound(err, order.ErrOrderNotFound)
		}
		if role != user.RoleAdmin && !o.IsOwnedBy(actorID) {
			return order.ErrOrderNotFound
		}
		from := o.Status()
		if err = o.Cancel(uc.clock.Now()); err != nil {
			return err
		}
		if err = tx.Orders().Update(ctx, o); err != nil {
			return err
		}
		if err = enqueueStatusChanged(ctx, tx, o, from); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("order cancelled", "order_id", orderID, "actor_id", actorID)
	return queries.ToOrderView(updated), nil
}
