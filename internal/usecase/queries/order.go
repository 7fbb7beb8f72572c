package queries

import (
	"context"

	"handicraft-store/internal/domain/order"
	"handicraft-store/internal/domain/user"
	"handicraft-store/internal/pkg/errs"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrOrderNotVisible = errs.NotFound("order not found")

type OrderQueries interface {
	GetByID(ctx context.Context, actorID uuid.UUID, role user.Role, id uuid.UUID) (*OrderView, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*OrderView, error)
	Stats(ctx context.Context) (*OrderStatsView, error)
}

type orderQueriesImpl struct {
	uow shared.UnitOfWork
}

func NewOrderQueries(uow shared.UnitOfWork) OrderQueries {
	return &orderQueriesImpl{uow: uow}
}

// GetByID hides other customers' orders behind NOT_FOUND.
func (q *orderQueriesImpl) GetByID(ctx context.Context, actorID uuid.UUID, role user.Role, id uuid.UUID) (*OrderView, error) {
	var o *order.Order
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		found, err := tx.Orders().FindByID(ctx, id)
		if err != nil {
			return shared.TranslateNotFound(err, order.ErrOrderNotFound)
		}
		o = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if role != user.RoleAdmin && !o.IsOwnedBy(actorID) {
		return nil, ErrOrderNotVisible
	}
	return ToOrderView(o), nil
}

func (q *orderQueriesImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*OrderView, error) {
	var orders []*order.Order
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		found, err := tx.Orders().ListByUser(ctx, userID)
		orders = found
		return err
	})
	if err != nil {
		return nil, err
	}
	views := make([]*OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, ToOrderView(o))
	}
	return views, nil
}

func (q *orderQueriesImpl) Stats(ctx context.Context) (*OrderStatsView, error) {
	var totals []order.StatusTotal
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		found, err := tx.Orders().StatusTotals(ctx)
		totals = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToOrderStatsView(order.FromTotals(totals)), nil
}
