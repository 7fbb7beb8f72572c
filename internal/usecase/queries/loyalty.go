package queries

import (
	"context"
	"time"

	"handicraft-store/internal/domain/loyalty"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
)

type LoyaltyQueries interface {
	Account(ctx context.Context, userID uuid.UUID) (*AccountView, error)
	History(ctx context.Context, userID uuid.UUID) ([]PointEntryView, error)
	Rewards(ctx context.Context) ([]*RewardView, error)
}

type loyaltyQueriesImpl struct {
	uow shared.UnitOfWork
}

func NewLoyaltyQueries(uow shared.UnitOfWork) LoyaltyQueries {
	return &loyaltyQueriesImpl{uow: uow}
}

// Account reports a zero bronze balance until the first award creates the account.
func (q *loyaltyQueriesImpl) Account(ctx context.Context, userID uuid.UUID) (*AccountView, error) {
	acc, err := q.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToAccountView(acc), nil
}

func (q *loyaltyQueriesImpl) History(ctx context.Context, userID uuid.UUID) ([]PointEntryView, error) {
	acc, err := q.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToPointEntryViews(acc.History()), nil
}

func (q *loyaltyQueriesImpl) Rewards(ctx context.Context) ([]*RewardView, error) {
	var rewards []*loyalty.Reward
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		found, err := tx.Rewards().List(ctx)
		rewards = found
		return err
	})
	if err != nil {
		return nil, err
	}
	views := make([]*RewardView, 0, len(rewards))
	for _, r := range rewards {
		views = append(views, ToRewardView(r))
	}
	return views, nil
}

func (q *loyaltyQueriesImpl) load(ctx context.Context, userID uuid.UUID) (*loyalty.Account, error) {
	var acc *loyalty.Account
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		found, err := tx.Loyalty().FindByUser(ctx, userID)
		acc = found
		return err
	})
	if shared.IsNotFound(err) {
		return loyalty.NewAccount(userID, time.Time{}), nil
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}
