package commands

import (
	"context"
	"log/slog"

	"handicraft-store/internal/domain/loyalty"
	"handicraft-store/internal/pkg/clock"
	"handicraft-store/internal/usecase/queries"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
)

type RedeemResult struct {
	Account *queries.AccountView
	Entry   queries.PointEntryView
	Reward  *queries.RewardView
}

type LoyaltyCommands interface {
	Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*RedeemResult, error)
}

type loyaltyUseCaseImpl struct {
	uow    shared.UnitOfWork
	clock  clock.Clock
	logger *slog.Logger
}

func NewLoyaltyUseCase(uow shared.UnitOfWork, clk clock.Clock, logger *slog.Logger) LoyaltyCommands {
	return &loyaltyUseCaseImpl{uow: uow, clock: clk, logger: logger}
}

// Redeem runs the balance check and decrement under the account lock. A user
// with no account has zero points.
func (uc *loyaltyUseCaseImpl) Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*RedeemResult, error) {
	var (
		acc    *loyalty.Account
		reward *loyalty.Reward
		entry  loyalty.PointEntry
	)
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		r, err := tx.Rewards().FindByID(ctx, rewardID)
		if err != nil {
			return shared.TranslateNotFound(err, loyalty.ErrRewardNotFound)
		}
		a, err := tx.Loyalty().FindForUpdate(ctx, userID)
		if err != nil {
			return shared.TranslateNotFound(err, loyalty.ErrInsufficientPoints)
		}
		e, err := a.Redeem(r, uc.clock.Now())
		if err != nil {
			return err
		}
		if err = tx.Loyalty().Save(ctx, a); err != nil {
			return err
		}
		if err = enqueueRewardRedeemed(ctx, tx, a, r, e); err != nil {
			return err
		}
		acc, reward, entry = a, r, e
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("reward redeemed",
		"user_id", userID,
		"reward_id", rewardID,
		"points", entry.Delta,
		"balance", acc.TotalPoints())

	return &RedeemResult{
		Account: queries.ToAccountView(acc),
		Entry:   queries.ToPointEntryViews([]loyalty.PointEntry{entry})[0],
		Reward:  queries.ToRewardView(reward),
	}, nil
}
