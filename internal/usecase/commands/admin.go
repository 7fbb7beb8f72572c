package commands

import (
	"context"
	"log/slog"
	"time"

	"handicraft-store/internal/domain/coupon"
	"handicraft-store/internal/domain/loyalty"
	"handicraft-store/internal/pkg/clock"
	"handicraft-store/internal/usecase/queries"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateCouponRequest struct {
	Code          string
	Kind          string
	Value         decimal.Decimal
	MinPurchase   decimal.Decimal
	ExpiresAt     *time.Time
	UsesRemaining *int
}

type CreateRewardRequest struct {
	Name        string
	Description string
	PointsCost  int64
	Effect      string
}

// CatalogAdminCommands manages coupon and reward reference data.
type CatalogAdminCommands interface {
	CreateCoupon(ctx context.Context, req CreateCouponRequest) (*queries.CouponView, error)
	CreateReward(ctx context.Context, req CreateRewardRequest) (*queries.RewardView, error)
}

type catalogAdminUseCaseImpl struct {
	uow    shared.UnitOfWork
	clock  clock.Clock
	logger *slog.Logger
}

func NewCatalogAdminUseCase(uow shared.UnitOfWork, clk clock.Clock, logger *slog.Logger) CatalogAdminCommands {
	return &catalogAdminUseCaseImpl{uow: uow, clock: clk, logger: logger}
}

func (uc *catalogAdminUseCaseImpl) CreateCoupon(ctx context.Context, req CreateCouponRequest) (*queries.CouponView, error) {
	kind, err := coupon.ParseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	discount, err := coupon.NewDiscount(kind, req.Value)
	if err != nil {
		return nil, err
	}
	c, err := coupon.NewCoupon(uuid.New(), req.Code, discount, req.MinPurchase, req.ExpiresAt, req.UsesRemaining, uc.clock.Now())
	if err != nil {
		return nil, err
	}

	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return shared.TranslateDuplicate(tx.Coupons().Create(ctx, c), coupon.ErrDuplicateCode)
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("coupon created", "coupon_id", c.ID(), "code", c.Code().String())
	return queries.ToCouponView(c), nil
}

func (uc *catalogAdminUseCaseImpl) CreateReward(ctx context.Context, req CreateRewardRequest) (*queries.RewardView, error) {
	r, err := loyalty.NewReward(uuid.New(), req.Name, req.Description, req.PointsCost, req.Effect, uc.clock.Now())
	if err != nil {
		return nil, err
	}
	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Rewards().Create(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("reward created", "reward_id", r.ID(), "points_cost", r.PointsCost())
	return queries.ToRewardView(r), nil
}
