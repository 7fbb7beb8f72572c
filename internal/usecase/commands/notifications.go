package commands

import (
	"context"
	"time"

	"handicraft-store/internal/domain/loyalty"
	"handicraft-store/internal/domain/order"
	"handicraft-store/internal/pkg/errs"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
)

type orderPlacedPayload struct {
	OrderID    uuid.UUID `json:"order_id"`
	UserID     uuid.UUID `json:"user_id"`
	Total      string    `json:"total"`
	CouponCode *string   `json:"coupon_code,omitempty"`
	PlacedAt   time.Time `json:"placed_at"`
}

type orderStatusPayload struct {
	OrderID uuid.UUID `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	At      time.Time `json:"at"`
}

type couponRejectedPayload struct {
	UserID  uuid.UUID  `json:"user_id"`
	OrderID *uuid.UUID `json:"order_id,omitempty"`
	Code    string     `json:"code"`
	Kind    string     `json:"kind"`
	Reason  string     `json:"reason"`
}

type pointsPayload struct {
	UserID      uuid.UUID  `json:"user_id"`
	Delta       int64      `json:"delta"`
	TotalPoints int64      `json:"total_points"`
	Tier        string     `json:"tier"`
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
	RewardID    *uuid.UUID `json:"reward_id,omitempty"`
	Effect      string     `json:"effect,omitempty"`
	At          time.Time  `json:"at"`
}

func enqueue(ctx context.Context, tx shared.Tx, kind shared.NotificationKind, key string, payload any, now time.Time) error {
	job, err := shared.NewNotificationJob(kind, key, payload, now)
	if err != nil {
		return err
	}
	return tx.Notifications().Enqueue(ctx, job)
}

func enqueueOrderPlaced(ctx context.Context, tx shared.Tx, o *order.Order) error {
	return enqueue(ctx, tx, shared.NotificationOrderPlaced, o.UserID().String(), orderPlacedPayload{
		OrderID:    o.ID(),
		UserID:     o.UserID(),
		Total:      o.Pricing().Total.StringFixed(2),
		CouponCode: o.CouponCode(),
		PlacedAt:   o.CreatedAt(),
	}, o.CreatedAt())
}

func enqueueStatusChanged(ctx context.Context, tx shared.Tx, o *order.Order, from order.Status) error {
	return enqueue(ctx, tx, shared.NotificationOrderStatusChanged, o.UserID().String(), orderStatusPayload{
		OrderID: o.ID(),
		UserID:  o.UserID(),
		From:    from.String(),
		To:      o.Status().String(),
		At:      o.UpdatedAt(),
	}, o.UpdatedAt())
}

func enqueueCouponRejected(ctx context.Context, tx shared.Tx, userID uuid.UUID, orderID *uuid.UUID, code string, rejection error, now time.Time) error {
	kind, _ := errs.KindOf(rejection)
	return enqueue(ctx, tx, shared.NotificationCouponRejected, userID.String(), couponRejectedPayload{
		UserID:  userID,
		OrderID: orderID,
		Code:    code,
		Kind:    string(kind),
		Reason:  errs.ReasonOf(rejection),
	}, now)
}

func enqueuePointsAwarded(ctx context.Context, tx shared.Tx, acc *loyalty.Account, entry loyalty.PointEntry) error {
	return enqueue(ctx, tx, shared.NotificationPointsAwarded, acc.UserID().String(), pointsPayload{
		UserID:      acc.UserID(),
		Delta:       entry.Delta,
		TotalPoints: acc.TotalPoints(),
		Tier:        acc.Tier().String(),
		OrderID:     entry.OrderID,
		At:          entry.CreatedAt,
	}, entry.CreatedAt)
}

func enqueueRewardRedeemed(ctx context.Context, tx shared.Tx, acc *loyalty.Account, reward *loyalty.Reward, entry loyalty.PointEntry) error {
	return enqueue(ctx, tx, shared.NotificationRewardRedeemed, acc.UserID().String(), pointsPayload{
		UserID:      acc.UserID(),
		Delta:       entry.Delta,
		TotalPoints: acc.TotalPoints(),
		Tier:        acc.Tier().String(),
		RewardID:    entry.RewardID,
		Effect:      reward.Effect(),
		At:          entry.CreatedAt,
	}, entry.CreatedAt)
}
