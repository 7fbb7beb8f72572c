package request

import (
	"time"

	"handicraft-store/internal/usecase/commands"

	"github.com/shopspring/decimal"
)

type CreateCouponRequest struct {
	Code          string          `json:"code" binding:"required,max=64"`
	Kind          string          `json:"kind" binding:"required"`
	Value         decimal.Decimal `json:"value"`
	MinPurchase   decimal.Decimal `json:"min_purchase"`
	ExpiresAt     *time.Time      `json:"expires_at"`
	UsesRemaining *int            `json:"uses_remaining"`
}

func (r *CreateCouponRequest) ToCommand() commands.CreateCouponRequest {
	return commands.CreateCouponRequest{
		Code:          r.Code,
		Kind:          r.Kind,
		Value:         r.Value,
		MinPurchase:   r.MinPurchase,
		ExpiresAt:     r.ExpiresAt,
		UsesRemaining: r.UsesRemaining,
	}
}

type CreateRewardRequest struct {
	Name        string  `json:"name" binding:"required,max=200"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	PointsCost  int64   `json:"points_cost"`
	Effect      string  `json:"effect" binding:"required,max=100"`
}

func (r *CreateRewardRequest) ToCommand() commands.CreateRewardRequest {
	return commands.CreateRewardRequest{
		Name:        r.Name,
		Description: orEmpty(r.Description),
		PointsCost:  r.PointsCost,
		Effect:      r.Effect,
	}
}

type AdvanceOrderRequest struct {
	Status string `json:"status" binding:"required"`
}
