package response

import (
	"time"

	"handicraft-store/internal/usecase/queries"
)

type CouponResponse struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	Kind          string     `json:"kind"`
	Value         string     `json:"value"`
	MinPurchase   string     `json:"min_purchase"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	UsesRemaining *int       `json:"uses_remaining,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func FromCouponView(v *queries.CouponView) *CouponResponse {
	res := &CouponResponse{}
	mustCopy(res, v)
	return res
}
