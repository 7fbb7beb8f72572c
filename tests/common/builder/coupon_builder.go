//go:build unit || e2e

package builder

import (
	"time"

	domcoupon "handicraft-store/internal/domain/coupon"
	reqdto "handicraft-store/internal/handler/dto/request"
	"handicraft-store/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CouponBuilder struct {
	ID            uuid.UUID
	Code          string
	Kind          domcoupon.Kind
	Value         decimal.Decimal
	MinPurchase   decimal.Decimal
	ExpiresAt     *time.Time
	UsesRemaining *int
	Now           time.Time
}

func NewCouponBuilder() *CouponBuilder {
	return &CouponBuilder{
		ID:          uuid.New(),
		Code:        "SAVE10",
		Kind:        domcoupon.KindPercent,
		Value:       decimal.NewFromInt(10),
		MinPurchase: decimal.NewFromInt(50000),
		Now:         time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (b *CouponBuilder) With(mutate func(*CouponBuilder)) *CouponBuilder {
	mutate(b)
	return b
}

func (b *CouponBuilder) WithFixed(amount int64) *CouponBuilder {
	b.Kind = domcoupon.KindFixed
	b.Value = decimal.NewFromInt(amount)
	return b
}

func (b *CouponBuilder) WithUses(n int) *CouponBuilder {
	b.UsesRemaining = &n
	return b
}

func (b *CouponBuilder) WithExpiry(t time.Time) *CouponBuilder {
	b.ExpiresAt = &t
	return b
}

func (b *CouponBuilder) BuildDomain() (*domcoupon.Coupon, error) {
	discount, err := domcoupon.NewDiscount(b.Kind, b.Value)
	if err != nil {
		return nil, err
	}
	return domcoupon.NewCoupon(b.ID, b.Code, discount, b.MinPurchase, b.ExpiresAt, b.UsesRemaining, b.Now)
}

func (b *CouponBuilder) MustBuild() *domcoupon.Coupon {
	c, err := b.BuildDomain()
	if err != nil {
		panic(err)
	}
	return c
}

func (b *CouponBuilder) BuildView() *queries.CouponView {
	return queries.ToCouponView(b.MustBuild())
}

func (b *CouponBuilder) BuildCreateRequestDTO() reqdto.CreateCouponRequest {
	return reqdto.CreateCouponRequest{
		Code:          b.Code,
		Kind:          string(b.Kind),
		Value:         b.Value,
		MinPurchase:   b.MinPurchase,
		ExpiresAt:     b.ExpiresAt,
		UsesRemaining: b.UsesRemaining,
	}
}
