package repository

import (
	"context"
	"log/slog"
	"time"

	"handicraft-store/internal/domain/coupon"
	"handicraft-store/internal/infra"
	"handicraft-store/internal/infra/db"
	"handicraft-store/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const (
	couponColumns = `id, code, kind, value::text, min_purchase::text, expires_at, uses_remaining, created_at`

	selectCouponByCode = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	selectCoupons = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at`

	insertCoupon = `
INSERT INTO coupons (id, code, kind, value, min_purchase, expires_at, uses_remaining, created_at)
VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8)`

	// NULL uses_remaining means unlimited and always matches.
	consumeCouponUse = `
UPDATE coupons
SET uses_remaining = uses_remaining - 1
WHERE id = $1 AND (uses_remaining IS NULL OR uses_remaining > 0)`

	couponExists = `SELECT EXISTS (SELECT 1 FROM coupons WHERE id = $1)`
)

type CouponRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewCouponRepository(dbtx db.DBTX, logger *slog.Logger) *CouponRepository {
	return &CouponRepository{db: dbtx, logger: logger}
}

func (r *CouponRepository) FindByCode(ctx context.Context, code coupon.Code) (*coupon.Coupon, error) {
	c, err := r.scanCoupon(r.db.QueryRow(ctx, selectCouponByCode, code.String()))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "coupon not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find coupon by code", err)
	}
	return c, nil
}

func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.db.Exec(ctx, insertCoupon,
		c.ID(),
		c.Code().String(),
		string(c.Discount().Kind()),
		c.Discount().Value().String(),
		c.MinPurchase().String(),
		pgconv.TimePtrToPgtype(c.ExpiresAt()),
		pgconv.IntPtrToPgtype(c.UsesRemaining()),
		c.CreatedAt(),
	)
	if err != nil {
		if pgconv.IsUniqueViolation(err) {
			return infra.WrapRepoErr(r.logger, infra.KindDuplicateKey, "coupon code already exists", err)
		}
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to create coupon", err)
	}
	return nil
}

func (r *CouponRepository) ConsumeUse(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, consumeCouponUse, id)
	if err != nil {
		return false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to consume coupon use", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, couponExists, id).Scan(&exists); err != nil {
		return false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to check coupon", err)
	}
	if !exists {
		return false, infra.NewRepoErr(infra.KindNotFound, "coupon not found")
	}
	return false, nil
}

func (r *CouponRepository) List(ctx context.Context) ([]*coupon.Coupon, error) {
	rows, err := r.db.Query(ctx, selectCoupons)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list coupons", err)
	}
	defer rows.Close()

	var out []*coupon.Coupon
	for rows.Next() {
		c, err := r.scanCoupon(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan coupon", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to read coupons", err)
	}
	return out, nil
}

func (r *CouponRepository) scanCoupon(row pgx.Row) (*coupon.Coupon, error) {
	var (
		id            uuid.UUID
		code          string
		kind          string
		value         decimal.Decimal
		minPurchase   decimal.Decimal
		expiresAt     pgtype.Timestamptz
		usesRemaining pgtype.Int4
		createdAt     time.Time
	)
	valueCol, minCol := numeric(&value), numeric(&minPurchase)
	if err := row.Scan(&id, &code, &kind, &valueCol.raw, &minCol.raw, &expiresAt, &usesRemaining, &createdAt); err != nil {
		return nil, err
	}
	if err := decodeNumerics(valueCol, minCol); err != nil {
		return nil, err
	}

	parsedKind, err := coupon.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	discount, err := coupon.NewDiscount(parsedKind, value)
	if err != nil {
		return nil, err
	}

	return coupon.ReconstructCoupon(
		id,
		coupon.Code(code),
		discount,
		minPurchase,
		pgconv.TimePtrFromPgtype(expiresAt),
		pgconv.IntPtrFromPgtype(usesRemaining),
		createdAt,
	), nil
}
