package repository

import (
	"context"
	"log/slog"
	"time"

	"handicraft-store/internal/domain/cart"
	"handicraft-store/internal/infra"
	"handicraft-store/internal/infra/db"
	"handicraft-store/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const (
	selectCart = `SELECT coupon_code, discount_percent::text, updated_at FROM carts WHERE user_id = $1`

	selectCartLines = `
SELECT product_id, variant_id, unit_base_price::text, variant_modifier::text, quantity
FROM cart_lines WHERE user_id = $1 ORDER BY position`

	upsertCart = `
INSERT INTO carts (user_id, coupon_code, discount_percent, updated_at)
VALUES ($1, $2, $3::numeric, $4)
ON CONFLICT (user_id) DO UPDATE
SET coupon_code = EXCLUDED.coupon_code,
    discount_percent = EXCLUDED.discount_percent,
    updated_at = EXCLUDED.updated_at`

	deleteCartLines = `DELETE FROM cart_lines WHERE user_id = $1`

	insertCartLine = `
INSERT INTO cart_lines (user_id, product_id, variant_id, unit_base_price, variant_modifier, quantity, position)
VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7)`

	deleteCart = `DELETE FROM carts WHERE user_id = $1`
)

type CartRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewCartRepository(dbtx db.DBTX, logger *slog.Logger) *CartRepository {
	return &CartRepository{db: dbtx, logger: logger}
}

func (r *CartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	var (
		couponCode pgtype.Text
		percent    pgtype.Text
		updatedAt  time.Time
	)
	err := r.db.QueryRow(ctx, selectCart, userID).Scan(&couponCode, &percent, &updatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "cart not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find cart", err)
	}

	pct, err := pgconv.DecimalPtrFromText(percent)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to decode cart discount", err)
	}

	lines, err := r.findLines(ctx, userID)
	if err != nil {
		return nil, err
	}

	return cart.ReconstructCart(userID, lines, pgconv.StringPtrFromPgtype(couponCode), pct, updatedAt), nil
}

func (r *CartRepository) findLines(ctx context.Context, userID uuid.UUID) ([]cart.LineItem, error) {
	rows, err := r.db.Query(ctx, selectCartLines, userID)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to query cart lines", err)
	}
	defer rows.Close()

	var lines []cart.LineItem
	for rows.Next() {
		var (
			productID       uuid.UUID
			variantID       string
			unitBasePrice   decimal.Decimal
			variantModifier decimal.Decimal
			quantity        int
		)
		base, modifier := numeric(&unitBasePrice), numeric(&variantModifier)
		if err := rows.Scan(&productID, &variantID, &base.raw, &modifier.raw, &quantity); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan cart line", err)
		}
		if err := decodeNumerics(base, modifier); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to decode cart line", err)
		}
		item, err := cart.NewLineItem(productID, variantID, unitBasePrice, variantModifier, quantity)
		if err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "stored cart line is invalid", err)
		}
		lines = append(lines, item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to read cart lines", err)
	}
	return lines, nil
}

// Save replaces the stored lines wholesale; carts are small.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	var pct *decimal.Decimal
	if d := c.DiscountPercent(); !d.IsZero() {
		pct = &d
	}

	if _, err := r.db.Exec(ctx, upsertCart,
		c.OwnerID(),
		pgconv.StringPtrToPgtype(c.CouponCode()),
		pgconv.DecimalPtrToString(pct),
		c.UpdatedAt(),
	); err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to save cart", err)
	}

	if _, err := r.db.Exec(ctx, deleteCartLines, c.OwnerID()); err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to clear cart lines", err)
	}

	for i, l := range c.Lines() {
		if _, err := r.db.Exec(ctx, insertCartLine,
			c.OwnerID(),
			l.ProductID(),
			l.VariantID(),
			l.UnitBasePrice().String(),
			l.VariantModifier().String(),
			l.Quantity(),
			i,
		); err != nil {
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to save cart line", err)
		}
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deleteCart, userID)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to delete cart", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "cart not found")
	}
	return nil
}
