package repository

import (
	"context"
	"log/slog"

	"handicraft-store/internal/domain/cart"
	"handicraft-store/internal/infra"
	"handicraft-store/internal/infra/db"
	"handicraft-store/internal/pkg/pgconv"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	selectProductPrice = `SELECT name, base_price::text, '0' FROM products WHERE id = $1`

	selectVariantPrice = `
SELECT p.name, p.base_price::text, v.price_modifier::text
FROM products p
JOIN product_variants v ON v.product_id = p.id
WHERE p.id = $1 AND v.variant_id = $2`
)

// CatalogRepository reads product prices outside any unit of work.
type CatalogRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewCatalogRepository(dbtx db.DBTX, logger *slog.Logger) *CatalogRepository {
	return &CatalogRepository{db: dbtx, logger: logger}
}

func (r *CatalogRepository) PriceOf(ctx context.Context, productID uuid.UUID, variantID string) (*shared.CatalogPrice, error) {
	key := cart.NewLineKey(productID, variantID)
	price := shared.CatalogPrice{ProductID: productID, VariantID: key.VariantID}

	var (
		base     = numeric(&price.UnitBasePrice)
		modifier = numeric(&price.VariantModifier)
		err      error
	)
	if key.VariantID == cart.DefaultVariant {
		err = r.db.QueryRow(ctx, selectProductPrice, productID).Scan(&price.Name, &base.raw, &modifier.raw)
	} else {
		err = r.db.QueryRow(ctx, selectVariantPrice, productID, key.VariantID).Scan(&price.Name, &base.raw, &modifier.raw)
	}
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "product not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find product price", err)
	}
	if err := decodeNumerics(base, modifier); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to decode product price", err)
	}
	return &price, nil
}

