package memstore

import (
	"context"

	"handicraft-store/internal/domain/cart"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Variant struct {
	ID       string
	Modifier decimal.Decimal
}

type Product struct {
	ID        uuid.UUID
	Name      string
	BasePrice decimal.Decimal
	Variants  []Variant
}

// AddProduct registers a product and its variants. The product is always
// purchasable without a variant.
func (s *Store) AddProduct(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := shared.CatalogPrice{
		ProductID:       p.ID,
		VariantID:       cart.DefaultVariant,
		Name:            p.Name,
		UnitBasePrice:   p.BasePrice,
		VariantModifier: decimal.Zero,
	}
	s.products[cart.NewLineKey(p.ID, "")] = base
	for _, v := range p.Variants {
		priced := base
		priced.VariantID = v.ID
		priced.VariantModifier = v.Modifier
		s.products[cart.NewLineKey(p.ID, v.ID)] = priced
	}
}

func (s *Store) PriceOf(ctx context.Context, productID uuid.UUID, variantID string) (*shared.CatalogPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[cart.NewLineKey(productID, variantID)]
	if !ok {
		return nil, notFound("product not found")
	}
	return &p, nil
}

// DemoProducts is the catalog loaded when the service runs on the memory driver.
func DemoProducts() []Product {
	return []Product{
		{
			ID:        uuid.MustParse("6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c01"),
			Name:      "Wayuu mochila",
			BasePrice: decimal.NewFromInt(180000),
			Variants: []Variant{
				{ID: "small", Modifier: decimal.NewFromInt(-30000)},
				{ID: "large", Modifier: decimal.NewFromInt(45000)},
			},
		},
		{
			ID:        uuid.MustParse("6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c02"),
			Name:      "Ráquira clay pot",
			BasePrice: decimal.NewFromInt(50000),
		},
		{
			ID:        uuid.MustParse("6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c03"),
			Name:      "Sombrero vueltiao",
			BasePrice: decimal.NewFromInt(120000),
			Variants: []Variant{
				{ID: "15-vueltas", Modifier: decimal.Zero},
				{ID: "21-vueltas", Modifier: decimal.NewFromInt(60000)},
			},
		},
	}
}
