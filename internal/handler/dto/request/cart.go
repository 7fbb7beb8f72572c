package request

import (
	"handicraft-store/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AddLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	VariantID *string   `json:"variant_id"`
	Quantity  int       `json:"quantity" binding:"required,max=9999"`
}

func (r *AddLineRequest) ToCommand() commands.AddLineRequest {
	return commands.AddLineRequest{
		ProductID: r.ProductID,
		VariantID: orEmpty(r.VariantID),
		Quantity:  r.Quantity,
	}
}

// Quantity below 1 is clamped by the cart, not rejected.
type SetQuantityRequest struct {
	VariantID *string `json:"variant_id"`
	Quantity  int     `json:"quantity" binding:"max=9999"`
}

func (r *SetQuantityRequest) ToCommand(productID uuid.UUID) commands.SetQuantityRequest {
	return commands.SetQuantityRequest{
		ProductID: productID,
		VariantID: orEmpty(r.VariantID),
		Quantity:  r.Quantity,
	}
}

type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

type SetDiscountRequest struct {
	Percent decimal.Decimal `json:"percent"`
}

// orEmpty maps an omitted optional field to the empty value the use cases expect.
func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
