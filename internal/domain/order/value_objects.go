package order

import (
	"strings"

	"handicraft-store/internal/domain/cart"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Address struct {
	Recipient  string `json:"recipient"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
}

func NewAddress(a Address) (Address, error) {
	a.Recipient = strings.TrimSpace(a.Recipient)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.Line2 = strings.TrimSpace(a.Line2)
	a.City = strings.TrimSpace(a.City)
	a.Region = strings.TrimSpace(a.Region)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Recipient == "" || a.Line1 == "" || a.City == "" || a.Country == "" {
		return Address{}, ErrIncompleteAddress
	}
	return a, nil
}

// Line is a value copy of a cart line taken at checkout.
type Line struct {
	ProductID       uuid.UUID
	VariantID       string
	UnitBasePrice   decimal.Decimal
	VariantModifier decimal.Decimal
	Quantity        int
}

func (l Line) LineTotal() decimal.Decimal {
	return l.UnitBasePrice.Add(l.VariantModifier).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func snapshotLines(items []cart.LineItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{
			ProductID:       it.ProductID(),
			VariantID:       it.VariantID(),
			UnitBasePrice:   it.UnitBasePrice(),
			VariantModifier: it.VariantModifier(),
			Quantity:        it.Quantity(),
		})
	}
	return lines
}
