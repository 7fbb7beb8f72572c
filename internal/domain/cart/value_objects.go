package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultVariant stands in for "no variant" in a line's identity key.
	DefaultVariant = "default"
	// MaxQuantity bounds a single line so totals stay far from int overflow.
	MaxQuantity = 9999
)

type LineKey struct {
	ProductID uuid.UUID
	VariantID string
}

func NewLineKey(productID uuid.UUID, variantID string) LineKey {
	return LineKey{ProductID: productID, VariantID: normalizeVariant(variantID)}
}

func normalizeVariant(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultVariant
	}
	return v
}

// LineItem is validated at construction; a zero LineItem is never valid.
type LineItem struct {
	productID       uuid.UUID
	variantID       string
	unitBasePrice   decimal.Decimal
	variantModifier decimal.Decimal
	quantity        int
}

func NewLineItem(productID uuid.UUID, variantID string, unitBasePrice, variantModifier decimal.Decimal, quantity int) (LineItem, error) {
	if productID == uuid.Nil {
		return LineItem{}, ErrMissingProduct
	}
	if err := checkQuantity(quantity); err != nil {
		return LineItem{}, err
	}
	if unitBasePrice.IsNegative() || unitBasePrice.Add(variantModifier).IsNegative() {
		return LineItem{}, ErrNegativePrice
	}
	return LineItem{
		productID:       productID,
		variantID:       normalizeVariant(variantID),
		unitBasePrice:   unitBasePrice,
		variantModifier: variantModifier,
		quantity:        quantity,
	}, nil
}

func (l LineItem) Key() LineKey                     { return LineKey{ProductID: l.productID, VariantID: l.variantID} }
func (l LineItem) ProductID() uuid.UUID             { return l.productID }
func (l LineItem) VariantID() string                { return l.variantID }
func (l LineItem) UnitBasePrice() decimal.Decimal   { return l.unitBasePrice }
func (l LineItem) VariantModifier() decimal.Decimal { return l.variantModifier }
func (l LineItem) Quantity() int                    { return l.quantity }

func (l LineItem) HasVariant() bool {
	return l.variantID != DefaultVariant
}

func (l LineItem) UnitPrice() decimal.Decimal {
	return l.unitBasePrice.Add(l.variantModifier)
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.quantity)))
}

func checkQuantity(q int) error {
	switch {
	case q < 1:
		return ErrInvalidQuantity
	case q > MaxQuantity:
		return ErrQuantityTooLarge
	}
	return nil
}

// SubtotalOf sums effective unit price × quantity over lines.
func SubtotalOf(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}
