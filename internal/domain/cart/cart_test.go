//go:build unit

package cart_test

import (
	"math"
	"testing"
	"time"

	"handicraft-store/internal/domain/cart"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustLine(t *testing.T, productID uuid.UUID, variant string, base, mod string, qty int) cart.LineItem {
	t.Helper()
	l, err := cart.NewLineItem(productID, variant, dec(base), dec(mod), qty)
	require.NoError(t, err)
	return l
}

func TestNewLineItem(t *testing.T) {
	productID := uuid.New()
	cases := []struct {
		name    string
		product uuid.UUID
		base    string
		mod     string
		qty     int
		errIs   error
	}{
		{name: "valid", product: productID, base: "50000", mod: "0", qty: 1},
		{name: "negative modifier within base", product: productID, base: "50000", mod: "-5000", qty: 1},
		{name: "zero quantity", product: productID, base: "50000", mod: "0", qty: 0, errIs: cart.ErrInvalidQuantity},
		{name: "negative quantity", product: productID, base: "50000", mod: "0", qty: -3, errIs: cart.ErrInvalidQuantity},
		{name: "quantity at maximum", product: productID, base: "50000", mod: "0", qty: cart.MaxQuantity},
		{name: "quantity above maximum", product: productID, base: "50000", mod: "0", qty: cart.MaxQuantity + 1, errIs: cart.ErrQuantityTooLarge},
		{name: "quantity near int overflow", product: productID, base: "100", mod: "0", qty: math.MaxInt, errIs: cart.ErrQuantityTooLarge},
		{name: "missing product", product: uuid.Nil, base: "50000", mod: "0", qty: 1, errIs: cart.ErrMissingProduct},
		{name: "negative base price", product: productID, base: "-1", mod: "0", qty: 1, errIs: cart.ErrNegativePrice},
		{name: "modifier below zero effective price", product: productID, base: "100", mod: "-101", qty: 1, errIs: cart.ErrNegativePrice},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := cart.NewLineItem(c.product, "", dec(c.base), dec(c.mod), c.qty)
			if c.errIs == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, c.errIs)
			}
		})
	}
}

func TestCart_AddLine(t *testing.T) {
	t.Run("merges same product and variant", func(t *testing.T) {
		c := cart.NewCart(uuid.New(), now)
		p := uuid.New()
		require.NoError(t, c.AddLine(mustLine(t, p, "blue", "20000", "2500", 1), now))
		require.NoError(t, c.AddLine(mustLine(t, p, "blue", "20000", "2500", 2), now))

		lines := c.Lines()
		require.Len(t, lines, 1)
		assert.Equal(t, 3, lines[0].Quantity())
		assert.True(t, c.Subtotal().Equal(dec("67500")))
	})

	t.Run("empty variant and default variant share a key", func(t *testing.T) {
		c := cart.NewCart(uuid.New(), now)
		p := uuid.New()
		require.NoError(t, c.AddLine(mustLine(t, p, "", "1000", "0", 1), now))
		require.NoError(t, c.AddLine(mustLine(t, p, cart.DefaultVariant, "1000", "0", 1), now))

		require.Len(t, c.Lines(), 1)
		assert.Equal(t, 2, c.Lines()[0].Quantity())
		assert.False(t, c.Lines()[0].HasVariant())
	})

	t.Run("merge past the line maximum is rejected and leaves the line intact", func(t *testing.T) {
		c := cart.NewCart(uuid.New(), now)
		p := uuid.New()
		require.NoError(t, c.AddLine(mustLine(t, p, "", "100", "0", cart.MaxQuantity), now))

		err := c.AddLine(mustLine(t, p, "", "100", "0", 1), now)

		require.ErrorIs(t, err, cart.ErrQuantityTooLarge)
		line, ok := c.Line(p, "")
		require.True(t, ok)
		assert.Equal(t, cart.MaxQuantity, line.Quantity())
		assert.True(t, c.Subtotal().Equal(dec("999900")))
	})

	t.Run("merge up to the line maximum is accepted", func(t *testing.T) {
		c := cart.NewCart(uuid.New(), now)
		p := uuid.New()
		require.NoError(t, c.AddLine(mustLine(t, p, "", "100", "0", cart.MaxQuantity-1), now))
		require.NoError(t, c.AddLine(mustLine(t, p, "", "100", "0", 1), now))

		assert.Equal(t, cart.MaxQuantity, c.Lines()[0].Quantity())
	})

	t.Run("different variants stay separate in insertion order", func(t *testing.T) {
		c := cart.NewCart(uuid.New(), now)
		p := uuid.New()
		require.NoError(t, c.AddLine(mustLine(t, p, "red", "1000", "0", 1), now))
		require.NoError(t, c.AddLine(mustLine(t, p, "green", "1000", "100", 1), now))

		lines := c.Lines()
		require.Len(t, lines, 2)
		assert.Equal(t, "red", lines[0].VariantID())
		assert.Equal(t, "green", lines[1].VariantID())
	})
}

func TestCart_SetQuantity(t *testing.T) {
	p := uuid.New()
	cases := []struct {
		name    string
		product uuid.UUID
		qty     int
		want    int
		errIs   error
	}{
		{name: "updates quantity", product: p, qty: 5, want: 5},
		{name: "clamps zero to one", product: p, qty: 0, want: 1},
		{name: "clamps negative to one", product: p, qty: -4, want: 1},
		{name: "clamps above maximum", product: p, qty: cart.MaxQuantity + 50, want: cart.MaxQuantity},
		{name: "clamps int overflow", product: p, qty: math.MaxInt, want: cart.MaxQuantity},
		{name: "missing line", product: uuid.New(), qty: 2, errIs: cart.ErrLineNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ct := cart.NewCart(uuid.New(), now)
			require.NoError(t, ct.AddLine(mustLine(t, p, "", "1000", "0", 3), now))

			err := ct.SetQuantity(c.product, "", c.qty, now)
			if c.errIs != nil {
				require.ErrorIs(t, err, c.errIs)
				return
			}
			require.NoError(t, err)
			line, ok := ct.Line(p, "")
			require.True(t, ok)
			assert.Equal(t, c.want, line.Quantity())
		})
	}
}

func TestCart_RemoveLineIsIdempotent(t *testing.T) {
	c := cart.NewCart(uuid.New(), now)
	p := uuid.New()
	require.NoError(t, c.AddLine(mustLine(t, p, "", "1000", "0", 1), now))

	c.RemoveLine(p, "", now)
	c.RemoveLine(p, "", now)

	assert.True(t, c.IsEmpty())
	assert.True(t, c.Subtotal().IsZero())
}

func TestCart_ClearResetsDiscounts(t *testing.T) {
	c := cart.NewCart(uuid.New(), now)
	require.NoError(t, c.AddLine(mustLine(t, uuid.New(), "", "1000", "0", 1), now))
	require.NoError(t, c.ApplyCoupon("SAVE10", now))
	require.NoError(t, c.SetDiscountPercent(dec("5"), now))

	c.Clear(now.Add(time.Minute))

	assert.True(t, c.IsEmpty())
	assert.Nil(t, c.CouponCode())
	assert.True(t, c.DiscountPercent().IsZero())
	assert.Equal(t, now.Add(time.Minute), c.UpdatedAt())
}

func TestCart_SetDiscountPercent(t *testing.T) {
	cases := []struct {
		pct   string
		errIs error
	}{
		{pct: "0"},
		{pct: "12.5"},
		{pct: "100"},
		{pct: "-1", errIs: cart.ErrInvalidDiscountPercent},
		{pct: "100.01", errIs: cart.ErrInvalidDiscountPercent},
	}
	for _, c := range cases {
		t.Run(c.pct, func(t *testing.T) {
			ct := cart.NewCart(uuid.New(), now)
			err := ct.SetDiscountPercent(dec(c.pct), now)
			if c.errIs != nil {
				require.ErrorIs(t, err, c.errIs)
				assert.True(t, ct.DiscountPercent().IsZero())
				return
			}
			require.NoError(t, err)
			assert.True(t, ct.DiscountPercent().Equal(dec(c.pct)))
		})
	}
}

func TestCart_SubtotalSumsEffectivePrices(t *testing.T) {
	c := cart.NewCart(uuid.New(), now)
	require.NoError(t, c.AddLine(mustLine(t, uuid.New(), "", "50000", "0", 2), now))
	require.NoError(t, c.AddLine(mustLine(t, uuid.New(), "large", "12000.50", "1500.25", 3), now))

	assert.True(t, c.Subtotal().Equal(dec("140502.25")), c.Subtotal().String())
	assert.True(t, c.Subtotal().Equal(cart.SubtotalOf(c.Lines())))
}

func TestCart_LinesAreCopies(t *testing.T) {
	c := cart.NewCart(uuid.New(), now)
	require.NoError(t, c.AddLine(mustLine(t, uuid.New(), "", "1000", "0", 1), now))

	lines := c.Lines()
	lines[0] = cart.LineItem{}

	assert.Equal(t, 1, c.Lines()[0].Quantity())
}
