//go:build unit || e2e

package builder

import (
	"time"

	"handicraft-store/internal/domain/cart"
	"handicraft-store/internal/domain/order"
	"handicraft-store/internal/domain/pricing"
	reqdto "handicraft-store/internal/handler/dto/request"
	"handicraft-store/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LineSpec struct {
	ProductID       uuid.UUID
	VariantID       string
	UnitBasePrice   decimal.Decimal
	VariantModifier decimal.Decimal
	Quantity        int
}

type OrderBuilder struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Lines         []LineSpec
	Address       order.Address
	PaymentMethod order.PaymentMethod
	Status        order.Status
	TaxRate       decimal.Decimal
	ShippingFee   decimal.Decimal
	Now           time.Time
}

func NewOrderBuilder() *OrderBuilder {
	return &OrderBuilder{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Lines: []LineSpec{{
			ProductID:     uuid.New(),
			UnitBasePrice: decimal.NewFromInt(50000),
			Quantity:      2,
		}},
		Address: order.Address{
			Recipient: "Ana Torres",
			Line1:     "Calle 10 # 4-21",
			City:      "Villa de Leyva",
			Country:   "CO",
		},
		PaymentMethod: order.PaymentCard,
		Status:        order.StatusPending,
		TaxRate:       decimal.RequireFromString("0.19"),
		ShippingFee:   decimal.NewFromInt(15000),
		Now:           time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (b *OrderBuilder) With(mutate func(*OrderBuilder)) *OrderBuilder {
	mutate(b)
	return b
}

func (b *OrderBuilder) BuildCart() (*cart.Cart, error) {
	c := cart.NewCart(b.UserID, b.Now)
	for _, l := range b.Lines {
		item, err := cart.NewLineItem(l.ProductID, l.VariantID, l.UnitBasePrice, l.VariantModifier, l.Quantity)
		if err != nil {
			return nil, err
		}
		if err := c.AddLine(item, b.Now); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BuildDomain checks out a cart built from Lines and walks the order forward
// to Status.
func (b *OrderBuilder) BuildDomain() (*order.Order, error) {
	c, err := b.BuildCart()
	if err != nil {
		return nil, err
	}
	p, err := pricing.NewPipeline(pricing.Config{TaxRate: b.TaxRate, ShippingFee: b.ShippingFee})
	if err != nil {
		return nil, err
	}
	q := p.Price(pricing.Input{Lines: c.Lines(), Now: b.Now})
	o, err := order.Create(b.ID, c, q.Result, nil, b.Address, b.PaymentMethod, b.Now)
	if err != nil {
		return nil, err
	}
	if b.Status == order.StatusCancelled {
		return o, o.Cancel(b.Now)
	}
	for _, next := range []order.Status{order.StatusProcessing, order.StatusShipped, order.StatusDelivered} {
		if o.Status() == b.Status {
			break
		}
		if err := o.Advance(next, b.Now); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (b *OrderBuilder) MustBuild() *order.Order {
	o, err := b.BuildDomain()
	if err != nil {
		panic(err)
	}
	return o
}

func (b *OrderBuilder) BuildView() *queries.OrderView {
	return queries.ToOrderView(b.MustBuild())
}

func (b *OrderBuilder) BuildCartView() *queries.CartView {
	c, err := b.BuildCart()
	if err != nil {
		panic(err)
	}
	return queries.ToCartView(c)
}

func (b *OrderBuilder) BuildCheckoutRequestDTO() reqdto.CheckoutRequest {
	return reqdto.CheckoutRequest{
		ShippingAddress: reqdto.AddressRequest{
			Recipient:  b.Address.Recipient,
			Line1:      b.Address.Line1,
			Line2:      b.Address.Line2,
			City:       b.Address.City,
			Region:     b.Address.Region,
			PostalCode: b.Address.PostalCode,
			Country:    b.Address.Country,
		},
		PaymentMethod: string(b.PaymentMethod),
	}
}
