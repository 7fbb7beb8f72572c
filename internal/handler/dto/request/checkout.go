package request

import (
	"handicraft-store/internal/domain/order"
	"handicraft-store/internal/usecase/commands"
)

type AddressRequest struct {
	Recipient  string `json:"recipient" binding:"required,max=200"`
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,max=100"`
	Region     string `json:"region" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Country    string `json:"country" binding:"required,max=100"`
}

type CheckoutRequest struct {
	ShippingAddress AddressRequest `json:"shipping_address" binding:"required"`
	PaymentMethod   string         `json:"payment_method" binding:"required,max=50"`
}

func (r *CheckoutRequest) ToCommand() commands.CheckoutRequest {
	a := r.ShippingAddress
	return commands.CheckoutRequest{
		ShippingAddress: order.Address{
			Recipient:  a.Recipient,
			Line1:      a.Line1,
			Line2:      a.Line2,
			City:       a.City,
			Region:     a.Region,
			PostalCode: a.PostalCode,
			Country:    a.Country,
		},
		PaymentMethod: r.PaymentMethod,
	}
}
