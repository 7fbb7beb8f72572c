package components

import (
	"handicraft-store/internal/handler"
	"handicraft-store/internal/handler/api"
	"handicraft-store/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewCartHandler,
		api.NewOrderHandler,
		api.NewLoyaltyHandler,
		api.NewAdminHandler,
		NewHandlers,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)

func NewHandlers(cart *api.CartHandler, order *api.OrderHandler, loyalty *api.LoyaltyHandler, admin *api.AdminHandler) handler.Handlers {
	return handler.Handlers{
		Cart:    cart,
		Order:   order,
		Loyalty: loyalty,
		Admin:   admin,
	}
}
