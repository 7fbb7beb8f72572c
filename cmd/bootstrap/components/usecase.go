package components

import (
	"log/slog"

	"handicraft-store/internal/domain/pricing"
	"handicraft-store/internal/pkg/clock"
	"handicraft-store/internal/pkg/config"
	"handicraft-store/internal/pkg/errs"
	"handicraft-store/internal/usecase/commands"
	"handicraft-store/internal/usecase/queries"
	"handicraft-store/internal/usecase/shared"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	NewPricingPipeline,
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewCartQueries,
		queries.NewOrderQueries,
		queries.NewLoyaltyQueries,
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewCartUseCase,
		commands.NewCheckoutUseCase,
		NewOrderUseCase,
		commands.NewLoyaltyUseCase,
		commands.NewCatalogAdminUseCase,
	),
)

func NewPricingPipeline(cfg config.Config) (*pricing.Pipeline, error) {
	taxRate, err := decimal.NewFromString(cfg.Pricing.TaxRate)
	if err != nil {
		return nil, errs.Wrap(err, "invalid PRICING_TAX_RATE")
	}
	shippingFee, err := decimal.NewFromString(cfg.Pricing.ShippingFee)
	if err != nil {
		return nil, errs.Wrap(err, "invalid PRICING_SHIPPING_FEE")
	}
	return pricing.NewPipeline(pricing.Config{TaxRate: taxRate, ShippingFee: shippingFee})
}

func NewOrderUseCase(cfg config.Config, uow shared.UnitOfWork, clk clock.Clock, logger *slog.Logger) (commands.OrderCommands, error) {
	pointsUnit, err := decimal.NewFromString(cfg.Loyalty.PointsUnit)
	if err != nil {
		return nil, errs.Wrap(err, "invalid LOYALTY_POINTS_UNIT")
	}
	if !pointsUnit.IsPositive() {
		return nil, errs.New("LOYALTY_POINTS_UNIT must be positive")
	}
	return commands.NewOrderUseCase(uow, pointsUnit, clk, logger), nil
}
