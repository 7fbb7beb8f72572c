package bootstrap

import (
	"log/slog"

	"handicraft-store/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
	),
	fx.Invoke(logEffectiveConfig),
)

// logEffectiveConfig records which backends this process runs against.
// Secrets and connection strings are never logged.
func logEffectiveConfig(cfg config.Config, logger *slog.Logger) {
	logger.Info("configuration loaded",
		"store", cfg.Store.Driver,
		"migrate", cfg.Store.Migrate,
		"cart_cache", cfg.Redis.Addr != "",
		"kafka_brokers", len(cfg.Kafka.Brokers),
		"tax_rate", cfg.Pricing.TaxRate,
		"shipping_fee", cfg.Pricing.ShippingFee,
		"points_unit", cfg.Loyalty.PointsUnit,
	)
}
