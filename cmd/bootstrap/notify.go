package bootstrap

import (
	"context"
	"log/slog"

	"handicraft-store/internal/infra/notify"
	"handicraft-store/internal/pkg/clock"
	"handicraft-store/internal/pkg/config"
	"handicraft-store/internal/usecase/shared"

	"go.uber.org/fx"
)

var NotifyModule = fx.Module("notify",
	fx.Provide(
		NewPublisher,
		NewOutboxPoller,
	),
	fx.Invoke(func(*notify.OutboxPoller) {}),
)

func NewPublisher(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) notify.Publisher {
	var publisher notify.Publisher
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("no kafka brokers configured, notifications are logged only")
		publisher = notify.NewLogPublisher(logger)
	} else {
		publisher = notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})
	return publisher
}

func NewOutboxPoller(lc fx.Lifecycle, cfg config.Config, uow shared.UnitOfWork, publisher notify.Publisher, clk clock.Clock, logger *slog.Logger) *notify.OutboxPoller {
	poller := notify.NewOutboxPoller(uow, publisher, clk, logger, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			poller.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			poller.Stop()
			return nil
		},
	})
	return poller
}
