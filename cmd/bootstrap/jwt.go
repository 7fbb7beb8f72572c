package bootstrap

import (
	"time"

	"handicraft-store/internal/handler/middleware"
	"handicraft-store/internal/pkg/clock"
	"handicraft-store/internal/pkg/config"
	"handicraft-store/internal/pkg/errs"
	"handicraft-store/internal/pkg/jwt"

	"go.uber.org/fx"
)

var JWTModule = fx.Module("jwt",
	fx.Provide(
		NewJWTService,
		func(s *jwt.Service) middleware.TokenValidator { return s },
	),
)

func NewJWTService(cfg config.Config, clk clock.Clock) (*jwt.Service, error) {
	duration, err := time.ParseDuration(cfg.JWT.Duration)
	if err != nil {
		return nil, errs.Wrap(err, "invalid JWT_DURATION")
	}
	return jwt.NewService(cfg.JWT.Secret, duration, clk), nil
}
