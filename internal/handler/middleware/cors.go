package middleware

import (
	"log/slog"
	"slices"

	"handicraft-store/internal/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewCORSMiddleware always exposes the request id header. Credentials are
// dropped when origins are wildcarded since browsers reject that pairing.
func NewCORSMiddleware(cfg config.CORSConfig, logger *slog.Logger) gin.HandlerFunc {
	expose := slices.Clone(cfg.ExposeHeaders)
	if !slices.Contains(expose, RequestIDHeader) {
		expose = append(expose, RequestIDHeader)
	}

	allowCredentials := cfg.AllowCredentials
	if allowCredentials && slices.Contains(cfg.AllowOrigins, "*") {
		logger.Warn("CORS credentials disabled for wildcard origin")
		allowCredentials = false
	}

	logger.Info("CORS middleware initialized", "allow_origins", cfg.AllowOrigins)
	return cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    expose,
		AllowCredentials: allowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}
