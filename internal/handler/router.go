package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"handicraft-store/internal/domain/user"
	"handicraft-store/internal/handler/api"
	"handicraft-store/internal/handler/middleware"
	"handicraft-store/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Cart    *api.CartHandler
	Order   *api.OrderHandler
	Loyalty *api.LoyaltyHandler
	Admin   *api.AdminHandler
}

func NewRouter(engine *gin.Engine, cfg config.Config, logger *slog.Logger, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, h, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *slog.Logger) {
	// request logger sits outside recovery so panics still get a log line with their id
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.Recovery(logger))
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS, logger))
	engine.Use(middleware.ErrorHandler())

	engine.HandleMethodNotAllowed = true
	engine.NoRoute(middleware.NotFound)
	engine.NoMethod(middleware.MethodNotAllowed)
}

func setupRoutes(engine *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	apiGroup.Use(authMiddleware.RequireAuth())
	{
		cart := apiGroup.Group("/cart")
		addRoutes(cart, []route{
			{Method: http.MethodGet, Path: "", Handler: h.Cart.Get},
			{Method: http.MethodDelete, Path: "", Handler: h.Cart.Clear},
			{Method: http.MethodPost, Path: "/lines", Handler: h.Cart.AddLine},
			{Method: http.MethodPut, Path: "/lines/:productId", Handler: h.Cart.SetQuantity},
			{Method: http.MethodDelete, Path: "/lines/:productId", Handler: h.Cart.RemoveLine},
			{Method: http.MethodPut, Path: "/coupon", Handler: h.Cart.ApplyCoupon},
			{Method: http.MethodDelete, Path: "/coupon", Handler: h.Cart.RemoveCoupon},
			{Method: http.MethodPut, Path: "/discount", Handler: h.Cart.SetDiscount},
			{Method: http.MethodGet, Path: "/quote", Handler: h.Cart.Quote},
		})

		addRoutes(apiGroup, []route{
			{Method: http.MethodPost, Path: "/checkout", Handler: h.Order.Checkout},
		})

		orders := apiGroup.Group("/orders")
		addRoutes(orders, []route{
			{Method: http.MethodGet, Path: "", Handler: h.Order.List},
			{Method: http.MethodGet, Path: "/:id", Handler: h.Order.Get},
			{Method: http.MethodPost, Path: "/:id/cancel", Handler: h.Order.Cancel},
		})

		loyalty := apiGroup.Group("/loyalty")
		addRoutes(loyalty, []route{
			{Method: http.MethodGet, Path: "", Handler: h.Loyalty.Account},
			{Method: http.MethodGet, Path: "/history", Handler: h.Loyalty.History},
			{Method: http.MethodGet, Path: "/rewards", Handler: h.Loyalty.Rewards},
			{Method: http.MethodPost, Path: "/rewards/:id/redeem", Handler: h.Loyalty.Redeem},
		})

		adminOnly := []gin.HandlerFunc{authMiddleware.RequireRole(user.RoleAdmin)}
		admin := apiGroup.Group("/admin")
		addRoutes(admin, []route{
			{Method: http.MethodPut, Path: "/orders/:id/status", Handler: h.Order.Advance, Mw: adminOnly},
			{Method: http.MethodGet, Path: "/orders/stats", Handler: h.Order.Stats, Mw: adminOnly},
			{Method: http.MethodPost, Path: "/coupons", Handler: h.Admin.CreateCoupon, Mw: adminOnly},
			{Method: http.MethodPost, Path: "/rewards", Handler: h.Admin.CreateReward, Mw: adminOnly},
		})
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
