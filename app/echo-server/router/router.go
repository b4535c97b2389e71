package router

import (
	"myTrendyMart/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupPricingRoutes(api *echo.Group, handler *rest.DiscountHandler) {
	pricing := api.Group("/pricing")
	pricing.POST("/resolve", handler.Resolve)
	pricing.POST("/commit", handler.Commit)
}

func SetupCartRoutes(api *echo.Group, handler *rest.CartHandler) {
	carts := api.Group("/carts")
	carts.POST("/activity", handler.Touch)
}

func SetupRecoveryRoutes(api *echo.Group, handler *rest.RecoveryHandler) {
	recovery := api.Group("/recovery")
	recovery.POST("/sweep", handler.Sweep)
	recovery.POST("/order-placed", handler.OrderPlaced)
}

func SetupCouponAdminRoutes(api *echo.Group, handler *rest.CouponAdminHandler) {
	admin := api.Group("/admin/coupons")
	admin.GET("", handler.List)
	admin.GET("/:code", handler.GetByCode)
	admin.POST("", handler.Create)
	admin.PUT("/:id", handler.Update)
	admin.DELETE("/:id", handler.Delete)
}

func SetupRuleAdminRoutes(api *echo.Group, handler *rest.RuleAdminHandler) {
	admin := api.Group("/admin/rules")
	admin.GET("", handler.List)
	admin.POST("", handler.Create)
	admin.PUT("/:id", handler.Update)
	admin.DELETE("/:id", handler.Delete)
}

func SetupMetricsRoute(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
