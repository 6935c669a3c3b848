package router

import (
	"rateview/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetExposureRoutes(e *echo.Echo, handler *rest.ExposureHandler) {
	exposure := e.Group("/exposure")

	exposure.GET("", handler.GetExposure)
	exposure.POST("/refresh", handler.Refresh)
	exposure.DELETE("/cache", handler.ClearCache)
}

func SetScoringRoutes(e *echo.Echo, handler *rest.ScoringHandler, internalOnly echo.MiddlewareFunc) {
	internal := e.Group("/internal/scoring", internalOnly)

	internal.POST("/run", handler.Run)
	internal.GET("/rankings", handler.Rankings)
}

func SetEngagementRoutes(e *echo.Echo, handler *rest.EngagementHandler) {
	events := e.Group("/events")

	events.POST("", handler.Ingest)
	events.GET("/products/:id", handler.ProductEngagement)
	events.GET("/customers/:id", handler.CustomerEngagement)
}
