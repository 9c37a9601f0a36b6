package handlers

import (
	"law_case_engine/middleware"
	"law_case_engine/services"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// RegisterRoutes mounts the health, metrics and case routes. limiter may be nil.
func RegisterRoutes(e *echo.Echo, database *gorm.DB, service *services.CaseService, limiter *middleware.RateLimiter) {
	e.GET("/healthz", HealthHandler(database))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	guards := []echo.MiddlewareFunc{middleware.RequireScope(), middleware.AuditContext()}
	if limiter != nil {
		guards = append(guards, limiter.Middleware())
	}
	NewCaseHandler(service).RegisterRoutes(e.Group("/cases", guards...))
}
