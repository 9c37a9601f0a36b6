package middleware

import (
	"law_case_engine/services"

	"github.com/labstack/echo/v4"
)

const ContextKeyAuditContext = "audit_context"

// AuditContext captures the caller and request origin for audit logging. It runs after
// RequireScope and forwards the details to services through the request context.
func AuditContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actx := services.AuditContext{
				UserID:    GetUserID(c),
				Scope:     GetScope(c),
				IPAddress: c.RealIP(),
				UserAgent: c.Request().UserAgent(),
			}

			c.Set(ContextKeyAuditContext, actx)
			c.SetRequest(c.Request().WithContext(services.WithAuditContext(c.Request().Context(), actx)))
			return next(c)
		}
	}
}

// GetAuditContext retrieves the audit context from the request
func GetAuditContext(c echo.Context) services.AuditContext {
	if actx, ok := c.Get(ContextKeyAuditContext).(services.AuditContext); ok {
		return actx
	}
	return services.AuditContext{}
}
