package middleware

import (
	"law_case_engine/services"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Identity headers set by the upstream auth gateway
const (
	HeaderOwnerUID       = "X-Owner-Uid"
	HeaderOrganizationID = "X-Organization-Id"
	HeaderUserID         = "X-User-Id"
)

const (
	// ContextKeyScope is the context key for the caller's tenant scope
	ContextKeyScope = "scope"
	// ContextKeyUserID is the context key for the acting user id
	ContextKeyUserID = "user_id"
)

// RequireScope resolves the caller's identity from the gateway headers. Requests missing
// any of the three are rejected before reaching a handler.
func RequireScope() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header
			scope := services.Scope{
				OwnerUID:       strings.TrimSpace(header.Get(HeaderOwnerUID)),
				OrganizationID: strings.TrimSpace(header.Get(HeaderOrganizationID)),
			}
			userID := strings.TrimSpace(header.Get(HeaderUserID))

			if !scope.Valid() || userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing caller identity")
			}

			c.Set(ContextKeyScope, scope)
			c.Set(ContextKeyUserID, userID)
			return next(c)
		}
	}
}

// GetScope retrieves the caller's scope from context. The zero Scope matches nothing.
func GetScope(c echo.Context) services.Scope {
	scope, ok := c.Get(ContextKeyScope).(services.Scope)
	if !ok {
		return services.Scope{}
	}
	return scope
}

// GetUserID retrieves the acting user id from context
func GetUserID(c echo.Context) string {
	userID, _ := c.Get(ContextKeyUserID).(string)
	return userID
}
