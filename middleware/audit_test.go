package middleware

import (
	"law_case_engine/services"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestAuditContext(t *testing.T) {
	e := echo.New()

	t.Run("FullContext", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cases", nil)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set(HeaderOwnerUID, "owner-1")
		req.Header.Set(HeaderOrganizationID, "org-1")
		req.Header.Set(HeaderUserID, "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		var fromRequest services.AuditContext
		handler := RequireScope()(AuditContext()(func(c echo.Context) error {
			fromRequest = services.AuditContextFrom(c.Request().Context())
			return c.NoContent(http.StatusOK)
		}))

		assert.NoError(t, handler(c))

		auditCtx := GetAuditContext(c)
		assert.Equal(t, "user-123", auditCtx.UserID)
		assert.Equal(t, services.Scope{OwnerUID: "owner-1", OrganizationID: "org-1"}, auditCtx.Scope)
		assert.Equal(t, "test-agent", auditCtx.UserAgent)
		assert.NotEmpty(t, auditCtx.IPAddress)
		assert.Equal(t, auditCtx, fromRequest)
	})

	t.Run("NoIdentity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := AuditContext()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})

		assert.NoError(t, handler(c))

		auditCtx := GetAuditContext(c)
		assert.Empty(t, auditCtx.UserID)
		assert.False(t, auditCtx.Scope.Valid())
	})
}

func TestGetAuditContextMissing(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, services.AuditContext{}, GetAuditContext(c))
}
