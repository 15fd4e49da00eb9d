package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/handler"
	"github.com/interatlas/management-system/internal/middleware"
)

func newEcho() *echo.Echo {
	log := zap.NewNop().Sugar()
	e := echo.New()
	pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	RegisterRoutes(e, func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	RegisterAPI(e, Handlers{
		Accounts: handler.NewAccountHandler(nil, log),
		Work:     handler.NewWorkHandler(nil, nil, nil, nil, log),
		Catalog:  handler.NewCatalogHandler(nil, log),
		Reports:  handler.NewReportHandler(nil, log),
	}, Guards{
		Auth:        middleware.JWTAuth("secret", nil),
		RateLimit:   pass,
		DefaultLang: "lt",
	})
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newEcho()
	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /metrics",
		"POST /api/:lang/auth/login",
		"GET /api/:lang/auth/verify-email/:token",
		"POST /api/:lang/tasks/:id/complete",
		"POST /api/:lang/replacements",
		"POST /api/:lang/services",
		"PUT /api/:lang/parts/:number/stock",
		"DELETE /api/:lang/visits/:id",
		"POST /api/:lang/users/invite",
	} {
		assert.True(t, got[want], want)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := newEcho()
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/en/tasks"},
		{http.MethodPost, "/api/en/clients"},
		{http.MethodDelete, "/api/lt/visits/3"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(r.method, r.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.path)
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
