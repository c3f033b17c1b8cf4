package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho() *echo.Echo {
	e := echo.New()
	cfg := DefaultConfig()
	cfg.SkipPrefixes = []string{"/health", "/api/v1/auth/login"}
	e.Use(Middleware(cfg))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/api/v1/cart", ok)
	e.POST("/api/v1/cart", ok)
	e.POST("/api/v1/auth/login", ok)
	e.GET("/health/live", ok)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	e := newEcho()

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)
	cookie := rec.Result().Cookies()[0]
	assert.Equal(t, "XSRF-TOKEN", cookie.Name)
	assert.Equal(t, token, cookie.Value)

	tests := []struct {
		name   string
		origin string
		header string
		code   int
	}{
		{name: "valid", origin: "http://example.com", header: token, code: http.StatusOK},
		{name: "missing header", origin: "http://example.com", code: http.StatusBadRequest},
		{name: "wrong header", origin: "http://example.com", header: "nope", code: http.StatusForbidden},
		{name: "foreign origin", origin: "http://evil.test", header: token, code: http.StatusForbidden},
		{name: "no origin", header: token, code: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/cart", nil)
			req.AddCookie(cookie)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.header != "" {
				req.Header.Set("X-CSRF-Token", tt.header)
			}
			assert.Equal(t, tt.code, serve(e, req).Code)
		})
	}
}

func TestMiddleware_SkipPrefixes(t *testing.T) {
	t.Parallel()
	e := newEcho()

	assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)).Code)
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}
