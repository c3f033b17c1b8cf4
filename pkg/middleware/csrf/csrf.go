// Package csrf protects cookie authenticated APIs with a double submit token
// and an origin check.
package csrf

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const ContextKey = "csrf_token"

type Config struct {
	CookieName string
	HeaderName string
	MaxAge     time.Duration
	Secure     bool

	// EnforceSameOrigin rejects unsafe requests whose Origin or Referer host
	// differs from the request host.
	EnforceSameOrigin bool
	// SkipPrefixes lists path prefixes served without a token.
	SkipPrefixes []string
}

func DefaultConfig() Config {
	return Config{
		CookieName:        "XSRF-TOKEN",
		HeaderName:        "X-CSRF-Token",
		MaxAge:            24 * time.Hour,
		EnforceSameOrigin: true,
	}
}

// Middleware issues the token cookie on every request, echoes it in
// HeaderName on safe methods and requires it back in HeaderName on unsafe
// ones.
func Middleware(cfg Config) echo.MiddlewareFunc {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	skip := func(c echo.Context) bool {
		path := c.Request().URL.Path
		for _, p := range cfg.SkipPrefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}

	tokens := echomw.CSRFWithConfig(echomw.CSRFConfig{
		Skipper:        skip,
		TokenLookup:    "header:" + cfg.HeaderName,
		ContextKey:     ContextKey,
		CookieName:     cfg.CookieName,
		CookiePath:     "/",
		CookieMaxAge:   int(cfg.MaxAge.Seconds()),
		CookieSecure:   cfg.Secure,
		CookieSameSite: http.SameSiteLaxMode,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		h := tokens(func(c echo.Context) error {
			if t, ok := c.Get(ContextKey).(string); ok && safe(c.Request().Method) {
				c.Response().Header().Set(cfg.HeaderName, t)
			}
			return next(c)
		})
		return func(c echo.Context) error {
			if skip(c) {
				return next(c)
			}
			if cfg.EnforceSameOrigin && !safe(c.Request().Method) && !sameOrigin(c.Request()) {
				return echo.NewHTTPError(http.StatusForbidden, "invalid origin")
			}
			return h(c)
		}
	}
}

func safe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
