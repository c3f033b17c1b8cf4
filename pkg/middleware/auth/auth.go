package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coin_shop/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

var ErrUnauthorized = errors.New("unauthorized")

// Refresher rotates a refresh token into a new token pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error)
}

// Middleware authenticates requests by the accessToken cookie. When the access
// token has expired and a Refresher is set, the refreshToken cookie is rotated
// transparently and both cookies are reissued.
type Middleware struct {
	JWTSecret []byte
	Refresher Refresher
}

func New(secret []byte, refresher Refresher) *Middleware {
	return &Middleware{JWTSecret: secret, Refresher: refresher}
}

type validatorFunc func(claims *tokens.AccessClaims) error

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *Middleware) requireAuthWithValidator(next echo.HandlerFunc, validator validatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accessCookie, err := c.Cookie(tokens.AccessCookie)
		if err != nil || accessCookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.JWTSecret)
		if err == nil {
			return m.admit(c, next, claims, validator)
		}

		if !errors.Is(err, jwt.ErrTokenExpired) || m.Refresher == nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		refreshCookie, rErr := c.Cookie(tokens.RefreshCookie)
		if rErr != nil || refreshCookie.Value == "" {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}

		pair, refErr := m.Refresher.Refresh(c.Request().Context(), refreshCookie.Value)
		if refErr != nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
		}
		SetAuthCookies(c, pair)

		newClaims, pErr := tokens.AccessClaimsFromToken(pair.AccessToken, m.JWTSecret)
		if pErr != nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
		}
		return m.admit(c, next, newClaims, validator)
	}
}

func (m *Middleware) admit(c echo.Context, next echo.HandlerFunc, claims *tokens.AccessClaims, validator validatorFunc) error {
	if claims.Subject == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
	}
	if validator != nil {
		if err := validator(claims); err != nil {
			return err
		}
	}
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxRole, claims.Role)
	return next(c)
}

func SetAuthCookies(c echo.Context, pair *tokens.Pair) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, pair.AccessToken, "/", pair.AccessExp))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, pair.RefreshToken, "/", pair.RefreshExp))
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
}

func ClearAuthCookies(c echo.Context) { clearAuthCookies(c) }

// UserID returns the authenticated user's id set by the middleware.
func UserID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get(CtxUserID).(string)
	if !ok || s == "" {
		return uuid.Nil, ErrUnauthorized
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}
	return id, nil
}

func IsAdmin(c echo.Context) bool {
	role, _ := c.Get(CtxRole).(string)
	return role == RoleAdmin
}
