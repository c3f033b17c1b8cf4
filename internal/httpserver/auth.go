package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coin_shop/internal/service"
	"github.com/Skotchmaster/coin_shop/internal/transport"
	"github.com/Skotchmaster/coin_shop/pkg/logging"
	"github.com/Skotchmaster/coin_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/coin_shop/pkg/tokens"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.Credentials
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body", err)
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.Credentials
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}

	pair, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	auth.SetAuthCookies(c, pair)
	l.Info("login_success")
	return c.JSON(http.StatusOK, echo.Map{
		"is_admin": pair.Role == auth.RoleAdmin,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	cookie, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || cookie.Value == "" {
		l.Warn("refresh_error", "status", http.StatusUnauthorized, "reason", "refresh token missing")
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	pair, err := h.Svc.Refresh(ctx, cookie.Value)
	if err != nil {
		auth.ClearAuthCookies(c)
		return fail(l, "refresh_error", err)
	}

	auth.SetAuthCookies(c, pair)
	l.Info("refresh_success")
	return c.JSON(http.StatusOK, echo.Map{
		"is_admin": pair.Role == auth.RoleAdmin,
	})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var token string
	if cookie, err := c.Cookie(tokens.RefreshCookie); err == nil {
		token = cookie.Value
	}
	auth.ClearAuthCookies(c)

	if err := h.Svc.LogOut(ctx, token); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot revoke refresh token")
	}

	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	userID, err := currentUser(l, c, "me_error")
	if err != nil {
		return err
	}
	user, err := h.Svc.Me(ctx, userID)
	if err != nil {
		return fail(l, "me_error", err)
	}
	return c.JSON(http.StatusOK, user)
}
