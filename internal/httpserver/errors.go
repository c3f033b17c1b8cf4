package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coin_shop/internal/service"
	"github.com/Skotchmaster/coin_shop/internal/util"
	"github.com/Skotchmaster/coin_shop/pkg/middleware/auth"
)

var statusByErr = []struct {
	err  error
	code int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrInsufficientCoins, http.StatusConflict},
	{service.ErrOutOfStock, http.StatusConflict},
	{service.ErrInvalidTransition, http.StatusConflict},
	{service.ErrCampaignInactive, http.StatusConflict},
	{service.ErrBudgetExhausted, http.StatusConflict},
	{service.ErrRateLimited, http.StatusTooManyRequests},
	{service.ErrSpinCooldown, http.StatusTooManyRequests},
}

func statusOf(err error) int {
	for _, s := range statusByErr {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return http.StatusInternalServerError
}

// fail logs err under event and turns it into an HTTP error. Client errors
// carry the service message, server errors a generic one.
func fail(l *slog.Logger, event string, err error) error {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
		return echo.NewHTTPError(code, "internal error")
	}
	l.Warn(event, "status", code, "error", err)
	return echo.NewHTTPError(code, err.Error())
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

func paramID(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

func currentUser(l *slog.Logger, c echo.Context, event string) (uuid.UUID, error) {
	id, err := auth.UserID(c)
	if err != nil {
		l.Warn(event, "status", http.StatusUnauthorized, "reason", "no user in context")
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

func page(c echo.Context) (pageNum, offset, limit int) {
	pageNum = util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit = util.Calculate(pageNum, size)
	return offset/limit + 1, offset, limit
}

func metaFor(pageNum, offset, limit int, total int64) util.Meta {
	return util.NewMeta(pageNum, offset, limit, total)
}

func paged(c echo.Context, pageNum, offset, limit int, total int64, data any) error {
	return c.JSON(http.StatusOK, map[string]any{
		"data": data,
		"meta": metaFor(pageNum, offset, limit, total),
	})
}
