package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coin_shop/internal/service"
	"github.com/Skotchmaster/coin_shop/internal/transport"
	"github.com/Skotchmaster/coin_shop/pkg/logging"
)

type CoinsHTTP struct {
	Svc *service.CoinService
}

func (h *CoinsHTTP) Balance(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coins.balance")

	userID, err := currentUser(l, c, "balance_error")
	if err != nil {
		return err
	}
	reward, err := h.Svc.Balance(ctx, userID)
	if err != nil {
		return fail(l, "balance_error", err)
	}
	return c.JSON(http.StatusOK, reward)
}

func (h *CoinsHTTP) History(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coins.history")

	userID, err := currentUser(l, c, "history_error")
	if err != nil {
		return err
	}
	pageNum, offset, limit := page(c)

	total, items, err := h.Svc.History(ctx, userID, c.QueryParam("type"), offset, limit)
	if err != nil {
		return fail(l, "history_error", err)
	}
	return paged(c, pageNum, offset, limit, total, items)
}

func (h *CoinsHTTP) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coins.summary")

	userID, err := currentUser(l, c, "summary_error")
	if err != nil {
		return err
	}
	sum, err := h.Svc.Summary(ctx, userID)
	if err != nil {
		return fail(l, "summary_error", err)
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *CoinsHTTP) Adjust(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coins.adjust")

	var req transport.AdjustCoinsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "adjust_error", "invalid body", err)
	}

	tx, err := h.Svc.Adjust(ctx, req)
	if err != nil {
		return fail(l, "adjust_error", err)
	}

	l.Info("adjust_success", "user_id", req.UserID, "delta", req.Delta)
	return c.JSON(http.StatusOK, tx)
}
