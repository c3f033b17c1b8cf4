package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coin_shop/internal/service"
	"github.com/Skotchmaster/coin_shop/pkg/logging"
)

type WheelHTTP struct {
	Svc *service.WheelService
}

func (h *WheelHTTP) Status(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wheel.status")

	userID, err := currentUser(l, c, "wheel_status_error")
	if err != nil {
		return err
	}
	view, err := h.Svc.Status(ctx, userID)
	if err != nil {
		return fail(l, "wheel_status_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *WheelHTTP) Spin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wheel.spin")

	userID, err := currentUser(l, c, "spin_error")
	if err != nil {
		return err
	}
	res, err := h.Svc.Spin(ctx, userID)
	if err != nil {
		return fail(l, "spin_error", err)
	}

	l.Info("spin_success", "segment", res.Segment, "coins", res.Coins)
	return c.JSON(http.StatusOK, res)
}
