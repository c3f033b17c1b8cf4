package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coin_shop/internal/service"
	"github.com/Skotchmaster/coin_shop/internal/transport"
	"github.com/Skotchmaster/coin_shop/pkg/logging"
	"github.com/Skotchmaster/coin_shop/pkg/middleware/auth"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	userID, err := currentUser(l, c, "create_order_error")
	if err != nil {
		return err
	}
	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_error", "invalid body", err)
	}

	order, err := h.Svc.CreateOrder(ctx, req, userID)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", order.ID, "status", order.Status)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	userID, err := currentUser(l, c, "checkout_error")
	if err != nil {
		return err
	}
	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "checkout_error", "invalid body", err)
	}

	order, err := h.Svc.Checkout(ctx, req, userID)
	if err != nil {
		return fail(l, "checkout_error", err)
	}

	l.Info("checkout_success", "order_id", order.ID, "status", order.Status)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	userID, err := currentUser(l, c, "get_order_error")
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_order_error", "id is not a uuid", err)
	}

	order, err := h.Svc.GetOrder(ctx, userID, id, auth.IsAdmin(c))
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userID, err := currentUser(l, c, "list_orders_error")
	if err != nil {
		return err
	}
	pageNum, offset, limit := page(c)

	total, items, err := h.Svc.ListOrders(ctx, userID, offset, limit)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return paged(c, pageNum, offset, limit, total, items)
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	userID, err := currentUser(l, c, "cancel_order_error")
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "cancel_order_error", "id is not a uuid", err)
	}

	order, err := h.Svc.CancelOrder(ctx, userID, id)
	if err != nil {
		return fail(l, "cancel_order_error", err)
	}

	l.Info("cancel_order_success", "order_id", id)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListAllOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_all")

	pageNum, offset, limit := page(c)
	total, items, err := h.Svc.ListAllOrders(ctx, c.QueryParam("status"), offset, limit)
	if err != nil {
		return fail(l, "list_all_orders_error", err)
	}
	return paged(c, pageNum, offset, limit, total, items)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_status_error", "id is not a uuid", err)
	}
	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_status_error", "invalid body", err)
	}

	order, err := h.Svc.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return fail(l, "update_status_error", err)
	}

	l.Info("update_status_success", "order_id", id, "status", order.Status)
	return c.JSON(http.StatusOK, order)
}
