package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/internal/service"
	"github.com/Skotchmaster/coin_shop/internal/transport"
	"github.com/Skotchmaster/coin_shop/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := currentUser(l, c, "get_cart_error")
	if err != nil {
		return err
	}

	view, err := h.Svc.View(ctx, userID)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := currentUser(l, c, "add_to_cart_error")
	if err != nil {
		return err
	}
	var req transport.CartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart_error", "invalid body", err)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item := &models.CartItem{UserID: userID, ProductID: req.ProductID, Quantity: req.Quantity}
	if err := h.Svc.AddToCart(ctx, item); err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "product_id", req.ProductID)
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) DeleteOneFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.delete_one")

	userID, err := currentUser(l, c, "delete_one_error")
	if err != nil {
		return err
	}
	productID, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_one_error", "id is not a uuid", err)
	}

	deleted, item, err := h.Svc.DeleteOneFromCart(ctx, productID, userID)
	if err != nil {
		return fail(l, "delete_one_error", err)
	}

	l.Info("delete_one_success", "product_id", productID, "deleted", deleted)
	if deleted {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) DeleteAllFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := currentUser(l, c, "clear_cart_error")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteAllFromCart(ctx, userID); err != nil {
		return fail(l, "clear_cart_error", err)
	}

	l.Info("clear_cart_success")
	return c.NoContent(http.StatusNoContent)
}
