package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coin_shop/internal/repo"
	"github.com/Skotchmaster/coin_shop/internal/service"
	"github.com/Skotchmaster/coin_shop/internal/transport"
	"github.com/Skotchmaster/coin_shop/pkg/logging"
	"github.com/Skotchmaster/coin_shop/pkg/middleware/auth"
)

type ProductHTTP struct {
	Svc *service.CatalogService
}

func (h *ProductHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_product_failed", "id is not a uuid", err)
	}

	product, err := h.Svc.GetProduct(ctx, id, auth.IsAdmin(c))
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, h.Svc.View(product))
}

// GetProducts lists the storefront. Admin routes pass all=true to include
// inactive products.
func (h *ProductHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	pageNum, offset, limit := page(c)
	filter := repo.ProductFilter{
		Category:   c.QueryParam("category"),
		ActiveOnly: !(auth.IsAdmin(c) && c.QueryParam("all") == "true"),
	}

	total, items, err := h.Svc.GetProducts(ctx, filter, offset, limit)
	if err != nil {
		return fail(l, "get_products_error", err)
	}

	l.Info("get_products_success", "total", total)
	return paged(c, pageNum, offset, limit, total, h.Svc.Views(items))
}

func (h *ProductHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	pageNum, offset, limit := page(c)
	total, items, source, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search_error", err)
	}

	l.Info("search_success", "source", source, "total", total)
	return c.JSON(http.StatusOK, map[string]any{
		"data":   h.Svc.Views(items),
		"meta":   metaFor(pageNum, offset, limit, total),
		"source": source,
	})
}

func (h *ProductHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_create_error", "invalid body", err)
	}

	prod, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(l, "product_create_error", err)
	}

	l.Info("create_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusCreated, h.Svc.View(prod))
}

func (h *ProductHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "product_patch_error", "id is not a uuid", err)
	}
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_patch_error", "invalid body", err)
	}

	prod, err := h.Svc.PatchProduct(ctx, req, id)
	if err != nil {
		return fail(l, "product_patch_error", err)
	}

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, h.Svc.View(prod))
}

func (h *ProductHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "product_delete_error", "id is not a uuid", err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "product_delete_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHTTP) Reindex(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.reindex")

	n, err := h.Svc.Reindex(ctx)
	if err != nil {
		l.Error("reindex_failed", "status", 503, "indexed", n, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "reindex failed")
	}

	l.Info("reindex_success", "indexed", n)
	return c.JSON(http.StatusOK, echo.Map{"indexed": n})
}
