package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coin_shop/internal/service"
	"github.com/Skotchmaster/coin_shop/internal/transport"
	"github.com/Skotchmaster/coin_shop/pkg/logging"
)

type CampaignHTTP struct {
	Svc *service.CampaignService
}

func (h *CampaignHTTP) ListActive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "campaign.list_active")

	items, err := h.Svc.ListActive(ctx)
	if err != nil {
		return fail(l, "list_active_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *CampaignHTTP) RecordView(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "campaign.view")

	userID, err := currentUser(l, c, "view_error")
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "view_error", "id is not a uuid", err)
	}

	res, err := h.Svc.RecordView(ctx, userID, id)
	if err != nil {
		return fail(l, "view_error", err)
	}

	l.Info("view_success", "campaign_id", id, "coins", res.CoinsEarned)
	return c.JSON(http.StatusOK, res)
}

func (h *CampaignHTTP) RecordClick(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "campaign.click")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "click_error", "id is not a uuid", err)
	}
	if err := h.Svc.RecordClick(ctx, id); err != nil {
		return fail(l, "click_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CampaignHTTP) RecordConversion(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "campaign.conversion")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "conversion_error", "id is not a uuid", err)
	}
	if err := h.Svc.RecordConversion(ctx, id); err != nil {
		return fail(l, "conversion_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CampaignHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "campaign.create")

	var req transport.CampaignRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "campaign_create_error", "invalid body", err)
	}

	camp, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "campaign_create_error", err)
	}

	l.Info("campaign_create_success", "campaign_id", camp.ID)
	return c.JSON(http.StatusCreated, camp)
}

func (h *CampaignHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "campaign.get")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "campaign_get_error", "id is not a uuid", err)
	}
	camp, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "campaign_get_error", err)
	}
	return c.JSON(http.StatusOK, camp)
}

func (h *CampaignHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "campaign.list")

	pageNum, offset, limit := page(c)
	total, items, err := h.Svc.List(ctx, c.QueryParam("status"), offset, limit)
	if err != nil {
		return fail(l, "campaign_list_error", err)
	}
	return paged(c, pageNum, offset, limit, total, items)
}

func (h *CampaignHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "campaign.patch")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "campaign_patch_error", "id is not a uuid", err)
	}
	var req transport.CampaignPatchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "campaign_patch_error", "invalid body", err)
	}

	camp, err := h.Svc.Patch(ctx, id, req)
	if err != nil {
		return fail(l, "campaign_patch_error", err)
	}

	l.Info("campaign_patch_success", "campaign_id", id)
	return c.JSON(http.StatusOK, camp)
}

func (h *CampaignHTTP) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "campaign.set_status")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "campaign_status_error", "id is not a uuid", err)
	}
	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "campaign_status_error", "invalid body", err)
	}

	camp, err := h.Svc.SetStatus(ctx, id, req.Status)
	if err != nil {
		return fail(l, "campaign_status_error", err)
	}

	l.Info("campaign_status_success", "campaign_id", id, "status", camp.Status)
	return c.JSON(http.StatusOK, camp)
}

func (h *CampaignHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "campaign.stats")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "campaign_stats_error", "id is not a uuid", err)
	}
	st, err := h.Svc.Stats(ctx, id)
	if err != nil {
		return fail(l, "campaign_stats_error", err)
	}
	return c.JSON(http.StatusOK, st)
}
