package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coin_shop/pkg/metrics"
	"github.com/Skotchmaster/coin_shop/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler     *AuthHTTP
	ProductHandler  *ProductHTTP
	CartHandler     *CartHTTP
	OrderHandler    *OrderHTTP
	CoinsHandler    *CoinsHTTP
	WheelHandler    *WheelHTTP
	CampaignHandler *CampaignHTTP

	AuthMW  *auth.Middleware
	Metrics *metrics.Metrics
	// Ready reports whether dependencies are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group("/api/v1")
	user := api.Group("", d.AuthMW.RequireAuth)
	admin := api.Group("/admin", d.AuthMW.RequireAdmin)

	a := d.AuthHandler
	api.POST("/auth/register", a.Register)
	api.POST("/auth/login", a.Login)
	api.POST("/auth/refresh", a.Refresh)
	api.POST("/auth/logout", a.LogOut)
	user.GET("/auth/me", a.Me)

	p := d.ProductHandler
	api.GET("/products", p.GetProducts)
	api.GET("/products/search", p.SearchProducts)
	api.GET("/products/:id", p.GetProduct)
	admin.GET("/products", p.GetProducts)
	admin.GET("/products/:id", p.GetProduct)
	admin.POST("/products", p.CreateProduct)
	admin.PATCH("/products/:id", p.PatchProduct)
	admin.DELETE("/products/:id", p.DeleteProduct)
	admin.POST("/products/reindex", p.Reindex)

	ct := d.CartHandler
	user.GET("/cart", ct.GetCart)
	user.POST("/cart", ct.AddToCart)
	user.DELETE("/cart/:id", ct.DeleteOneFromCart)
	user.DELETE("/cart", ct.DeleteAllFromCart)
	user.POST("/cart/checkout", d.OrderHandler.Checkout)

	o := d.OrderHandler
	user.POST("/orders", o.CreateOrder)
	user.GET("/orders", o.ListOrders)
	user.GET("/orders/:id", o.GetOrder)
	user.POST("/orders/:id/cancel", o.CancelOrder)
	admin.GET("/orders", o.ListAllOrders)
	admin.GET("/orders/:id", o.GetOrder)
	admin.PATCH("/orders/:id/status", o.UpdateStatus)

	co := d.CoinsHandler
	user.GET("/coins/balance", co.Balance)
	user.GET("/coins/history", co.History)
	user.GET("/coins/summary", co.Summary)
	admin.POST("/coins/adjust", co.Adjust)

	w := d.WheelHandler
	user.GET("/wheel", w.Status)
	user.POST("/wheel/spin", w.Spin)

	cp := d.CampaignHandler
	api.GET("/campaigns", cp.ListActive)
	user.POST("/campaigns/:id/view", cp.RecordView)
	user.POST("/campaigns/:id/click", cp.RecordClick)
	user.POST("/campaigns/:id/conversion", cp.RecordConversion)
	admin.GET("/campaigns", cp.List)
	admin.POST("/campaigns", cp.Create)
	admin.GET("/campaigns/:id", cp.Get)
	admin.PATCH("/campaigns/:id", cp.Patch)
	admin.PATCH("/campaigns/:id/status", cp.SetStatus)
	admin.GET("/campaigns/:id/stats", cp.Stats)
}
