package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRoute(t *testing.T) {
	t.Parallel()

	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/items/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/fail", func(c echo.Context) error { return echo.NewHTTPError(http.StatusConflict, "x") })

	for i := 0; i < 3; i++ {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	}
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/fail", "409")))
}

func TestDomainCounters(t *testing.T) {
	t.Parallel()

	m := New()
	m.CoinsEarned("ad_view", 10)
	m.CoinsEarned("ad_view", 5)
	m.CoinsEarned("signup", 0)
	m.CoinsSpent(7)
	m.OrderCreated()
	m.CampaignEvent("view")
	m.JobRun("campaign_sweep", true)

	assert.Equal(t, 15.0, testutil.ToFloat64(m.coinsEarned.WithLabelValues("ad_view")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.coinsSpent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.campaignEvents.WithLabelValues("view")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "coin_shop_coins_earned_total")
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.CoinsEarned("x", 1)
		m.CoinsSpent(1)
		m.OrderCreated()
		m.CampaignEvent("view")
		m.JobRun("j", false)
	})
}
