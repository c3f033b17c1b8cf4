package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/coin_shop/internal/models"
)

func TestFinalPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		price    int64
		discount int
		want     int64
	}{
		{name: "no discount", price: 1000, discount: 0, want: 1000},
		{name: "quarter off", price: 1000, discount: 25, want: 750},
		{name: "rounds down", price: 999, discount: 50, want: 499},
		{name: "full discount", price: 1000, discount: 100, want: 0},
		{name: "over 100 clamps", price: 1000, discount: 150, want: 0},
		{name: "negative discount clamps", price: 1000, discount: -10, want: 1000},
		{name: "negative price", price: -5, discount: 10, want: 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := FinalPrice(tt.price, tt.discount)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, int64(0))
		})
	}
}

func TestCoinConversions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(500), CoinsToCents(50, 10))
	assert.Equal(t, int64(0), CoinsToCents(-1, 10))
	assert.Equal(t, int64(10), MaxCoinsFor(95, 10))
	assert.Equal(t, int64(0), MaxCoinsFor(0, 10))

	disc, total, ok := OrderTotals(1000, 300, 1)
	assert.True(t, ok)
	assert.Equal(t, int64(300), disc)
	assert.Equal(t, int64(700), total)

	_, _, ok = OrderTotals(1000, 1001, 1)
	assert.False(t, ok)

	disc, total, ok = OrderTotals(1000, 1000, 1)
	assert.True(t, ok)
	assert.Equal(t, int64(1000), disc)
	assert.Equal(t, int64(0), total)
}

func TestOrderTransitions(t *testing.T) {
	t.Parallel()

	assert.True(t, CanTransitionOrder(models.OrderStatusPending, models.OrderStatusPaid))
	assert.True(t, CanTransitionOrder(models.OrderStatusPaid, models.OrderStatusShipped))
	assert.True(t, CanTransitionOrder(models.OrderStatusShipped, models.OrderStatusDelivered))
	assert.False(t, CanTransitionOrder(models.OrderStatusPending, models.OrderStatusDelivered))
	assert.False(t, CanTransitionOrder(models.OrderStatusDelivered, models.OrderStatusCancelled))
	assert.False(t, CanTransitionOrder(models.OrderStatusCancelled, models.OrderStatusPaid))
	assert.False(t, CanTransitionOrder(models.OrderStatusShipped, models.OrderStatusCancelled))

	assert.True(t, Cancellable(models.OrderStatusPending))
	assert.True(t, Cancellable(models.OrderStatusPaid))
	assert.False(t, Cancellable(models.OrderStatusShipped))

	assert.True(t, ValidOrderStatus(models.OrderStatusDelivered))
	assert.False(t, ValidOrderStatus("lost"))
}

func TestCampaignTransitions(t *testing.T) {
	t.Parallel()

	assert.True(t, CanTransitionCampaign(models.CampaignDraft, models.CampaignActive))
	assert.True(t, CanTransitionCampaign(models.CampaignPaused, models.CampaignActive))
	assert.False(t, CanTransitionCampaign(models.CampaignEnded, models.CampaignActive))
	assert.False(t, CanTransitionCampaign(models.CampaignActive, models.CampaignDraft))
	assert.False(t, ValidCampaignStatus("archived"))
}
