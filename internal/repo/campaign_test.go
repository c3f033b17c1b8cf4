package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/internal/testutil"
)

func newCampaign(t *testing.T, r *GormRepo, status string, reward, budget int64) *models.Campaign {
	t.Helper()
	c, err := r.CreateCampaign(context.Background(), &models.Campaign{
		Name:        "spring sale",
		Advertiser:  "acme",
		RewardCoins: reward,
		BudgetCoins: budget,
		Status:      status,
	})
	require.NoError(t, err)
	return c
}

func TestRecordView_BudgetAndMetrics(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	r := New(gdb)
	u := testutil.NewUser(t, gdb, "ivy", models.RoleUser)
	c := newCampaign(t, r, models.CampaignActive, 10, 25)
	now := time.Now().UTC()

	for i := 0; i < 2; i++ {
		got, tx, err := r.RecordView(ctx, u.ID, c.ID, now)
		require.NoError(t, err)
		assert.Equal(t, int64(10), tx.Amount)
		assert.Equal(t, models.SourceAdView, tx.Source)
		assert.Equal(t, int64(10*(i+1)), got.CoinsAwarded)
	}

	_, _, err := r.RecordView(ctx, u.ID, c.ID, now)
	assert.ErrorIs(t, err, ErrBudgetExhausted)

	rows, err := r.CampaignMetrics(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].Views)
	assert.Equal(t, Day(now), rows[0].Day)

	reward, err := r.GetReward(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), reward.Balance)
}

func TestRecordView_Inactive(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	r := New(gdb)
	u := testutil.NewUser(t, gdb, "jack", models.RoleUser)
	c := newCampaign(t, r, models.CampaignPaused, 10, 0)

	_, _, err := r.RecordView(ctx, u.ID, c.ID, time.Now().UTC())
	assert.ErrorIs(t, err, ErrCampaignInactive)

	err = r.IncrementMetric(ctx, c.ID, MetricClicks, time.Now().UTC())
	assert.ErrorIs(t, err, ErrCampaignInactive)
}

func TestIncrementMetric_Upsert(t *testing.T) {
	ctx := context.Background()
	r := New(testutil.NewDB(t))
	c := newCampaign(t, r, models.CampaignActive, 5, 0)
	now := time.Now().UTC()

	require.NoError(t, r.IncrementMetric(ctx, c.ID, MetricClicks, now))
	require.NoError(t, r.IncrementMetric(ctx, c.ID, MetricClicks, now))
	require.NoError(t, r.IncrementMetric(ctx, c.ID, MetricConversions, now))
	require.NoError(t, r.IncrementMetric(ctx, c.ID, MetricClicks, now.Add(24*time.Hour)))
	assert.Error(t, r.IncrementMetric(ctx, c.ID, "likes", now))

	rows, err := r.CampaignMetrics(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0].Clicks)
	assert.Equal(t, int64(1), rows[0].Conversions)
	assert.Equal(t, int64(1), rows[1].Clicks)
}

func TestSweepCampaigns(t *testing.T) {
	ctx := context.Background()
	r := New(testutil.NewDB(t))
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := newCampaign(t, r, models.CampaignActive, 5, 0)
	_, err := r.UpdateCampaignFields(ctx, expired.ID, map[string]any{"ends_at": past})
	require.NoError(t, err)

	spent := newCampaign(t, r, models.CampaignPaused, 5, 10)
	require.NoError(t, r.DB.Model(&models.Campaign{}).Where("id = ?", spent.ID).Update("coins_awarded", 10).Error)

	scheduled := newCampaign(t, r, models.CampaignDraft, 5, 0)
	_, err = r.UpdateCampaignFields(ctx, scheduled.ID, map[string]any{"starts_at": past})
	require.NoError(t, err)

	later := newCampaign(t, r, models.CampaignDraft, 5, 0)
	_, err = r.UpdateCampaignFields(ctx, later.ID, map[string]any{"starts_at": future})
	require.NoError(t, err)

	running := newCampaign(t, r, models.CampaignActive, 5, 0)

	activated, ended, err := r.SweepCampaigns(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), activated)
	assert.Equal(t, int64(2), ended)

	for id, want := range map[*models.Campaign]string{
		expired:   models.CampaignEnded,
		spent:     models.CampaignEnded,
		scheduled: models.CampaignActive,
		later:     models.CampaignDraft,
		running:   models.CampaignActive,
	} {
		got, err := r.GetCampaign(ctx, id.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, id.Name)
	}

	active, err := r.ListActiveCampaigns(ctx, now)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestSetCampaignStatus_Stale(t *testing.T) {
	ctx := context.Background()
	r := New(testutil.NewDB(t))
	c := newCampaign(t, r, models.CampaignDraft, 5, 0)

	got, err := r.SetCampaignStatus(ctx, c.ID, models.CampaignDraft, models.CampaignActive)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignActive, got.Status)

	_, err = r.SetCampaignStatus(ctx, c.ID, models.CampaignDraft, models.CampaignActive)
	assert.ErrorIs(t, err, ErrStaleState)

	_, err = r.UpdateCampaignFields(ctx, c.ID, map[string]any{"status": models.CampaignEnded})
	assert.Error(t, err)
}
