package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/coin_shop/internal/domain"
	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/internal/repo"
	"github.com/Skotchmaster/coin_shop/internal/transport"
	"github.com/Skotchmaster/coin_shop/pkg/events"
	"github.com/Skotchmaster/coin_shop/pkg/metrics"
	"github.com/Skotchmaster/coin_shop/pkg/ratelimit"
)

type CampaignService struct {
	Repo    *repo.GormRepo
	Limiter *ratelimit.Keyed
	Events  events.Publisher
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func validateCampaign(name string, reward, budget int64, startsAt, endsAt *time.Time) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if reward <= 0 {
		return fmt.Errorf("%w: reward_coins must be > 0", ErrValidation)
	}
	if budget < 0 {
		return fmt.Errorf("%w: budget_coins must be >= 0", ErrValidation)
	}
	if startsAt != nil && endsAt != nil && !endsAt.After(*startsAt) {
		return fmt.Errorf("%w: ends_at must be after starts_at", ErrValidation)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (s *CampaignService) Create(ctx context.Context, req transport.CampaignRequest) (*models.Campaign, error) {
	if err := validateCampaign(req.Name, req.RewardCoins, req.BudgetCoins, req.StartsAt, req.EndsAt); err != nil {
		return nil, err
	}

	c, err := s.Repo.CreateCampaign(ctx, &models.Campaign{
		Name:        strings.TrimSpace(req.Name),
		Advertiser:  req.Advertiser,
		Description: req.Description,
		MediaURL:    req.MediaURL,
		TargetURL:   req.TargetURL,
		RewardCoins: req.RewardCoins,
		BudgetCoins: req.BudgetCoins,
		Status:      models.CampaignDraft,
		StartsAt:    utcPtr(req.StartsAt),
		EndsAt:      utcPtr(req.EndsAt),
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicCampaign, c.ID.String(), map[string]any{
		"type":         "campaign_created",
		"campaign_id":  c.ID,
		"name":         c.Name,
		"reward_coins": c.RewardCoins,
		"budget_coins": c.BudgetCoins,
	})
	return c, nil
}

func (s *CampaignService) Get(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	c, err := s.Repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, notFound(err, "campaign")
	}
	return c, nil
}

func (s *CampaignService) List(ctx context.Context, status string, offset, limit int) (int64, []models.Campaign, error) {
	if status != "" && !domain.ValidCampaignStatus(status) {
		return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.Repo.ListCampaigns(ctx, status, offset, limit)
}

func (s *CampaignService) ListActive(ctx context.Context) ([]models.Campaign, error) {
	return s.Repo.ListActiveCampaigns(ctx, s.now())
}

func (s *CampaignService) Patch(ctx context.Context, id uuid.UUID, req transport.CampaignPatchRequest) (*models.Campaign, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == models.CampaignEnded {
		return nil, fmt.Errorf("%w: campaign has ended", ErrConflict)
	}

	fields := map[string]any{}
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
		fields["name"] = c.Name
	}
	if req.Advertiser != nil {
		fields["advertiser"] = *req.Advertiser
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.MediaURL != nil {
		fields["media_url"] = *req.MediaURL
	}
	if req.TargetURL != nil {
		fields["target_url"] = *req.TargetURL
	}
	if req.RewardCoins != nil {
		c.RewardCoins = *req.RewardCoins
		fields["reward_coins"] = c.RewardCoins
	}
	if req.BudgetCoins != nil {
		c.BudgetCoins = *req.BudgetCoins
		fields["budget_coins"] = c.BudgetCoins
	}
	if req.StartsAt != nil {
		c.StartsAt = utcPtr(req.StartsAt)
		fields["starts_at"] = *c.StartsAt
	}
	if req.EndsAt != nil {
		c.EndsAt = utcPtr(req.EndsAt)
		fields["ends_at"] = *c.EndsAt
	}
	if err := validateCampaign(c.Name, c.RewardCoins, c.BudgetCoins, c.StartsAt, c.EndsAt); err != nil {
		return nil, err
	}

	updated, err := s.Repo.UpdateCampaignFields(ctx, id, fields)
	if err != nil {
		return nil, notFound(err, "campaign")
	}
	publish(ctx, s.Events, events.TopicCampaign, id.String(), map[string]any{
		"type":        "campaign_updated",
		"campaign_id": id,
	})
	return updated, nil
}

func (s *CampaignService) SetStatus(ctx context.Context, id uuid.UUID, to string) (*models.Campaign, error) {
	if !domain.ValidCampaignStatus(to) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionCampaign(c.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, to)
	}
	if to == models.CampaignActive {
		if c.EndsAt != nil && !s.now().Before(*c.EndsAt) {
			return nil, fmt.Errorf("%w: campaign window is over", ErrValidation)
		}
		if c.BudgetExhausted() {
			return nil, ErrBudgetExhausted
		}
	}

	updated, err := s.Repo.SetCampaignStatus(ctx, id, c.Status, to)
	if err != nil {
		if errors.Is(err, repo.ErrStaleState) {
			return nil, fmt.Errorf("%w: campaign changed concurrently", ErrConflict)
		}
		return nil, err
	}
	publish(ctx, s.Events, events.TopicCampaign, id.String(), map[string]any{
		"type":        "campaign_status_changed",
		"campaign_id": id,
		"from":        c.Status,
		"to":          to,
	})
	return updated, nil
}

// RecordView credits userID for watching the campaign. Views of campaigns
// that cannot pay out are rejected before they count against the limiter.
func (s *CampaignService) RecordView(ctx context.Context, userID, id uuid.UUID) (*transport.ViewResult, error) {
	now := s.now()
	current, err := s.Repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, notFound(err, "campaign")
	}
	if !current.Running(now) {
		return nil, ErrCampaignInactive
	}
	if current.BudgetExhausted() {
		return nil, ErrBudgetExhausted
	}

	if !s.Limiter.Allow(userID.String()) {
		return nil, fmt.Errorf("%w: too many ad views", ErrRateLimited)
	}

	c, tx, err := s.Repo.RecordView(ctx, userID, id, now)
	if err != nil {
		return nil, notFound(err, "campaign")
	}

	s.Metrics.CampaignEvent(repo.MetricViews)
	s.Metrics.CoinsEarned(models.SourceAdView, tx.Amount)
	publish(ctx, s.Events, events.TopicCampaign, id.String(), map[string]any{
		"type":        "campaign_view",
		"campaign_id": id,
		"user_id":     userID,
	})
	publish(ctx, s.Events, events.TopicCoin, userID.String(), map[string]any{
		"type":      "coins_earned",
		"user_id":   userID,
		"source":    models.SourceAdView,
		"amount":    tx.Amount,
		"balance":   tx.BalanceAfter,
		"reference": c.ID,
	})

	return &transport.ViewResult{
		CampaignID:    c.ID,
		CoinsEarned:   tx.Amount,
		Balance:       tx.BalanceAfter,
		TransactionID: tx.ID,
	}, nil
}

func (s *CampaignService) record(ctx context.Context, id uuid.UUID, metric, eventType string) error {
	if err := s.Repo.IncrementMetric(ctx, id, metric, s.now()); err != nil {
		return notFound(err, "campaign")
	}
	s.Metrics.CampaignEvent(metric)
	publish(ctx, s.Events, events.TopicCampaign, id.String(), map[string]any{
		"type":        eventType,
		"campaign_id": id,
	})
	return nil
}

func (s *CampaignService) RecordClick(ctx context.Context, id uuid.UUID) error {
	return s.record(ctx, id, repo.MetricClicks, "campaign_click")
}

func (s *CampaignService) RecordConversion(ctx context.Context, id uuid.UUID) error {
	return s.record(ctx, id, repo.MetricConversions, "campaign_conversion")
}

func ratio(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func (s *CampaignService) Stats(ctx context.Context, id uuid.UUID) (*transport.CampaignStats, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.Repo.CampaignMetrics(ctx, id)
	if err != nil {
		return nil, err
	}

	st := &transport.CampaignStats{
		CampaignID:   id,
		CoinsAwarded: c.CoinsAwarded,
		Days:         make([]transport.DayStats, 0, len(rows)),
	}
	for _, r := range rows {
		st.Views += r.Views
		st.Clicks += r.Clicks
		st.Conversions += r.Conversions
		st.Days = append(st.Days, transport.DayStats{
			Day:         r.Day,
			Views:       r.Views,
			Clicks:      r.Clicks,
			Conversions: r.Conversions,
		})
	}
	st.CTR = ratio(st.Clicks, st.Views)
	st.ConversionRate = ratio(st.Conversions, st.Clicks)
	return st, nil
}

// Sweep applies time and budget driven status changes.
func (s *CampaignService) Sweep(ctx context.Context) (activated, ended int64, err error) {
	activated, ended, err = s.Repo.SweepCampaigns(ctx, s.now())
	if err != nil {
		return 0, 0, err
	}
	if activated > 0 || ended > 0 {
		publish(ctx, s.Events, events.TopicCampaign, "sweep", map[string]any{
			"type":      "campaign_status_changed",
			"activated": activated,
			"ended":     ended,
		})
	}
	return activated, ended, nil
}
