package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/coin_shop/internal/models"
)

const (
	MetricViews       = "views"
	MetricClicks      = "clicks"
	MetricConversions = "conversions"
)

const dayLayout = "2006-01-02"

func Day(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

func (r *GormRepo) CreateCampaign(ctx context.Context, c *models.Campaign) (*models.Campaign, error) {
	if err := r.DB.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *GormRepo) GetCampaign(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	var c models.Campaign
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) ListCampaigns(ctx context.Context, status string, offset, limit int) (int64, []models.Campaign, error) {
	q := r.DB.WithContext(ctx).Model(&models.Campaign{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Campaign, 0, limit)
	if err := q.Order("created_at DESC").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// ListActiveCampaigns returns campaigns a viewer can be rewarded for at now.
func (r *GormRepo) ListActiveCampaigns(ctx context.Context, now time.Time) ([]models.Campaign, error) {
	var items []models.Campaign
	err := r.DB.WithContext(ctx).
		Where("status = ?", models.CampaignActive).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at > ?", now).
		Where("budget_coins = 0 OR coins_awarded + reward_coins <= budget_coins").
		Order("reward_coins DESC").Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateCampaignFields writes the given columns. Status and coins_awarded
// have their own guarded updates and are rejected here.
func (r *GormRepo) UpdateCampaignFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Campaign, error) {
	if _, ok := fields["status"]; ok {
		return nil, fmt.Errorf("status is not a plain field")
	}
	if _, ok := fields["coins_awarded"]; ok {
		return nil, fmt.Errorf("coins_awarded is not a plain field")
	}
	if len(fields) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.Campaign{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.GetCampaign(ctx, id)
}

func (r *GormRepo) SetCampaignStatus(ctx context.Context, id uuid.UUID, from, to string) (*models.Campaign, error) {
	res := r.DB.WithContext(ctx).Model(&models.Campaign{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrStaleState
	}
	return r.GetCampaign(ctx, id)
}

func bumpMetric(tx *gorm.DB, campaignID uuid.UUID, day, column string) error {
	m := models.CampaignMetric{CampaignID: campaignID, Day: day}
	switch column {
	case MetricViews:
		m.Views = 1
	case MetricClicks:
		m.Clicks = 1
	case MetricConversions:
		m.Conversions = 1
	default:
		return fmt.Errorf("unknown metric %q", column)
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "campaign_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{
			column: gorm.Expr("metrics." + column + " + 1"),
		}),
	}).Create(&m).Error
}

// RecordView rewards userID for watching the campaign at now. The budget is
// reserved with a conditional update so concurrent views cannot overspend.
func (r *GormRepo) RecordView(ctx context.Context, userID, campaignID uuid.UUID, now time.Time) (*models.Campaign, *models.CoinTransaction, error) {
	var (
		c models.Campaign
		t *models.CoinTransaction
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", campaignID).First(&c).Error; err != nil {
			return err
		}
		if !c.Running(now) {
			return ErrCampaignInactive
		}

		res := tx.Model(&models.Campaign{}).
			Where("id = ? AND status = ?", campaignID, models.CampaignActive).
			Where("budget_coins = 0 OR coins_awarded + reward_coins <= budget_coins").
			Update("coins_awarded", gorm.Expr("coins_awarded + reward_coins"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBudgetExhausted
		}

		if err := bumpMetric(tx, campaignID, Day(now), MetricViews); err != nil {
			return err
		}

		var err error
		t, err = post(tx, ledgerEntry{
			UserID:      userID,
			Type:        models.TxEarn,
			Source:      models.SourceAdView,
			Amount:      c.RewardCoins,
			Reference:   campaignID.String(),
			Description: "watched " + c.Name,
		})
		if err != nil {
			return err
		}
		c.CoinsAwarded += c.RewardCoins
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &c, t, nil
}

// IncrementMetric counts a click or conversion for a running campaign.
func (r *GormRepo) IncrementMetric(ctx context.Context, campaignID uuid.UUID, column string, now time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Campaign
		if err := tx.Where("id = ?", campaignID).First(&c).Error; err != nil {
			return err
		}
		if !c.Running(now) {
			return ErrCampaignInactive
		}
		return bumpMetric(tx, campaignID, Day(now), column)
	})
}

func (r *GormRepo) CampaignMetrics(ctx context.Context, campaignID uuid.UUID) ([]models.CampaignMetric, error) {
	var rows []models.CampaignMetric
	if err := r.DB.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("day ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SweepCampaigns ends campaigns that ran out of time or budget and starts
// scheduled drafts whose start time has come.
func (r *GormRepo) SweepCampaigns(ctx context.Context, now time.Time) (activated, ended int64, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Campaign{}).
			Where("status IN ?", []string{models.CampaignActive, models.CampaignPaused}).
			Where("(ends_at IS NOT NULL AND ends_at <= ?) OR (budget_coins > 0 AND coins_awarded + reward_coins > budget_coins)", now).
			Update("status", models.CampaignEnded)
		if res.Error != nil {
			return res.Error
		}
		ended = res.RowsAffected

		res = tx.Model(&models.Campaign{}).
			Where("status = ?", models.CampaignDraft).
			Where("starts_at IS NOT NULL AND starts_at <= ?", now).
			Where("ends_at IS NULL OR ends_at > ?", now).
			Update("status", models.CampaignActive)
		if res.Error != nil {
			return res.Error
		}
		activated = res.RowsAffected
		return nil
	})
	return activated, ended, err
}
