package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/coin_shop/internal/models"
)

// ledgerEntry is one signed balance change. Negative amounts debit.
type ledgerEntry struct {
	UserID      uuid.UUID
	Type        string
	Source      string
	Amount      int64
	Reference   string
	Description string
}

func ensureReward(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserReward{UserID: userID}).Error
}

// post applies e to user_rewards and appends it to user_transactions. It must
// run inside a transaction. A debit larger than the balance updates nothing
// and returns ErrInsufficientCoins.
func post(tx *gorm.DB, e ledgerEntry) (*models.CoinTransaction, error) {
	if err := ensureReward(tx, e.UserID); err != nil {
		return nil, err
	}

	updates := map[string]any{"balance": gorm.Expr("balance + ?", e.Amount)}
	switch e.Type {
	case models.TxEarn, models.TxBonus:
		updates["total_earned"] = gorm.Expr("total_earned + ?", e.Amount)
	case models.TxSpend:
		updates["total_spent"] = gorm.Expr("total_spent + ?", -e.Amount)
	case models.TxRefund:
		updates["total_spent"] = gorm.Expr("total_spent - ?", e.Amount)
	}

	q := tx.Model(&models.UserReward{}).Where("user_id = ?", e.UserID)
	if e.Amount < 0 {
		q = q.Where("balance >= ?", -e.Amount)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInsufficientCoins
	}

	var reward models.UserReward
	if err := tx.Where("user_id = ?", e.UserID).First(&reward).Error; err != nil {
		return nil, err
	}

	t := &models.CoinTransaction{
		UserID:       e.UserID,
		Type:         e.Type,
		Source:       e.Source,
		Amount:       e.Amount,
		BalanceAfter: reward.Balance,
		Reference:    e.Reference,
		Description:  e.Description,
	}
	if err := tx.Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (r *GormRepo) postTx(ctx context.Context, e ledgerEntry) (*models.CoinTransaction, error) {
	var t *models.CoinTransaction
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		t, err = post(tx, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *GormRepo) Earn(ctx context.Context, userID uuid.UUID, source string, amount int64, ref, desc string) (*models.CoinTransaction, error) {
	return r.postTx(ctx, ledgerEntry{
		UserID:      userID,
		Type:        models.TxEarn,
		Source:      source,
		Amount:      amount,
		Reference:   ref,
		Description: desc,
	})
}

func (r *GormRepo) Spend(ctx context.Context, userID uuid.UUID, source string, amount int64, ref, desc string) (*models.CoinTransaction, error) {
	return r.postTx(ctx, ledgerEntry{
		UserID:      userID,
		Type:        models.TxSpend,
		Source:      source,
		Amount:      -amount,
		Reference:   ref,
		Description: desc,
	})
}

func (r *GormRepo) Adjust(ctx context.Context, userID uuid.UUID, delta int64, reason string) (*models.CoinTransaction, error) {
	return r.postTx(ctx, ledgerEntry{
		UserID:      userID,
		Type:        models.TxAdjust,
		Source:      models.SourceAdmin,
		Amount:      delta,
		Description: reason,
	})
}

// GetReward returns the user's account; a user who never earned anything
// gets a zero account.
func (r *GormRepo) GetReward(ctx context.Context, userID uuid.UUID) (*models.UserReward, error) {
	var reward models.UserReward
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&reward).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserReward{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

func (r *GormRepo) History(ctx context.Context, userID uuid.UUID, txType string, offset, limit int) (int64, []models.CoinTransaction, error) {
	q := r.DB.WithContext(ctx).Model(&models.CoinTransaction{}).Where("user_id = ?", userID)
	if txType != "" {
		q = q.Where("type = ?", txType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.CoinTransaction, 0, limit)
	if err := q.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

type typeSum struct {
	Type  string
	Total int64
	N     int64
}

// SumByType sums ledger amounts per transaction type.
func (r *GormRepo) SumByType(ctx context.Context, userID uuid.UUID) (map[string]int64, int64, error) {
	var rows []typeSum
	if err := r.DB.WithContext(ctx).Model(&models.CoinTransaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make(map[string]int64, len(rows))
	var count int64
	for _, row := range rows {
		out[row.Type] = row.Total
		count += row.N
	}
	return out, count, nil
}

// SpinTx claims the user's spin slot and credits coins when positive. A spin
// inside cooldown returns ErrSpinCooldown and changes nothing.
func (r *GormRepo) SpinTx(ctx context.Context, userID uuid.UUID, now time.Time, cooldown time.Duration, coins int64, ref string) (*models.UserReward, *models.CoinTransaction, error) {
	var (
		reward models.UserReward
		t      *models.CoinTransaction
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureReward(tx, userID); err != nil {
			return err
		}

		res := tx.Model(&models.UserReward{}).
			Where("user_id = ? AND (last_spin_at IS NULL OR last_spin_at <= ?)", userID, now.Add(-cooldown)).
			Update("last_spin_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSpinCooldown
		}

		if coins > 0 {
			var err error
			t, err = post(tx, ledgerEntry{
				UserID:      userID,
				Type:        models.TxEarn,
				Source:      models.SourceSpinWheel,
				Amount:      coins,
				Reference:   ref,
				Description: "spin wheel reward",
			})
			if err != nil {
				return err
			}
		}
		return tx.Where("user_id = ?", userID).First(&reward).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &reward, t, nil
}
