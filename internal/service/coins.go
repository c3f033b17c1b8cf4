package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/internal/repo"
	"github.com/Skotchmaster/coin_shop/internal/transport"
	"github.com/Skotchmaster/coin_shop/pkg/events"
	"github.com/Skotchmaster/coin_shop/pkg/metrics"
)

type CoinService struct {
	Repo    *repo.GormRepo
	Events  events.Publisher
	Metrics *metrics.Metrics
}

func validTxType(t string) bool {
	switch t {
	case models.TxEarn, models.TxSpend, models.TxRefund, models.TxBonus, models.TxAdjust:
		return true
	}
	return false
}

func validSource(s string) bool {
	switch s {
	case models.SourceAdView, models.SourceSpinWheel, models.SourceSignup, models.SourceOrder, models.SourceAdmin:
		return true
	}
	return false
}

func (s *CoinService) Balance(ctx context.Context, userID uuid.UUID) (*models.UserReward, error) {
	return s.Repo.GetReward(ctx, userID)
}

func (s *CoinService) Earn(ctx context.Context, userID uuid.UUID, amount int64, source, reference, description string) (*models.CoinTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be > 0", ErrValidation)
	}
	if !validSource(source) {
		return nil, fmt.Errorf("%w: unknown source %q", ErrValidation, source)
	}

	t, err := s.Repo.Earn(ctx, userID, source, amount, reference, description)
	if err != nil {
		return nil, err
	}
	s.Metrics.CoinsEarned(source, amount)
	publish(ctx, s.Events, events.TopicCoin, userID.String(), map[string]any{
		"type":      "coins_earned",
		"user_id":   userID,
		"source":    source,
		"amount":    amount,
		"balance":   t.BalanceAfter,
		"reference": reference,
	})
	return t, nil
}

func (s *CoinService) Spend(ctx context.Context, userID uuid.UUID, amount int64, source, reference, description string) (*models.CoinTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be > 0", ErrValidation)
	}
	if !validSource(source) {
		return nil, fmt.Errorf("%w: unknown source %q", ErrValidation, source)
	}

	t, err := s.Repo.Spend(ctx, userID, source, amount, reference, description)
	if err != nil {
		return nil, err
	}
	s.Metrics.CoinsSpent(amount)
	publish(ctx, s.Events, events.TopicCoin, userID.String(), map[string]any{
		"type":      "coins_spent",
		"user_id":   userID,
		"source":    source,
		"amount":    amount,
		"balance":   t.BalanceAfter,
		"reference": reference,
	})
	return t, nil
}

func (s *CoinService) Adjust(ctx context.Context, req transport.AdjustCoinsRequest) (*models.CoinTransaction, error) {
	if req.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id required", ErrValidation)
	}
	if req.Delta == 0 {
		return nil, fmt.Errorf("%w: delta must not be zero", ErrValidation)
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "admin adjustment"
	}
	if _, err := s.Repo.GetUserByID(ctx, req.UserID); err != nil {
		return nil, notFound(err, "user")
	}

	t, err := s.Repo.Adjust(ctx, req.UserID, req.Delta, reason)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, events.TopicCoin, req.UserID.String(), map[string]any{
		"type":    "coins_adjusted",
		"user_id": req.UserID,
		"amount":  req.Delta,
		"balance": t.BalanceAfter,
		"reason":  reason,
	})
	return t, nil
}

func (s *CoinService) History(ctx context.Context, userID uuid.UUID, txType string, offset, limit int) (int64, []models.CoinTransaction, error) {
	if txType != "" && !validTxType(txType) {
		return 0, nil, fmt.Errorf("%w: unknown transaction type %q", ErrValidation, txType)
	}
	return s.Repo.History(ctx, userID, txType, offset, limit)
}

// Summary sums the ledger per transaction type next to the running totals.
func (s *CoinService) Summary(ctx context.Context, userID uuid.UUID) (*transport.CoinSummary, error) {
	reward, err := s.Repo.GetReward(ctx, userID)
	if err != nil {
		return nil, err
	}
	byType, count, err := s.Repo.SumByType(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &transport.CoinSummary{
		Balance:     reward.Balance,
		TotalEarned: reward.TotalEarned,
		TotalSpent:  reward.TotalSpent,
		ByType:      byType,
		Count:       count,
	}, nil
}
