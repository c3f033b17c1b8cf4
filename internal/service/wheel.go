package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/internal/repo"
	"github.com/Skotchmaster/coin_shop/internal/transport"
	"github.com/Skotchmaster/coin_shop/internal/wheel"
	"github.com/Skotchmaster/coin_shop/pkg/events"
	"github.com/Skotchmaster/coin_shop/pkg/metrics"
)


type WheelService struct {
	Repo     *repo.GormRepo
	Wheel    *wheel.Wheel
	Cooldown time.Duration
	Events   events.Publisher
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

func (s *WheelService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *WheelService) cooldown() time.Duration {
	if s.Cooldown < 0 {
		return 0
	}
	return s.Cooldown
}

var defaultWheel = wheel.New(nil, nil)

func (s *WheelService) wheel() *wheel.Wheel {
	if s.Wheel != nil {
		return s.Wheel
	}
	return defaultWheel
}

// Spin draws a segment and credits it. At most one spin per cooldown window
// succeeds; the rest get ErrSpinCooldown.
func (s *WheelService) Spin(ctx context.Context, userID uuid.UUID) (*transport.SpinResult, error) {
	now := s.now()
	res := s.wheel().Spin()

	reward, tx, err := s.Repo.SpinTx(ctx, userID, now, s.cooldown(), res.Segment.Coins, "spin:"+now.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}

	if tx != nil {
		s.Metrics.CoinsEarned(models.SourceSpinWheel, tx.Amount)
		publish(ctx, s.Events, events.TopicCoin, userID.String(), map[string]any{
			"type":    "coins_earned",
			"user_id": userID,
			"source":  models.SourceSpinWheel,
			"amount":  tx.Amount,
			"balance": tx.BalanceAfter,
		})
	}

	return &transport.SpinResult{
		Angle:      res.Angle,
		Segment:    res.Index,
		Label:      res.Segment.Label,
		Coins:      res.Segment.Coins,
		Balance:    reward.Balance,
		NextSpinAt: now.Add(s.cooldown()),
	}, nil
}

func (s *WheelService) Status(ctx context.Context, userID uuid.UUID) (*transport.WheelView, error) {
	w := s.wheel()
	view := &transport.WheelView{
		Segments:       w.Segments(),
		SegmentDegrees: w.SegmentSize(),
		CanSpin:        true,
	}

	reward, err := s.Repo.GetReward(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reward.LastSpinAt != nil {
		next := reward.LastSpinAt.UTC().Add(s.cooldown())
		if next.After(s.now()) {
			view.CanSpin = false
			view.NextSpinAt = &next
		}
	}
	return view, nil
}
