package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/coin_shop/internal/repo"
	"github.com/Skotchmaster/coin_shop/pkg/events"
	"github.com/Skotchmaster/coin_shop/pkg/logging"
)

var (
	ErrValidation          = errors.New("validation")                 // 400
	ErrNotFound            = errors.New("not found")                  // 404
	ErrConflict            = errors.New("conflict")                   // 409
	ErrForbidden           = errors.New("forbidden")                  // 403
	ErrInvalidTransition   = errors.New("invalid status transition") // 409
	ErrRateLimited         = errors.New("rate limited")               // 429
	ErrInvalidRefreshToken = errors.New("invalid refresh token")      // 401

	ErrInvalidCredentials = repo.ErrInvalidCredentials // 401
	ErrInsufficientCoins  = repo.ErrInsufficientCoins  // 409
	ErrOutOfStock         = repo.ErrOutOfStock         // 409
	ErrSpinCooldown       = repo.ErrSpinCooldown       // 429
	ErrBudgetExhausted    = repo.ErrBudgetExhausted    // 409
	ErrCampaignInactive   = repo.ErrCampaignInactive   // 409
)

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

const publishTimeout = 5 * time.Second

// publish is best effort: a broker failure is logged and never reaches the
// caller.
func publish(ctx context.Context, p events.Publisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	event["at"] = time.Now().UTC()

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Publish(pctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_failed", "topic", topic, "type", event["type"], "error", err)
	}
}
