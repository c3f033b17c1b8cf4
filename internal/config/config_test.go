package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("SIGNUP_BONUS_COINS", "")
	t.Setenv("COIN_VALUE_CENTS", "5")
	t.Setenv("AD_VIEW_RATE_PER_MIN", "")
	t.Setenv("SPIN_COOLDOWN", "1h")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("CSRF_ENABLED", "false")

	cfg := FromEnv()
	assert.Equal(t, int64(100), cfg.SignupBonus)
	assert.Equal(t, int64(5), cfg.CoinValueCents)
	assert.Equal(t, 6.0, cfg.AdViewRatePerMin)
	assert.Equal(t, 3, cfg.AdViewBurst)
	assert.Equal(t, time.Hour, cfg.SpinCooldown)
	assert.Equal(t, "@every 1m", cfg.CampaignSweepSpec)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.False(t, cfg.CSRFEnabled)
}

func TestFromEnv_SpinCooldown(t *testing.T) {
	tests := []struct {
		env  string
		want time.Duration
	}{
		{"", 24 * time.Hour},
		{"0", 0},
		{"0s", 0},
		{"-5m", 0},
		{"30m", 30 * time.Minute},
		{"soon", 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("SPIN_COOLDOWN", tt.env)
			assert.Equal(t, tt.want, FromEnv().SpinCooldown)
		})
	}
}
