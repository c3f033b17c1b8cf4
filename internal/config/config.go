package config

import (
	"time"

	"github.com/Skotchmaster/coin_shop/pkg/config"
)

type Config struct {
	config.Config

	SignupBonus       int64
	CoinValueCents    int64
	AdViewRatePerMin  float64
	AdViewBurst       int
	SpinCooldown      time.Duration
	CampaignSweepSpec string
	CSRFEnabled       bool
}

// Load reads the service configuration and exits when a required key is
// missing.
func Load() Config {
	cfg := FromEnv()

	config.MustOneOf(cfg.DBDriver, "DB_DRIVER", "postgres", "sqlite")
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")
	return cfg
}

// FromEnv reads the configuration without validating it. An unset
// SPIN_COOLDOWN means one spin a day; 0 or a negative value turns the
// cooldown off.
func FromEnv() Config {
	cfg := Config{
		Config: config.Load(),

		SignupBonus:       config.EnvInt64Default("SIGNUP_BONUS_COINS", 100),
		CoinValueCents:    config.EnvInt64Default("COIN_VALUE_CENTS", 1),
		AdViewRatePerMin:  float64(config.EnvIntDefault("AD_VIEW_RATE_PER_MIN", 6)),
		AdViewBurst:       config.EnvIntDefault("AD_VIEW_BURST", 3),
		SpinCooldown:      config.EnvDurationDefault("SPIN_COOLDOWN", 24*time.Hour),
		CampaignSweepSpec: config.EnvDefault("CAMPAIGN_SWEEP_SPEC", "@every 1m"),
		CSRFEnabled:       config.EnvDefault("CSRF_ENABLED", "true") == "true",
	}
	if cfg.SpinCooldown < 0 {
		cfg.SpinCooldown = 0
	}
	return cfg
}
