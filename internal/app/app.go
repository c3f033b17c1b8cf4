// Package app wires configuration into repositories and services.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/coin_shop/internal/config"
	"github.com/Skotchmaster/coin_shop/internal/repo"
	"github.com/Skotchmaster/coin_shop/internal/search"
	"github.com/Skotchmaster/coin_shop/internal/service"
	pkgdb "github.com/Skotchmaster/coin_shop/pkg/db"
	"github.com/Skotchmaster/coin_shop/pkg/events"
	"github.com/Skotchmaster/coin_shop/pkg/metrics"
	"github.com/Skotchmaster/coin_shop/pkg/ratelimit"
)

const openTimeout = 10 * time.Second

type App struct {
	DB      *gorm.DB
	Repo    *repo.GormRepo
	Events  events.Publisher
	Search  *search.Client
	Metrics *metrics.Metrics
	Limiter *ratelimit.Keyed

	Auth      *service.AuthService
	Catalog   *service.CatalogService
	Cart      *service.CartService
	Orders    *service.OrderService
	Coins     *service.CoinService
	Wheel     *service.WheelService
	Campaigns *service.CampaignService
}

// New opens the database, migrates it and builds every service. Kafka and
// Elasticsearch are optional: without brokers events go to the log, without
// ES_URL search runs against the database.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	octx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()

	db, err := pkgdb.Open(octx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := repo.Migrate(db); err != nil {
		_ = pkgdb.Close(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a := &App{
		DB:      db,
		Repo:    repo.New(db),
		Metrics: metrics.New(),
		Limiter: ratelimit.NewKeyed(ratelimit.Limit{PerMinute: cfg.AdViewRatePerMin, Burst: cfg.AdViewBurst}, 0),
	}

	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			_ = pkgdb.Close(db)
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		a.Events = p
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
		a.Events = events.LogPublisher{Logger: logger}
	}

	if cfg.ESURL != "" {
		sc, err := search.New(search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		if err := sc.EnsureIndex(octx); err != nil {
			logger.Warn("search_index_not_ready", "index", sc.Index(), "error", err)
		}
		a.Search = sc
	}

	a.Auth = &service.AuthService{
		Repo:          a.Repo,
		JWTSecret:     cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		SignupBonus:   cfg.SignupBonus,
		Events:        a.Events,
		Metrics:       a.Metrics,
	}
	a.Catalog = &service.CatalogService{Repo: a.Repo, Events: a.Events, CoinValueCents: cfg.CoinValueCents}
	if a.Search != nil {
		a.Catalog.Index = a.Search
	}
	a.Cart = &service.CartService{Repo: a.Repo, Events: a.Events, CoinValueCents: cfg.CoinValueCents}
	a.Orders = &service.OrderService{Repo: a.Repo, Events: a.Events, Metrics: a.Metrics, CoinValueCents: cfg.CoinValueCents}
	a.Coins = &service.CoinService{Repo: a.Repo, Events: a.Events, Metrics: a.Metrics}
	a.Wheel = &service.WheelService{Repo: a.Repo, Cooldown: cfg.SpinCooldown, Events: a.Events, Metrics: a.Metrics}
	a.Campaigns = &service.CampaignService{Repo: a.Repo, Limiter: a.Limiter, Events: a.Events, Metrics: a.Metrics}
	return a, nil
}

func (a *App) Ready(ctx context.Context) error {
	return pkgdb.Ping(ctx, a.DB)
}

func (a *App) Close() error {
	var first error
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			first = fmt.Errorf("events close: %w", err)
		}
	}
	if err := pkgdb.Close(a.DB); err != nil && first == nil {
		first = fmt.Errorf("db close: %w", err)
	}
	return first
}
