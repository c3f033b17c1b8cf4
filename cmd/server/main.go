package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/coin_shop/internal/app"
	"github.com/Skotchmaster/coin_shop/internal/config"
	"github.com/Skotchmaster/coin_shop/internal/httpserver"
	"github.com/Skotchmaster/coin_shop/internal/jobs"
	pkgconfig "github.com/Skotchmaster/coin_shop/pkg/config"
	"github.com/Skotchmaster/coin_shop/pkg/logging"
	"github.com/Skotchmaster/coin_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/coin_shop/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/coin_shop/pkg/middleware/logging"
)

func main() {
	pkgconfig.LoadEnvFile(".env")
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	sched := jobs.New(logger, a.Metrics)
	if err := sched.Add("campaign_sweep", cfg.CampaignSweepSpec, jobs.CampaignSweep(a.Campaigns)); err != nil {
		log.Fatalf("schedule campaign sweep: %v", err)
	}
	if err := sched.Add("limiter_sweep", "@every 5m", jobs.LimiterSweep(a.Limiter)); err != nil {
		log.Fatalf("schedule limiter sweep: %v", err)
	}
	sched.Start()

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(a.Metrics.Middleware())
	e.Use(echomw.CORS())
	if cfg.CSRFEnabled {
		cc := csrf.DefaultConfig()
		cc.Secure = true
		cc.SkipPrefixes = []string{"/health/", "/metrics", "/api/v1/auth/login", "/api/v1/auth/register", "/api/v1/auth/refresh"}
		e.Use(csrf.Middleware(cc))
	}

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:     &httpserver.AuthHTTP{Svc: a.Auth},
		ProductHandler:  &httpserver.ProductHTTP{Svc: a.Catalog},
		CartHandler:     &httpserver.CartHTTP{Svc: a.Cart},
		OrderHandler:    &httpserver.OrderHTTP{Svc: a.Orders},
		CoinsHandler:    &httpserver.CoinsHTTP{Svc: a.Coins},
		WheelHandler:    &httpserver.WheelHTTP{Svc: a.Wheel},
		CampaignHandler: &httpserver.CampaignHTTP{Svc: a.Campaigns},
		AuthMW:          auth.New(cfg.JWTAccessSecret, a.Auth),
		Metrics:         a.Metrics,
		Ready:           a.Ready,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	sched.Stop(shutdownCtx)
	if err := a.Close(); err != nil {
		logger.Error("close_failed", "error", err)
	}

	logger.Info("stopped")
}
