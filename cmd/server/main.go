package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/internal/aggregator"
	"github.com/herdiagusthio/flightdelay-escrow/internal/cache"
	"github.com/herdiagusthio/flightdelay-escrow/internal/chain"
	"github.com/herdiagusthio/flightdelay-escrow/internal/config"
	"github.com/herdiagusthio/flightdelay-escrow/internal/escrow"
	"github.com/herdiagusthio/flightdelay-escrow/internal/executor"
	"github.com/herdiagusthio/flightdelay-escrow/internal/httpserver"
	"github.com/herdiagusthio/flightdelay-escrow/internal/monitor"
	"github.com/herdiagusthio/flightdelay-escrow/internal/policy"
	"github.com/herdiagusthio/flightdelay-escrow/internal/provider/flight/edelweiss"
	"github.com/herdiagusthio/flightdelay-escrow/internal/provider/flight/nimbus"
	"github.com/herdiagusthio/flightdelay-escrow/internal/provider/flight/skylark"
	"github.com/herdiagusthio/flightdelay-escrow/internal/provider/weather/meridian"
	"github.com/herdiagusthio/flightdelay-escrow/internal/provider/weather/squall"
	"github.com/herdiagusthio/flightdelay-escrow/internal/router"
	"github.com/herdiagusthio/flightdelay-escrow/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const gracefulShutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoadConfig()
	httpserver.SetupLogger(cfg)

	log.Info().Str("env", cfg.App.Env).Int("port", cfg.Server.Port).Msg("configuration loaded")

	st, closeStore := mustBuildStore(cfg)
	defer closeStore()

	c := mustBuildCache(cfg)

	flightRouter := router.New(flightAdapters(), 0)
	weatherRouter := router.New(weatherAdapters(), 0)

	flightAgg := aggregator.NewFlightAggregator(c, flightRouter, executorConfig(cfg), cfg.Aggregator.FlightCacheTTL)
	weatherAgg := aggregator.NewWeatherAggregator(c, weatherRouter, executorConfig(cfg), cfg.Aggregator.WeatherCacheTTL)

	// datarouter.New and quote.NewEngine are assembled from these same
	// aggregators by anything that issues a quote (see internal/datarouter
	// and internal/quote's own tests); no REST entry point drives a
	// purchase flow here, so nothing in main owns that wiring directly.

	chainClient := chain.NewMockClient(false)
	escrowAdapter := escrow.NewAdapter(chainClient)
	signer := chain.NewSigner()

	policyMgr := policy.NewManager(st)

	mon := monitor.New(
		st,
		flightAgg,
		escrowAdapter,
		signer,
		policyMgr,
		cfg.Monitor.SweepInterval,
		cfg.Monitor.SettlementTimeout,
		executorConfig(cfg),
	)

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	go mon.Run(monitorCtx)

	srv := httpserver.New(cfg, st)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info().Str("address", addr).Msg("starting server")
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	gracefulShutdown(srv, stopMonitor)
}

func gracefulShutdown(e *echo.Echo, stopMonitor context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Info().Msg("shutting down server")
	stopMonitor()

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	log.Info().Msg("server stopped")
}

func executorConfig(cfg *config.Config) executor.Config {
	return executor.Config{
		MaxAttempts:   cfg.Executor.MaxAttempts,
		InitialDelay:  cfg.Executor.InitialDelayMs,
		MaxDelay:      2 * time.Second,
		BackoffFactor: cfg.Executor.BackoffFactor,
	}
}

func mustBuildStore(cfg *config.Config) (store.Store, func()) {
	if cfg.Postgres.DSN == "" {
		log.Info().Msg("POSTGRES_DSN not set, using in-memory store")
		return store.NewMemoryStore(), func() {}
	}

	if err := store.ApplyMigrations(cfg.Postgres.DSN); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Postgres.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping postgres")
	}

	return store.NewPostgresStore(pool), pool.Close
}

func mustBuildCache(cfg *config.Config) cache.Cache {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("REDIS_ADDR not set, using in-memory cache")
		return cache.NewMemoryCache()
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	return redisCache
}

func flightAdapters() []router.Adapter {
	return []router.Adapter{
		edelweiss.NewAdapter(false),
		skylark.NewAdapter(false),
		nimbus.NewAdapter(false),
	}
}

func weatherAdapters() []router.Adapter {
	return []router.Adapter{
		meridian.NewAdapter(false),
		squall.NewAdapter(false),
	}
}
