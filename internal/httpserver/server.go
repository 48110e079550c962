// Package httpserver sets up the composition root's ambient HTTP
// surface. Per the Non-goals, this is deliberately thin: no
// /quotes or /policies REST surface, just liveness and metrics.
package httpserver

import (
	"context"
	"os"
	"time"

	"github.com/herdiagusthio/flightdelay-escrow/internal/config"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger configures the global zerolog logger from config.
func SetupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if cfg.Logging.Format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	switch cfg.Logging.Level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// SetupMiddleware configures the ambient middleware stack.
func SetupMiddleware(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("HTTP request")
			return nil
		},
	}))
}

// HealthChecker reports whether a dependency the server fronts (the
// store, primarily) is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// SetupRouter registers the two endpoints this service exposes.
func SetupRouter(e *echo.Echo, checker HealthChecker) {
	e.GET("/health", func(c echo.Context) error {
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				return c.JSON(503, map[string]string{"status": "unhealthy", "error": err.Error()})
			}
		}
		return c.JSON(200, map[string]string{"status": "healthy"})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// New builds a fully configured Echo instance, ready for e.Start.
func New(cfg *config.Config, checker HealthChecker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	SetupMiddleware(e)
	SetupRouter(e, checker)

	return e
}
