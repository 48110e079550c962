package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is the composition root's fully-parsed configuration, covering
// the ambient server/logging concerns plus every option the design's
// configuration table enumerates.
type Config struct {
	Server     ServerConfig
	Logging    LoggingConfig
	App        AppConfig
	Aggregator AggregatorConfig
	Executor   ExecutorConfig
	Quote      QuoteConfig
	Policy     PolicyConfig
	Escrow     EscrowConfig
	Monitor    MonitorConfig
	Redis      RedisConfig
	Postgres   PostgresConfig
}

// ServerConfig holds the ambient HTTP composition root's listen settings.
// Per the design, routing itself is out of scope; this only serves
// /health and /metrics.
type ServerConfig struct {
	Port         int           `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"5s"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type AppConfig struct {
	Env string `env:"ENV" envDefault:"development"`
}

// AggregatorConfig covers the aggregator.* options.
type AggregatorConfig struct {
	HealthTTL       time.Duration `env:"AGGREGATOR_HEALTH_TTL" envDefault:"300s"`
	FlightCacheTTL  time.Duration `env:"AGGREGATOR_FLIGHT_CACHE_TTL" envDefault:"2m"`
	WeatherCacheTTL time.Duration `env:"AGGREGATOR_WEATHER_CACHE_TTL" envDefault:"30m"`
}

// ExecutorConfig covers the executor.* options, the Retry/Fallback
// Executor's tunables.
type ExecutorConfig struct {
	MaxAttempts    int           `env:"EXECUTOR_MAX_ATTEMPTS" envDefault:"3"`
	InitialDelayMs time.Duration `env:"EXECUTOR_INITIAL_DELAY_MS" envDefault:"200ms"`
	BackoffFactor  float64       `env:"EXECUTOR_BACKOFF_FACTOR" envDefault:"2.0"`
}

// QuoteConfig covers the quote.* options.
type QuoteConfig struct {
	ValidityWindow      time.Duration `env:"QUOTE_VALIDITY_WINDOW" envDefault:"15m"`
	RefusalQualityFloor float64       `env:"QUOTE_REFUSAL_QUALITY_FLOOR" envDefault:"0.4"`
}

// PolicyConfig covers the policy.* options.
type PolicyConfig struct {
	DefaultDelayThresholdMinutes int `env:"POLICY_DEFAULT_DELAY_THRESHOLD" envDefault:"60"`
}

// EscrowConfig covers the escrow.* options.
type EscrowConfig struct {
	HashSynthesis bool  `env:"ESCROW_HASH_SYNTHESIS" envDefault:"true"`
	UnitScale     int64 `env:"ESCROW_UNIT_SCALE" envDefault:"100"`
}

// MonitorConfig covers the monitor.* options, the Policy
// Lifecycle Monitor's own scheduling knobs.
type MonitorConfig struct {
	SweepInterval  time.Duration `env:"MONITOR_SWEEP_INTERVAL" envDefault:"1m"`
	SettlementTimeout time.Duration `env:"MONITOR_SETTLEMENT_TIMEOUT" envDefault:"30s"`
}

// RedisConfig wires the cache's optional Redis-backed tier. When Addr is
// empty, the composition root falls back to the in-memory cache.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// PostgresConfig wires the store's optional Postgres-backed tier. When DSN
// is empty, the composition root falls back to the in-memory store.
type PostgresConfig struct {
	DSN            string        `env:"POSTGRES_DSN"`
	MigrationsPath string        `env:"POSTGRES_MIGRATIONS_PATH" envDefault:"file://internal/store/migrations"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" envDefault:"5s"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using default environment values")
	}

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	return config
}

// validate checks if the config values are valid.
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d, must be between 1 and 65535", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v, must be positive", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v, must be positive", cfg.Server.WriteTimeout)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console; got %q", cfg.Logging.Format)
	}

	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[cfg.App.Env] {
		return fmt.Errorf("ENV must be one of: development, staging, production; got %q", cfg.App.Env)
	}

	if cfg.Aggregator.HealthTTL <= 0 {
		return fmt.Errorf("AGGREGATOR_HEALTH_TTL must be positive; got %v", cfg.Aggregator.HealthTTL)
	}
	if cfg.Aggregator.FlightCacheTTL <= 0 {
		return fmt.Errorf("AGGREGATOR_FLIGHT_CACHE_TTL must be positive; got %v", cfg.Aggregator.FlightCacheTTL)
	}
	if cfg.Aggregator.WeatherCacheTTL <= 0 {
		return fmt.Errorf("AGGREGATOR_WEATHER_CACHE_TTL must be positive; got %v", cfg.Aggregator.WeatherCacheTTL)
	}

	if cfg.Executor.MaxAttempts < 1 {
		return fmt.Errorf("EXECUTOR_MAX_ATTEMPTS must be at least 1; got %d", cfg.Executor.MaxAttempts)
	}
	if cfg.Executor.InitialDelayMs < 0 {
		return fmt.Errorf("EXECUTOR_INITIAL_DELAY_MS must be non-negative; got %v", cfg.Executor.InitialDelayMs)
	}
	if cfg.Executor.BackoffFactor < 1.0 {
		return fmt.Errorf("EXECUTOR_BACKOFF_FACTOR must be at least 1.0; got %f", cfg.Executor.BackoffFactor)
	}

	if cfg.Quote.ValidityWindow <= 0 {
		return fmt.Errorf("QUOTE_VALIDITY_WINDOW must be positive; got %v", cfg.Quote.ValidityWindow)
	}
	if cfg.Quote.RefusalQualityFloor < 0 || cfg.Quote.RefusalQualityFloor > 1 {
		return fmt.Errorf("QUOTE_REFUSAL_QUALITY_FLOOR must be in [0,1]; got %f", cfg.Quote.RefusalQualityFloor)
	}

	if cfg.Policy.DefaultDelayThresholdMinutes < 1 {
		return fmt.Errorf("POLICY_DEFAULT_DELAY_THRESHOLD must be at least 1; got %d", cfg.Policy.DefaultDelayThresholdMinutes)
	}

	if cfg.Escrow.UnitScale < 1 {
		return fmt.Errorf("ESCROW_UNIT_SCALE must be at least 1; got %d", cfg.Escrow.UnitScale)
	}

	if cfg.Monitor.SweepInterval <= 0 {
		return fmt.Errorf("MONITOR_SWEEP_INTERVAL must be positive; got %v", cfg.Monitor.SweepInterval)
	}
	if cfg.Monitor.SettlementTimeout <= 0 {
		return fmt.Errorf("MONITOR_SETTLEMENT_TIMEOUT must be positive; got %v", cfg.Monitor.SettlementTimeout)
	}

	return nil
}
