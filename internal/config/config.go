package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Analytics  AnalyticsConfig  `mapstructure:"analytics"`
	Prediction PredictionConfig `mapstructure:"prediction"`
	Batch      BatchConfig      `mapstructure:"batch"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
	// AllowedOrigins lists CORS origins; "https://*.example.com" matches one
	// subdomain level. Empty allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// RateLimitPerMinute caps requests per client IP. Zero disables limiting.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
}

// IsProduction reports whether the server runs in the production environment.
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// DatabaseConfig selects the gorm driver. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AnalyticsConfig tunes the recompute pipeline.
type AnalyticsConfig struct {
	SeasonalMode          string  `mapstructure:"seasonal_mode"`
	SeasonalPeriodDays    int     `mapstructure:"seasonal_period_days"`
	SeasonalConcentration float64 `mapstructure:"seasonal_concentration"`
	SeasonalMinSamples    int     `mapstructure:"seasonal_min_samples"`
	// Timezone is an IANA name used to resolve purchase weekdays.
	Timezone string `mapstructure:"timezone"`
	// FutureTolerance is how far past the server clock a purchase timestamp may be.
	FutureTolerance time.Duration `mapstructure:"future_tolerance"`
	ConflictRetries int           `mapstructure:"conflict_retries"`
}

type PredictionConfig struct {
	DefaultThreshold float64 `mapstructure:"default_threshold"`
	DefaultLimit     int     `mapstructure:"default_limit"`
}

type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Load reads configuration from .env, environment variables and an optional
// config.yaml, in increasing order of precedence for the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RESTOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("server.port", "RESTOCK_SERVER_PORT", "PORT")
	v.BindEnv("database.dsn", "RESTOCK_DATABASE_DSN", "DATABASE_URL")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.rate_limit_per_minute", 300)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "restock.db")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("analytics.seasonal_mode", "weekday")
	v.SetDefault("analytics.seasonal_period_days", 7)
	v.SetDefault("analytics.seasonal_concentration", 0.5)
	v.SetDefault("analytics.seasonal_min_samples", 4)
	v.SetDefault("analytics.timezone", "UTC")
	v.SetDefault("analytics.future_tolerance", time.Minute)
	v.SetDefault("analytics.conflict_retries", 3)

	v.SetDefault("prediction.default_threshold", 0.7)
	v.SetDefault("prediction.default_limit", 0)

	v.SetDefault("batch.concurrency", 4)
}

// Validate rejects missing or out-of-range values.
func (c *Config) Validate() error {
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("server.rate_limit_per_minute must not be negative")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	switch c.Analytics.SeasonalMode {
	case "weekday":
	case "period":
		if c.Analytics.SeasonalPeriodDays < 1 {
			return fmt.Errorf("analytics.seasonal_period_days must be at least 1")
		}
	default:
		return fmt.Errorf("analytics.seasonal_mode must be weekday or period, got %q", c.Analytics.SeasonalMode)
	}
	if c.Analytics.SeasonalConcentration < 0 || c.Analytics.SeasonalConcentration > 1 {
		return fmt.Errorf("analytics.seasonal_concentration must be between 0 and 1")
	}
	if c.Analytics.SeasonalMinSamples < 1 {
		return fmt.Errorf("analytics.seasonal_min_samples must be at least 1")
	}
	if _, err := time.LoadLocation(c.Analytics.Timezone); err != nil {
		return fmt.Errorf("analytics.timezone: %w", err)
	}
	if c.Analytics.FutureTolerance < 0 {
		return fmt.Errorf("analytics.future_tolerance must not be negative")
	}
	if c.Analytics.ConflictRetries < 0 {
		return fmt.Errorf("analytics.conflict_retries must not be negative")
	}

	if c.Prediction.DefaultThreshold < 0 || c.Prediction.DefaultThreshold > 1 {
		return fmt.Errorf("prediction.default_threshold must be between 0 and 1")
	}
	if c.Prediction.DefaultLimit < 0 {
		return fmt.Errorf("prediction.default_limit must not be negative")
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1")
	}
	return nil
}

// Location resolves the configured analytics time zone. Validate has
// already checked the name, so the UTC fallback only covers hand-built configs.
func (a AnalyticsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
