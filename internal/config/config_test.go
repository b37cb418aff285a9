package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080", Env: "test"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Analytics: AnalyticsConfig{
			SeasonalMode:          "weekday",
			SeasonalPeriodDays:    7,
			SeasonalConcentration: 0.5,
			SeasonalMinSamples:    4,
			Timezone:              "UTC",
			FutureTolerance:       time.Minute,
			ConflictRetries:       3,
		},
		Prediction: PredictionConfig{DefaultThreshold: 0.7},
		Batch:      BatchConfig{Concurrency: 4},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Analytics.FutureTolerance != time.Minute {
		t.Errorf("FutureTolerance = %v, want 1m", cfg.Analytics.FutureTolerance)
	}
	if cfg.Prediction.DefaultThreshold != 0.7 {
		t.Errorf("DefaultThreshold = %v, want 0.7", cfg.Prediction.DefaultThreshold)
	}
	if cfg.Server.RateLimitPerMinute != 300 {
		t.Errorf("RateLimitPerMinute = %d, want 300", cfg.Server.RateLimitPerMinute)
	}
	if cfg.Server.IsProduction() {
		t.Error("IsProduction() = true for the development default")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RESTOCK_SERVER_PORT", "9090")
	t.Setenv("RESTOCK_ANALYTICS_SEASONAL_MIN_SAMPLES", "6")
	t.Setenv("RESTOCK_ANALYTICS_TIMEZONE", "America/Sao_Paulo")
	t.Setenv("RESTOCK_BATCH_CONCURRENCY", "16")
	t.Setenv("RESTOCK_SERVER_ALLOWED_ORIGINS", "https://app.example.com,https://*.example.dev")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Analytics.SeasonalMinSamples != 6 {
		t.Errorf("SeasonalMinSamples = %d, want 6", cfg.Analytics.SeasonalMinSamples)
	}
	if cfg.Analytics.Location().String() != "America/Sao_Paulo" {
		t.Errorf("Location() = %v", cfg.Analytics.Location())
	}
	if cfg.Batch.Concurrency != 16 {
		t.Errorf("Batch.Concurrency = %d, want 16", cfg.Batch.Concurrency)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v, want 2 origins", cfg.Server.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "postgres driver", mutate: func(c *Config) { c.Database.Driver = "postgres" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "empty dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{name: "unknown seasonal mode", mutate: func(c *Config) { c.Analytics.SeasonalMode = "lunar" }, wantErr: true},
		{name: "period mode without days", mutate: func(c *Config) {
			c.Analytics.SeasonalMode = "period"
			c.Analytics.SeasonalPeriodDays = 0
		}, wantErr: true},
		{name: "concentration out of range", mutate: func(c *Config) { c.Analytics.SeasonalConcentration = 1.5 }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Analytics.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.Analytics.ConflictRetries = -1 }, wantErr: true},
		{name: "threshold above one", mutate: func(c *Config) { c.Prediction.DefaultThreshold = 1.1 }, wantErr: true},
		{name: "negative rate limit", mutate: func(c *Config) { c.Server.RateLimitPerMinute = -1 }, wantErr: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.Batch.Concurrency = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
