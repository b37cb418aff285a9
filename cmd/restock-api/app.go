package main

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/JonnyWalker81/restock/backend/internal/analytics"
	"github.com/JonnyWalker81/restock/backend/internal/config"
	"github.com/JonnyWalker81/restock/backend/internal/logger"
	"github.com/JonnyWalker81/restock/backend/internal/metrics"
	"github.com/JonnyWalker81/restock/backend/internal/repository"
	"github.com/JonnyWalker81/restock/backend/internal/service"
)

// app holds the wired dependencies shared by every subcommand.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	log     logger.Logger
	metrics *metrics.Recorder

	purchaseRepo repository.PurchaseRepository
	snapshotRepo repository.AnalyticsRepository

	purchases   service.PurchaseService
	predictions service.PredictionService
	analytics   service.AnalyticsService
}

// newApp loads configuration, opens and migrates the database and builds
// the services. Callers must call close.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewSlogLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
	})
	logger.SetDefault(log)

	db, err := repository.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		_ = repository.Close(db)
		return nil, err
	}

	rec := metrics.New()
	purchaseRepo := repository.NewPurchaseRepository(db)
	snapshotRepo := repository.NewAnalyticsRepository(db)

	a := &app{
		cfg:          cfg,
		db:           db,
		log:          log,
		metrics:      rec,
		purchaseRepo: purchaseRepo,
		snapshotRepo: snapshotRepo,
	}
	analyticsSvc := a.newAnalyticsService(cfg.Batch.Concurrency)

	a.analytics = analyticsSvc
	a.purchases = service.NewPurchaseService(purchaseRepo, snapshotRepo, analyticsSvc, service.PurchaseOptions{
		FutureTolerance: cfg.Analytics.FutureTolerance,
		ConflictRetries: cfg.Analytics.ConflictRetries,
	})
	a.predictions = service.NewPredictionService(snapshotRepo, service.PredictionOptions{
		DefaultThreshold: cfg.Prediction.DefaultThreshold,
		DefaultLimit:     cfg.Prediction.DefaultLimit,
		Metrics:          rec,
	})
	return a, nil
}

// newAnalyticsService builds an aggregator over the app's stores with the
// given batch concurrency.
func (a *app) newAnalyticsService(concurrency int) service.AnalyticsService {
	return service.NewAnalyticsService(a.purchaseRepo, a.snapshotRepo, service.AnalyticsOptions{
		Seasonal:    seasonalConfig(a.cfg.Analytics),
		Concurrency: concurrency,
		Metrics:     a.metrics,
		Logger:      a.log,
	})
}

func (a *app) ping(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *app) close() {
	if err := repository.Close(a.db); err != nil {
		a.log.Warn("failed to close database", logger.Err(err))
	}
}

func seasonalConfig(cfg config.AnalyticsConfig) analytics.SeasonalConfig {
	return analytics.SeasonalConfig{
		Mode:          analytics.SeasonalMode(cfg.SeasonalMode),
		PeriodDays:    cfg.SeasonalPeriodDays,
		Concentration: cfg.SeasonalConcentration,
		MinSamples:    cfg.SeasonalMinSamples,
		Location:      cfg.Location(),
	}
}
