package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JonnyWalker81/restock/backend/internal/models"
)

// snapshotColumns are overwritten on conflict. Identity columns and
// created_at keep their first-insert values.
var snapshotColumns = []string{
	"total_purchases",
	"last_purchase_at",
	"avg_interval_days",
	"min_interval_days",
	"max_interval_days",
	"std_dev_interval_days",
	"days_since_last_purchase",
	"urgency_score",
	"repurchase_probability",
	"seasonal_pattern",
	"is_seasonal",
	"estimated_next_purchase_at",
	"updated_at",
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a gorm-backed snapshot store.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Upsert(ctx context.Context, snapshot *models.ProductAnalytics) error {
	row := *snapshot
	if row.ID == "" {
		row.ID = models.AnalyticsID(row.UserID, row.ProductName)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_name"}},
			DoUpdates: clause.AssignmentColumns(snapshotColumns),
			// A writer that read fewer events must not replace a newer snapshot.
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "product_analytics.total_purchases <= excluded.total_purchases"},
			}},
		}).Create(&row)
		if result.Error != nil {
			return fmt.Errorf("failed to upsert analytics: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}

		var stored models.ProductAnalytics
		if err := tx.Select("created_at").
			Where("user_id = ? AND product_name = ?", row.UserID, row.ProductName).
			Take(&stored).Error; err != nil {
			return fmt.Errorf("failed to read stored analytics: %w", err)
		}
		snapshot.CreatedAt = stored.CreatedAt
		return nil
	})
}

func (r *analyticsRepository) GetByKey(ctx context.Context, userID, productName string) (*models.ProductAnalytics, error) {
	var snapshot models.ProductAnalytics
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_name = ?", userID, productName).
		Take(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get analytics: %w", err)
	}
	return &snapshot, nil
}

func (r *analyticsRepository) GetByUserID(ctx context.Context, userID string) ([]models.ProductAnalytics, error) {
	var snapshots []models.ProductAnalytics
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("product_name ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics: %w", err)
	}
	return snapshots, nil
}

func (r *analyticsRepository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.ProductAnalytics{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete analytics: %w", result.Error)
	}
	return result.RowsAffected, nil
}
