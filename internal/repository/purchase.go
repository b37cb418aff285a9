package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JonnyWalker81/restock/backend/internal/models"
)

type purchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository creates a gorm-backed purchase event store.
func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, event *models.PurchaseEvent) (*models.PurchaseEvent, error) {
	row := *event
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("purchase %s: %w", row.ID, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}
	return &row, nil
}

func (r *purchaseRepository) GetOrderedByKey(ctx context.Context, userID, productName string) ([]models.PurchaseEvent, error) {
	var events []models.PurchaseEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_name = ?", userID, productName).
		Order("purchased_at ASC").
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get purchases: %w", err)
	}
	return events, nil
}

func (r *purchaseRepository) CountOccasions(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseEvent{}).
		Where("user_id = ?", userID).
		Distinct("purchased_at").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count shopping occasions: %w", err)
	}
	return count, nil
}

func (r *purchaseRepository) ListKeys(ctx context.Context, userID string) ([]models.ProductKey, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PurchaseEvent{}).
		Select("DISTINCT user_id, product_name")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var keys []models.ProductKey
	if err := query.Order("user_id ASC").Order("product_name ASC").Scan(&keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list product keys: %w", err)
	}
	return keys, nil
}

func (r *purchaseRepository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.PurchaseEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete purchases: %w", result.Error)
	}
	return result.RowsAffected, nil
}
