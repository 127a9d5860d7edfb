// internal/database/orders.go
package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/storefront/internal/models"
)

// OrderArchive keeps every completed order in postgres.
type OrderArchive struct {
	db *gorm.DB
}

func NewOrderArchive(db *gorm.DB) *OrderArchive {
	return &OrderArchive{db: db}
}

// Archive stores the order and its lines. An order id that is already archived is left as is.
func (a *OrderArchive) Archive(ctx context.Context, order models.OrderSnapshot) error {
	record := models.NewOrderRecord(order)

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&record)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 || len(record.Lines) == 0 {
			return nil
		}
		return tx.Create(&record.Lines).Error
	})
	if err != nil {
		return fmt.Errorf("failed to archive order %s: %w", order.OrderID, err)
	}
	return nil
}

// ForOwner lists an owner's archived orders, newest first.
func (a *OrderArchive) ForOwner(ctx context.Context, ownerID string, limit int) ([]models.OrderRecord, error) {
	var records []models.OrderRecord
	err := a.db.WithContext(ctx).
		Preload("Lines").
		Where("owner_id = ?", ownerID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return records, nil
}
