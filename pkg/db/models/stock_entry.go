package models

import (
	"time"

	"github.com/google/uuid"
)

// StockEntry tracks available/reserved counts per (product, location) pair.
// Entries are never deleted, only driven to zero.
type StockEntry struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_entries_product_location"`
	LocationID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_entries_product_location"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	ReservedQty  int       `gorm:"column:reserved_qty;not null;default:0"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}
