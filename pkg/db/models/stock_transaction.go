package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// StockTransaction is the append-only audit record behind every stock
// mutation. Rows are created exactly once and never updated or deleted.
type StockTransaction struct {
	ID          uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	EntryID     uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Kind        enums.StockTransactionKind `gorm:"type:text;not null"`
	Quantity    int                        `gorm:"not null"`
	Reference   enums.StockReference       `gorm:"type:text;not null"`
	ReferenceID *string                    `gorm:"type:text"`
	CreatedAt   time.Time                  `gorm:"autoCreateTime"`
}
