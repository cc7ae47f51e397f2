package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// Notification stores one message to deliver. Receiver is a user id as a
// string, or the literal "ALL" for broadcasts. Rows are soft-deleted by
// flipping State; the audit trail stays intact.
type Notification struct {
	ID        uuid.UUID               `gorm:"type:uuid;primaryKey"`
	Receiver  string                  `gorm:"type:text;not null;index"`
	Sender    string                  `gorm:"type:text;not null"`
	Subject   string                  `gorm:"type:text;not null"`
	Message   string                  `gorm:"type:text;not null"`
	Link      *string                 `gorm:"type:text"`
	Type      enums.NotificationType  `gorm:"type:text;not null"`
	Category  string                  `gorm:"type:text"`
	Kind      string                  `gorm:"type:text"`
	ReadAt    *time.Time
	StarredAt *time.Time
	State     enums.NotificationState `gorm:"type:text;not null;default:active"`
	CreatedAt time.Time               `gorm:"autoCreateTime"`
}
