package models

import (
	"time"

	"github.com/google/uuid"
)

// DeviceToken maps a user to a push-capable device. Tokens are resolved at
// dispatch time; a user may hold several.
type DeviceToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:text;not null;index"`
	Token     string    `gorm:"type:text;not null;uniqueIndex:idx_device_tokens_token"`
	Platform  string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
