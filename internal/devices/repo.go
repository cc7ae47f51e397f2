package devices

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
)

// Repository stores push device tokens.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, token *models.DeviceToken) error
	DeleteByToken(ctx context.Context, userID, token string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.DeviceToken, error)
	ListAll(ctx context.Context) ([]models.DeviceToken, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a device token repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert re-homes an existing token to the current user. A token moves
// between accounts when a device logs into a different one.
func (r *repository) Upsert(ctx context.Context, token *models.DeviceToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	var existing models.DeviceToken
	err := r.db.WithContext(ctx).First(&existing, "token = ?", token.Token).Error
	if err == nil {
		return r.db.WithContext(ctx).
			Model(&existing).
			Updates(map[string]any{
				"user_id":  token.UserID,
				"platform": token.Platform,
			}).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return r.db.WithContext(ctx).Create(token).Error
}

// DeleteByToken only removes tokens the user owns, so one user cannot
// tear down another user's registration.
func (r *repository) DeleteByToken(ctx context.Context, userID, token string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&models.DeviceToken{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]models.DeviceToken, error) {
	var tokens []models.DeviceToken
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.DeviceToken, error) {
	var tokens []models.DeviceToken
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}
