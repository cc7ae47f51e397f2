package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	"github.com/stockroomhq/stockroom-backend/pkg/pagination"
)

// BroadcastReceiver is the sentinel receiver for notifications addressed to
// every user.
const BroadcastReceiver = "ALL"

// Repository exposes persistence helpers for notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	MarkRead(ctx context.Context, receiver string, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error)
	MarkAllRead(ctx context.Context, receiver string, now time.Time) (int64, error)
	SetStarred(ctx context.Context, receiver string, notificationID uuid.UUID, starredAt *time.Time) (notificationMarkResult, error)
	SoftDelete(ctx context.Context, receiver string, notificationID uuid.UUID) (notificationMarkResult, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listNotificationsParams struct {
	Receiver    string
	Limit       int
	Cursor      *pagination.Cursor
	UnreadOnly  bool
	StarredOnly bool
}

type notificationMarkResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.State == "" {
		notification.State = enums.NotificationStateActive
	}
	return r.db.WithContext(ctx).Create(notification).Error
}

// List returns a receiver's page of notifications, newest first. Broadcast
// rows are folded in; deleted rows never surface.
func (r *repositoryImpl) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("receiver IN (?, ?)", params.Receiver, BroadcastReceiver).
		Where("state = ?", enums.NotificationStateActive)
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if params.StarredOnly {
		query = query.Where("starred_at IS NOT NULL")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, nil, err
	}

	if len(notifications) > normalized {
		notifications = notifications[:normalized]
		// The follow-up query filters strictly below the cursor, so the
		// cursor must be the last row handed out, not the first withheld one.
		last := notifications[normalized-1]
		return notifications, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return notifications, nil, nil
}

func (r *repositoryImpl) MarkRead(ctx context.Context, receiver string, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND receiver = ? AND state = ? AND read_at IS NULL",
			notificationID, receiver, enums.NotificationStateActive).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return notificationMarkResult{}, result.Error
	}

	mark := notificationMarkResult{Updated: result.RowsAffected > 0}
	if result.RowsAffected > 0 {
		mark.Found = true
		return mark, nil
	}
	return r.checkExists(ctx, receiver, notificationID, mark)
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, receiver string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("receiver = ? AND state = ? AND read_at IS NULL", receiver, enums.NotificationStateActive).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SetStarred stars the row when starredAt is non-nil and clears the star
// otherwise.
func (r *repositoryImpl) SetStarred(ctx context.Context, receiver string, notificationID uuid.UUID, starredAt *time.Time) (notificationMarkResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND receiver = ? AND state = ?",
			notificationID, receiver, enums.NotificationStateActive).
		UpdateColumn("starred_at", starredAt)
	if result.Error != nil {
		return notificationMarkResult{}, result.Error
	}

	mark := notificationMarkResult{Updated: result.RowsAffected > 0}
	if result.RowsAffected > 0 {
		mark.Found = true
		return mark, nil
	}
	return r.checkExists(ctx, receiver, notificationID, mark)
}

func (r *repositoryImpl) SoftDelete(ctx context.Context, receiver string, notificationID uuid.UUID) (notificationMarkResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND receiver = ? AND state = ?",
			notificationID, receiver, enums.NotificationStateActive).
		UpdateColumn("state", enums.NotificationStateDeleted)
	if result.Error != nil {
		return notificationMarkResult{}, result.Error
	}

	mark := notificationMarkResult{Updated: result.RowsAffected > 0}
	if result.RowsAffected > 0 {
		mark.Found = true
		return mark, nil
	}
	return r.checkExists(ctx, receiver, notificationID, mark)
}

func (r *repositoryImpl) checkExists(ctx context.Context, receiver string, notificationID uuid.UUID, mark notificationMarkResult) (notificationMarkResult, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND receiver = ? AND state = ?",
			notificationID, receiver, enums.NotificationStateActive).
		Count(&count).Error; err != nil {
		return notificationMarkResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}
