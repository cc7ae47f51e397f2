package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/pagination"
)

// Enqueuer hands stored notifications to async delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, event Event) bool
}

// Service defines notification publish/list/read operations.
type Service interface {
	Publish(ctx context.Context, input PublishInput) (*models.Notification, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, receiver string, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, receiver string) (int64, error)
	Star(ctx context.Context, receiver string, notificationID uuid.UUID) error
	Unstar(ctx context.Context, receiver string, notificationID uuid.UUID) error
	Delete(ctx context.Context, receiver string, notificationID uuid.UUID) error
}

type service struct {
	repo  Repository
	queue Enqueuer
}

// PublishInput describes a notification to store and deliver.
type PublishInput struct {
	Receiver string                 `json:"receiver" validate:"required"`
	Sender   string                 `json:"sender"`
	Subject  string                 `json:"subject" validate:"required"`
	Message  string                 `json:"message" validate:"required"`
	Link     *string                `json:"link"`
	Type     enums.NotificationType `json:"type" validate:"required"`
	Category string                 `json:"category"`
	Kind     string                 `json:"kind"`
}

// ListParams configures pagination for notifications.
type ListParams struct {
	Receiver    string
	Limit       int
	Cursor      string
	UnreadOnly  bool
	StarredOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notification dependencies. The enqueuer may be nil, in
// which case publish only persists.
func NewService(repo Repository, queue Enqueuer) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, queue: queue}, nil
}

// validReceiver accepts a uuid user id or the broadcast sentinel.
func validReceiver(receiver string) bool {
	if receiver == BroadcastReceiver {
		return true
	}
	id, err := uuid.Parse(receiver)
	return err == nil && id != uuid.Nil
}

// Publish stores the notification and returns once the row is durable.
// Delivery to streams and devices happens after the fact and never fails
// the call.
func (s *service) Publish(ctx context.Context, input PublishInput) (*models.Notification, error) {
	if !validReceiver(input.Receiver) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receiver must be a user id or ALL")
	}
	if input.Subject == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject is required")
	}
	if input.Message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}

	notification := &models.Notification{
		Receiver: input.Receiver,
		Sender:   input.Sender,
		Subject:  input.Subject,
		Message:  input.Message,
		Link:     input.Link,
		Type:     input.Type,
		Category: input.Category,
		Kind:     input.Kind,
		State:    enums.NotificationStateActive,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store notification")
	}

	if s.queue != nil {
		s.queue.Enqueue(ctx, EventFromModel(notification))
	}
	return notification, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Receiver == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receiver required")
	}

	query := listNotificationsParams{
		Receiver:    params.Receiver,
		Limit:       params.Limit,
		UnreadOnly:  params.UnreadOnly,
		StarredOnly: params.StarredOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, receiver string, notificationID uuid.UUID) error {
	if err := requireTarget(receiver, notificationID); err != nil {
		return err
	}
	result, err := s.repo.MarkRead(ctx, receiver, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, receiver string) (int64, error) {
	if receiver == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "receiver required")
	}
	count, err := s.repo.MarkAllRead(ctx, receiver, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) Star(ctx context.Context, receiver string, notificationID uuid.UUID) error {
	now := time.Now().UTC()
	return s.setStarred(ctx, receiver, notificationID, &now)
}

func (s *service) Unstar(ctx context.Context, receiver string, notificationID uuid.UUID) error {
	return s.setStarred(ctx, receiver, notificationID, nil)
}

func (s *service) setStarred(ctx context.Context, receiver string, notificationID uuid.UUID, starredAt *time.Time) error {
	if err := requireTarget(receiver, notificationID); err != nil {
		return err
	}
	result, err := s.repo.SetStarred(ctx, receiver, notificationID, starredAt)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update notification star")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

// Delete flips the row to the deleted state. The row stays behind for the
// audit trail and stops surfacing in lists.
func (s *service) Delete(ctx context.Context, receiver string, notificationID uuid.UUID) error {
	if err := requireTarget(receiver, notificationID); err != nil {
		return err
	}
	result, err := s.repo.SoftDelete(ctx, receiver, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notification")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func requireTarget(receiver string, notificationID uuid.UUID) error {
	if receiver == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "receiver required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	return nil
}
