package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/pagination"
)

type fakeRepository struct {
	createFn   func(ctx context.Context, notification *models.Notification) error
	markReadFn func(ctx context.Context, receiver string, id uuid.UUID, now time.Time) (notificationMarkResult, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, notification *models.Notification) error {
	if f.createFn != nil {
		return f.createFn(ctx, notification)
	}
	notification.ID = uuid.New()
	return nil
}

func (f *fakeRepository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (f *fakeRepository) MarkRead(ctx context.Context, receiver string, id uuid.UUID, now time.Time) (notificationMarkResult, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, receiver, id, now)
	}
	return notificationMarkResult{Found: true, Updated: true}, nil
}

func (f *fakeRepository) MarkAllRead(ctx context.Context, receiver string, now time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) SetStarred(ctx context.Context, receiver string, id uuid.UUID, starredAt *time.Time) (notificationMarkResult, error) {
	return notificationMarkResult{Found: true, Updated: true}, nil
}

func (f *fakeRepository) SoftDelete(ctx context.Context, receiver string, id uuid.UUID) (notificationMarkResult, error) {
	return notificationMarkResult{Found: true, Updated: true}, nil
}

type fakeEnqueuer struct {
	events []Event
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, event Event) bool {
	f.events = append(f.events, event)
	return true
}

func TestService_PublishValidation(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&fakeRepository{}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	cases := []struct {
		name  string
		input PublishInput
	}{
		{"empty receiver", PublishInput{Subject: "s", Message: "m", Type: enums.NotificationTypeStockAlert}},
		{"garbage receiver", PublishInput{Receiver: "user-42", Subject: "s", Message: "m", Type: enums.NotificationTypeStockAlert}},
		{"missing subject", PublishInput{Receiver: uuid.NewString(), Message: "m", Type: enums.NotificationTypeStockAlert}},
		{"missing message", PublishInput{Receiver: uuid.NewString(), Subject: "s", Type: enums.NotificationTypeStockAlert}},
		{"bad type", PublishInput{Receiver: uuid.NewString(), Subject: "s", Message: "m", Type: "carrier_pigeon"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Publish(ctx, tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_PublishEnqueuesEvent(t *testing.T) {
	t.Parallel()

	queue := &fakeEnqueuer{}
	svc, err := NewService(&fakeRepository{}, queue)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	receiver := uuid.NewString()
	stored, err := svc.Publish(context.Background(), PublishInput{
		Receiver: receiver,
		Sender:   "system",
		Subject:  "low stock",
		Message:  "warehouse A is down to 3 units",
		Type:     enums.NotificationTypeStockAlert,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if stored.ID == uuid.Nil {
		t.Fatal("expected stored notification to have an id")
	}
	if stored.State != enums.NotificationStateActive {
		t.Fatalf("expected active state, got %s", stored.State)
	}
	if len(queue.events) != 1 {
		t.Fatalf("expected one queued event, got %d", len(queue.events))
	}
	event := queue.events[0]
	if event.ID != stored.ID || event.Receiver != receiver || event.Subject != "low stock" {
		t.Fatalf("event does not match stored row: %+v", event)
	}
}

func TestService_PublishBroadcast(t *testing.T) {
	t.Parallel()

	queue := &fakeEnqueuer{}
	svc, err := NewService(&fakeRepository{}, queue)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Publish(context.Background(), PublishInput{
		Receiver: BroadcastReceiver,
		Subject:  "maintenance",
		Message:  "scheduled downtime tonight",
		Type:     enums.NotificationTypeSystemAnnouncement,
	})
	if err != nil {
		t.Fatalf("publish broadcast: %v", err)
	}
	if len(queue.events) != 1 || !queue.events[0].Broadcast() {
		t.Fatalf("expected broadcast event, got %+v", queue.events)
	}
}

func TestService_MarkReadNotFound(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{
		markReadFn: func(ctx context.Context, receiver string, id uuid.UUID, now time.Time) (notificationMarkResult, error) {
			return notificationMarkResult{}, nil
		},
	}
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = svc.MarkRead(context.Background(), uuid.NewString(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
