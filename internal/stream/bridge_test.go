package stream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/internal/notifications"
)

type fakePublisher struct {
	err      error
	channel  string
	payloads [][]byte
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	f.channel = channel
	f.payloads = append(f.payloads, payload)
	return f.err
}

func TestBridgeSink_Deliver(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	sink, err := NewBridgeSink(pub, "sr:events:notification-events")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	event := notifications.Event{ID: uuid.New(), Receiver: uuid.NewString(), Subject: "hi"}
	if err := sink.Deliver(context.Background(), event); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if pub.channel != "sr:events:notification-events" {
		t.Fatalf("published to wrong channel: %s", pub.channel)
	}
	if len(pub.payloads) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.payloads))
	}

	var decoded notifications.Event
	if err := json.Unmarshal(pub.payloads[0], &decoded); err != nil {
		t.Fatalf("payload not valid json: %v", err)
	}
	if decoded.ID != event.ID {
		t.Fatalf("payload mismatch: %+v", decoded)
	}
}

func TestBridgeSink_PublishError(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: errors.New("connection refused")}
	sink, err := NewBridgeSink(pub, "sr:events:notification-events")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	if err := sink.Deliver(context.Background(), notifications.Event{ID: uuid.New()}); err == nil {
		t.Fatal("expected publish error to surface to the hub")
	}
}
