package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stockroomhq/stockroom-backend/internal/notifications"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	pkgredis "github.com/stockroomhq/stockroom-backend/pkg/redis"
)

// Publisher is the slice of the Redis client the sink needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// BridgeSink publishes events onto the shared Redis channel. Every instance,
// including the publisher, picks them back up through its Bridge; that keeps
// local and remote connections on one code path.
type BridgeSink struct {
	pub     Publisher
	channel string
}

// NewBridgeSink builds the Redis-bound delivery sink.
func NewBridgeSink(pub Publisher, channel string) (*BridgeSink, error) {
	if pub == nil {
		return nil, fmt.Errorf("redis publisher required")
	}
	if channel == "" {
		return nil, fmt.Errorf("bridge channel required")
	}
	return &BridgeSink{pub: pub, channel: channel}, nil
}

// Name implements the delivery sink contract.
func (s *BridgeSink) Name() string {
	return "bridge"
}

// Deliver serializes the event and hands it to Redis.
func (s *BridgeSink) Deliver(ctx context.Context, event notifications.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := s.pub.Publish(ctx, s.channel, payload); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Bridge consumes the shared Redis channel and replays events into the
// local registry.
type Bridge struct {
	client   *pkgredis.Client
	registry *Registry
	channel  string
	logg     *logger.Logger
}

// NewBridge wires the Redis subscriber side of the fan-out.
func NewBridge(client *pkgredis.Client, registry *Registry, channel string, logg *logger.Logger) (*Bridge, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if registry == nil {
		return nil, fmt.Errorf("stream registry required")
	}
	if channel == "" {
		return nil, fmt.Errorf("bridge channel required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Bridge{client: client, registry: registry, channel: channel, logg: logg}, nil
}

// Run blocks consuming the channel until the context is canceled. Malformed
// payloads are logged and skipped.
func (b *Bridge) Run(ctx context.Context) error {
	sub, err := b.client.Subscribe(ctx, b.channel)
	if err != nil {
		return fmt.Errorf("subscribe bridge channel: %w", err)
	}
	defer sub.Close()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("bridge channel closed")
			}
			var event notifications.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logg.Error(ctx, "malformed bridge payload", err)
				continue
			}
			if err := b.registry.Deliver(ctx, event); err != nil {
				b.logg.Error(ctx, "bridge delivery failed", err)
			}
		}
	}
}
