package push

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockroomhq/stockroom-backend/internal/notifications"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/metrics"
)

// Sender posts a single push message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// TokenResolver looks up device tokens for delivery.
type TokenResolver interface {
	ListByUser(ctx context.Context, userID string) ([]models.DeviceToken, error)
	ListAll(ctx context.Context) ([]models.DeviceToken, error)
}

// Dispatcher sends notification events to the user's registered devices.
// Delivery is best effort: gateway failures are logged and counted, never
// returned to the publisher.
type Dispatcher struct {
	sender Sender
	tokens TokenResolver
	logg   *logger.Logger
	met    *metrics.DeliveryMetrics
}

// NewDispatcher wires the push delivery sink.
func NewDispatcher(sender Sender, tokens TokenResolver, logg *logger.Logger, met *metrics.DeliveryMetrics) (*Dispatcher, error) {
	if sender == nil {
		return nil, fmt.Errorf("push sender required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{sender: sender, tokens: tokens, logg: logg, met: met}, nil
}

// Name implements the delivery sink contract.
func (d *Dispatcher) Name() string {
	return "push"
}

// Deliver resolves the event's device tokens and dispatches one message per
// token. A broadcast goes to every registered device.
func (d *Dispatcher) Deliver(ctx context.Context, event notifications.Event) error {
	var (
		tokens []models.DeviceToken
		err    error
	)
	if event.Broadcast() {
		tokens, err = d.tokens.ListAll(ctx)
	} else {
		tokens, err = d.tokens.ListByUser(ctx, event.Receiver)
	}
	if err != nil {
		return fmt.Errorf("resolve device tokens: %w", err)
	}

	for _, token := range tokens {
		d.Dispatch(ctx, token.Token, event.Subject, event.Message)
	}
	return nil
}

// Dispatch sends one message. An empty token is a no-op; a gateway failure
// is logged and swallowed so the caller never blocks on a bad device.
func (d *Dispatcher) Dispatch(ctx context.Context, token, title, body string) {
	if strings.TrimSpace(token) == "" {
		return
	}

	msg := Message{To: token, Title: title, Body: body, Sound: "default"}
	if err := d.sender.Send(ctx, msg); err != nil {
		d.met.IncFailure(d.Name())
		logCtx := d.logg.WithField(ctx, "push_token", truncateToken(token))
		d.logg.Error(logCtx, "push dispatch failed", err)
	}
}

// truncateToken keeps logs useful without spilling the whole credential.
func truncateToken(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}
