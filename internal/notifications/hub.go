package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/metrics"
)

// Sink receives events the hub fans out. Implementations must be safe for
// concurrent use; a sink error never propagates to the publisher.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}

// Hub buffers published events and fans them out to the configured sinks
// from a fixed worker pool. Enqueue never blocks: when the queue is full the
// event is dropped and counted, so a slow sink cannot stall publishers.
type Hub struct {
	queue   chan Event
	workers int
	sinks   []Sink
	logg    *logger.Logger
	met     *metrics.DeliveryMetrics

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewHub builds a fan-out hub. Sinks are fixed at construction.
func NewHub(cfg config.FanoutConfig, logg *logger.Logger, met *metrics.DeliveryMetrics, sinks ...Sink) (*Hub, error) {
	if logg == nil {
		return nil, fmt.Errorf("hub logger required")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Hub{
		queue:   make(chan Event, queueSize),
		workers: workers,
		sinks:   sinks,
		logg:    logg,
		met:     met,
		done:    make(chan struct{}),
	}, nil
}

// Start launches the worker pool. Workers exit when the context is canceled
// or Stop is called.
func (h *Hub) Start(ctx context.Context) {
	h.startOnce.Do(func() {
		for i := 0; i < h.workers; i++ {
			h.wg.Add(1)
			go h.worker(ctx)
		}
	})
}

// Stop shuts the pool down and waits for in-flight deliveries to finish.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
	h.wg.Wait()
}

// Enqueue hands an event to the pool. Returns false when the queue was full
// and the event was dropped.
func (h *Hub) Enqueue(ctx context.Context, event Event) bool {
	select {
	case h.queue <- event:
		return true
	default:
		h.met.IncDropped()
		logCtx := h.logg.WithFields(ctx, map[string]any{
			"notification_id": event.ID.String(),
			"receiver":        event.Receiver,
		})
		h.logg.Warn(logCtx, "fanout queue full, dropping event")
		return false
	}
}

func (h *Hub) worker(ctx context.Context) {
	defer h.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case event := <-h.queue:
			h.deliver(ctx, event)
		}
	}
}

// deliver pushes one event through every sink. Failures are aggregated and
// logged; delivery is best effort end to end.
func (h *Hub) deliver(ctx context.Context, event Event) {
	var errs error
	for _, sink := range h.sinks {
		start := time.Now()
		err := sink.Deliver(ctx, event)
		h.met.ObserveDuration(sink.Name(), time.Since(start))
		if err != nil {
			h.met.IncFailure(sink.Name())
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		h.met.IncSuccess(sink.Name())
	}
	if errs != nil {
		logCtx := h.logg.WithFields(ctx, map[string]any{
			"notification_id": event.ID.String(),
			"receiver":        event.Receiver,
		})
		h.logg.Error(logCtx, "event delivery incomplete", errs)
	}
}
