package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stockroomhq/stockroom-backend/api/middleware"
	"github.com/stockroomhq/stockroom-backend/api/responses"
	"github.com/stockroomhq/stockroom-backend/internal/stream"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

const streamHeartbeatInterval = 25 * time.Second

// StopStream closes every live SSE connection the caller holds.
func StopStream(registry *stream.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		registry.Unsubscribe(userID)
		if logg != nil {
			logg.Info(logg.WithReceiver(r.Context(), userID), "stream.unsubscribed")
		}
		responses.WriteSuccess(w, map[string]any{"unsubscribed": true})
	}
}

// StreamEvents holds an SSE connection open and relays the caller's
// notification events until the client goes away.
func StreamEvents(registry *stream.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		conn := registry.Subscribe(userID)
		defer registry.Drop(conn)

		ctx := r.Context()
		if logg != nil {
			logCtx := logg.WithReceiver(ctx, userID)
			logg.Info(logCtx, "stream.open")
			defer logg.Info(logCtx, "stream.closed")
		}

		// Initial comment so proxies commit the connection.
		fmt.Fprint(w, ": connected\n\n")
		flusher.Flush()

		heartbeat := time.NewTicker(streamHeartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-conn.Done():
				return
			case <-heartbeat.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case event := <-conn.Events():
				payload, err := json.Marshal(event)
				if err != nil {
					if logg != nil {
						logg.Error(ctx, "encode stream event", err)
					}
					continue
				}
				fmt.Fprintf(w, "event: notification\nid: %s\ndata: %s\n\n", event.ID, payload)
				flusher.Flush()
			}
		}
	}
}
