package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/api/middleware"
	"github.com/stockroomhq/stockroom-backend/api/responses"
	"github.com/stockroomhq/stockroom-backend/api/validators"
	"github.com/stockroomhq/stockroom-backend/internal/notifications"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

type publishNotificationRequest struct {
	Receiver string  `json:"receiver" validate:"required"`
	Sender   string  `json:"sender"`
	Subject  string  `json:"subject" validate:"required"`
	Message  string  `json:"message" validate:"required"`
	Link     *string `json:"link"`
	Type     string  `json:"type" validate:"required"`
	Category string  `json:"category"`
	Kind     string  `json:"kind"`
}

// PublishNotification stores a notification and kicks off delivery.
func PublishNotification(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req publishNotificationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notificationType, err := enums.ParseNotificationType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification type"))
			return
		}

		stored, err := svc.Publish(r.Context(), notifications.PublishInput{
			Receiver: req.Receiver,
			Sender:   req.Sender,
			Subject:  req.Subject,
			Message:  req.Message,
			Link:     req.Link,
			Type:     notificationType,
			Category: req.Category,
			Kind:     req.Kind,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, stored)
	}
}

// ListNotifications returns the caller's paginated notifications.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receiver := middleware.UserIDFromContext(r.Context())
		if receiver == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		params := notifications.ListParams{Receiver: receiver}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit

		if cursor := strings.TrimSpace(r.URL.Query().Get("cursor")); cursor != "" {
			params.Cursor = cursor
		}
		if params.UnreadOnly, err = validators.ParseQueryBool(r, "unreadOnly"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.StarredOnly, err = validators.ParseQueryBool(r, "starredOnly"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// MarkNotificationRead flags one notification as read.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return notificationAction(logg, svc.MarkRead)
}

// StarNotification pins a notification.
func StarNotification(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return notificationAction(logg, svc.Star)
}

// UnstarNotification removes the pin.
func UnstarNotification(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return notificationAction(logg, svc.Unstar)
}

// DeleteNotification soft-deletes a notification.
func DeleteNotification(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return notificationAction(logg, svc.Delete)
}

// MarkAllNotificationsRead flags every unread notification for the caller.
func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receiver := middleware.UserIDFromContext(r.Context())
		if receiver == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		count, err := svc.MarkAllRead(r.Context(), receiver)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": count})
	}
}

func notificationAction(
	logg *logger.Logger,
	action func(ctx context.Context, receiver string, notificationID uuid.UUID) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receiver := middleware.UserIDFromContext(r.Context())
		if receiver == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		notificationID, err := uuid.Parse(chi.URLParam(r, "notificationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification id"))
			return
		}

		if err := action(r.Context(), receiver, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
