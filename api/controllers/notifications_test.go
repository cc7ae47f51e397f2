package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/api/middleware"
	"github.com/stockroomhq/stockroom-backend/internal/notifications"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

type testNotificationsService struct {
	publishFn     func(ctx context.Context, input notifications.PublishInput) (*models.Notification, error)
	listFn        func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markReadFn    func(ctx context.Context, receiver string, notificationID uuid.UUID) error
	markAllReadFn func(ctx context.Context, receiver string) (int64, error)
	starFn        func(ctx context.Context, receiver string, notificationID uuid.UUID) error
	unstarFn      func(ctx context.Context, receiver string, notificationID uuid.UUID) error
	deleteFn      func(ctx context.Context, receiver string, notificationID uuid.UUID) error
}

func (s *testNotificationsService) Publish(ctx context.Context, input notifications.PublishInput) (*models.Notification, error) {
	if s.publishFn != nil {
		return s.publishFn(ctx, input)
	}
	return nil, nil
}

func (s *testNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return nil, nil
}

func (s *testNotificationsService) MarkRead(ctx context.Context, receiver string, notificationID uuid.UUID) error {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, receiver, notificationID)
	}
	return nil
}

func (s *testNotificationsService) MarkAllRead(ctx context.Context, receiver string) (int64, error) {
	if s.markAllReadFn != nil {
		return s.markAllReadFn(ctx, receiver)
	}
	return 0, nil
}

func (s *testNotificationsService) Star(ctx context.Context, receiver string, notificationID uuid.UUID) error {
	if s.starFn != nil {
		return s.starFn(ctx, receiver, notificationID)
	}
	return nil
}

func (s *testNotificationsService) Unstar(ctx context.Context, receiver string, notificationID uuid.UUID) error {
	if s.unstarFn != nil {
		return s.unstarFn(ctx, receiver, notificationID)
	}
	return nil
}

func (s *testNotificationsService) Delete(ctx context.Context, receiver string, notificationID uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, receiver, notificationID)
	}
	return nil
}

func testControllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestPublishNotificationSuccess(t *testing.T) {
	receiver := uuid.NewString()
	var got notifications.PublishInput
	svc := &testNotificationsService{
		publishFn: func(ctx context.Context, input notifications.PublishInput) (*models.Notification, error) {
			got = input
			return &models.Notification{
				ID:       uuid.New(),
				Receiver: input.Receiver,
				Subject:  input.Subject,
				Message:  input.Message,
				Type:     input.Type,
			}, nil
		},
	}

	body := `{"receiver":"` + receiver + `","subject":"Order shipped","message":"Your order left the warehouse","type":"order_alert"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	PublishNotification(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.Receiver != receiver {
		t.Fatalf("unexpected receiver %q", got.Receiver)
	}
	if got.Type != enums.NotificationTypeOrderAlert {
		t.Fatalf("unexpected type %q", got.Type)
	}
}

func TestPublishNotificationInvalidType(t *testing.T) {
	body := `{"receiver":"` + uuid.NewString() + `","subject":"s","message":"m","type":"smoke_signal"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	PublishNotification(&testNotificationsService{}, testControllerLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListNotificationsPassesFilters(t *testing.T) {
	userID := uuid.NewString()
	var got notifications.ListParams
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			got = params
			return &notifications.ListResult{Items: []models.Notification{}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=25&unreadOnly=true", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	resp := httptest.NewRecorder()
	ListNotifications(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.Receiver != userID {
		t.Fatalf("unexpected receiver %q", got.Receiver)
	}
	if got.Limit != 25 {
		t.Fatalf("unexpected limit %d", got.Limit)
	}
	if !got.UnreadOnly || got.StarredOnly {
		t.Fatalf("unexpected filters %+v", got)
	}
}

func TestListNotificationsMissingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	resp := httptest.NewRecorder()
	ListNotifications(&testNotificationsService{}, testControllerLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	userID := uuid.NewString()
	notificationID := uuid.New()
	called := false
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, receiver string, id uuid.UUID) error {
			called = true
			if receiver != userID {
				t.Fatalf("unexpected receiver %q", receiver)
			}
			if id != notificationID {
				t.Fatalf("unexpected notification %s", id)
			}
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	req = addRouteParam(req, "notificationId", notificationID.String())
	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
}

func TestMarkNotificationReadInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/invalid/read", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	req = addRouteParam(req, "notificationId", "invalid")
	resp := httptest.NewRecorder()
	MarkNotificationRead(&testNotificationsService{}, testControllerLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkAllNotificationsReadSuccess(t *testing.T) {
	userID := uuid.NewString()
	svc := &testNotificationsService{
		markAllReadFn: func(ctx context.Context, receiver string) (int64, error) {
			if receiver != userID {
				t.Fatalf("unexpected receiver %q", receiver)
			}
			return 5, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	resp := httptest.NewRecorder()
	MarkAllNotificationsRead(svc, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data map[string]float64 `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["updated"] != 5 {
		t.Fatalf("expected updated=5 got %v", envelope.Data["updated"])
	}
}
