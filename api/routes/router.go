package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stockroomhq/stockroom-backend/api/controllers"
	"github.com/stockroomhq/stockroom-backend/api/middleware"
	"github.com/stockroomhq/stockroom-backend/internal/devices"
	"github.com/stockroomhq/stockroom-backend/internal/notifications"
	"github.com/stockroomhq/stockroom-backend/internal/stock"
	"github.com/stockroomhq/stockroom-backend/internal/stream"
	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	pkgredis "github.com/stockroomhq/stockroom-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP pkgredis.Pinger,
	stockService stock.Service,
	notificationsService notifications.Service,
	devicesService devices.Service,
	registry *stream.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/stock", func(r chi.Router) {
			r.Post("/entries", controllers.CreateStockEntry(stockService, logg))
			r.Get("/entries/{entryId}", controllers.GetStockEntry(stockService, logg))
			r.Get("/products/{productId}/entries", controllers.ListStockByProduct(stockService, logg))
			r.Get("/locations/{locationId}/entries", controllers.ListStockByLocation(stockService, logg))
			r.Post("/entries/{entryId}/add", controllers.AddStock(stockService, logg))
			r.Post("/entries/{entryId}/reserve", controllers.ReserveStock(stockService, logg))
			r.Post("/entries/{entryId}/confirm", controllers.ConfirmStock(stockService, logg))
			r.Post("/entries/{entryId}/release", controllers.ReleaseStock(stockService, logg))
			r.Get("/entries/{entryId}/transactions", controllers.ListStockTransactions(stockService, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Post("/", controllers.PublishNotification(notificationsService, logg))
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/{notificationId}/star", controllers.StarNotification(notificationsService, logg))
			r.Delete("/{notificationId}/star", controllers.UnstarNotification(notificationsService, logg))
			r.Delete("/{notificationId}", controllers.DeleteNotification(notificationsService, logg))
		})

		r.Route("/v1/devices", func(r chi.Router) {
			r.Post("/", controllers.RegisterDevice(devicesService, logg))
			r.Delete("/", controllers.UnregisterDevice(devicesService, logg))
			r.Get("/", controllers.ListDevices(devicesService, logg))
		})

		r.Get("/v1/stream", controllers.StreamEvents(registry, logg))
		r.Delete("/v1/stream", controllers.StopStream(registry, logg))
	})

	return r
}
