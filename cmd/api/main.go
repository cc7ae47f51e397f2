package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stockroomhq/stockroom-backend/api/routes"
	"github.com/stockroomhq/stockroom-backend/internal/devices"
	"github.com/stockroomhq/stockroom-backend/internal/notifications"
	"github.com/stockroomhq/stockroom-backend/internal/push"
	"github.com/stockroomhq/stockroom-backend/internal/stock"
	"github.com/stockroomhq/stockroom-backend/internal/stream"
	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/metrics"
	"github.com/stockroomhq/stockroom-backend/pkg/migrate"
	"github.com/stockroomhq/stockroom-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deliveryMetrics := metrics.NewDeliveryMetrics(prometheus.DefaultRegisterer)
	registry := stream.NewRegistry(cfg.Fanout.StreamBuffer, logg)

	bridgeChannel := redisClient.ChannelKey(cfg.Fanout.Channel)
	bridgeSink, err := stream.NewBridgeSink(redisClient, bridgeChannel)
	if err != nil {
		logg.Error(runCtx, "failed to create bridge sink", err)
		os.Exit(1)
	}

	devicesRepo := devices.NewRepository(dbClient.DB())
	pushClient := push.NewClient(
		push.WithGatewayURL(cfg.Push.GatewayURL),
		push.WithTimeout(cfg.Push.Timeout),
	)
	pushDispatcher, err := push.NewDispatcher(pushClient, devicesRepo, logg, deliveryMetrics)
	if err != nil {
		logg.Error(runCtx, "failed to create push dispatcher", err)
		os.Exit(1)
	}

	hub, err := notifications.NewHub(cfg.Fanout, logg, deliveryMetrics, bridgeSink, pushDispatcher)
	if err != nil {
		logg.Error(runCtx, "failed to create fanout hub", err)
		os.Exit(1)
	}
	hub.Start(runCtx)
	defer hub.Stop()

	bridge, err := stream.NewBridge(redisClient, registry, bridgeChannel, logg)
	if err != nil {
		logg.Error(runCtx, "failed to create stream bridge", err)
		os.Exit(1)
	}
	go func() {
		if err := bridge.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(runCtx, "stream bridge stopped", err)
		}
	}()

	stockService, err := stock.NewService(dbClient, stock.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(runCtx, "failed to create stock service", err)
		os.Exit(1)
	}
	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()), hub)
	if err != nil {
		logg.Error(runCtx, "failed to create notifications service", err)
		os.Exit(1)
	}
	devicesService, err := devices.NewService(devicesRepo)
	if err != nil {
		logg.Error(runCtx, "failed to create devices service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			stockService,
			notificationsService,
			devicesService,
			registry,
		),
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
