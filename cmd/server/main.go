package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"deliveryPanel/internal/config"
	"deliveryPanel/internal/modules/schedules/application/handler"
	"deliveryPanel/internal/modules/schedules/application/port"
	"deliveryPanel/internal/modules/schedules/application/usecase"
	"deliveryPanel/internal/modules/schedules/infrastructure"
	transport "deliveryPanel/internal/modules/schedules/interface"
	"deliveryPanel/internal/platform/broker"
	"deliveryPanel/internal/platform/metrics"
	"deliveryPanel/internal/shared/auth"
	"deliveryPanel/internal/shared/logging"
)

func main() {
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logFile, logger, err := setupLogging(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(logger)
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))
	slog.Info("backend config resolved", slog.String("baseUrl", cfg.REST.BaseURL), slog.Duration("timeout", cfg.REST.Timeout), slog.Bool("mergeDays", cfg.Schedule.MergeDays))
	slog.Info("kafka config resolved", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("group", cfg.Kafka.GroupID), slog.Any("topics", cfg.Kafka.ScheduleTopics))

	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, closeCache := buildEntryCache(ctx, cfg)
	defer closeCache()

	rest := infrastructure.NewRESTClient(cfg.REST.BaseURL, infrastructure.RESTOptions{
		Timeout:       cfg.REST.Timeout,
		RatePerSecond: cfg.REST.RateLimit,
		Burst:         cfg.REST.RateBurst,
	})
	gateway := infrastructure.NewScheduleHTTPClient(rest, endpointPaths(cfg.Schedule.Endpoints))

	validator := auth.NewJWTValidatorWithPublicKey(cfg.Security.JWTSecret, cfg.Security.JWTPublicKey)
	sessions := auth.NewSessionRegistry(validator)

	hub := infrastructure.NewHub()
	broadcastUC := usecase.NewBroadcastUseCase(hub)
	reconcileUC := usecase.NewReconcileUseCase(gateway, cache, usecase.ReconcileOptions{MergeDays: cfg.Schedule.MergeDays})
	openUC := usecase.NewOpenStateUseCase(gateway, cache, time.Now)

	router := infrastructure.NewEventRouter()
	for _, topic := range cfg.Kafka.ScheduleTopics {
		router.Add(handler.NewScheduleEventHandler(topic, cfg.Kafka.ScheduleActions, cache, openUC, broadcastUC))
	}
	broker.StartKafkaConsumers(ctx, router, cfg.Kafka.Brokers, cfg.Kafka.GroupID, router.Topics())

	go refreshOpenStates(ctx, openUC, broadcastUC, cfg.Websocket.RefreshInterval)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(log.Writer())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	sessionHandler := transport.NewSessionHandler(sessions)
	e.POST("/api/session", sessionHandler.Open)

	api := e.Group("/api", transport.SessionMiddleware(sessions))
	api.DELETE("/session", sessionHandler.Close)
	transport.NewScheduleHandler(reconcileUC, openUC).Register(api)

	e.GET("/ws/merchants/:merchantId/open", transport.NewOpenStateWebsocketHandler(hub, sessions, openUC, broadcastUC, cfg.Websocket.SendBuffer))

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", slog.Any("error", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown error", slog.Any("error", err))
	}
	hub.Shutdown()
}

func endpointPaths(c config.EndpointsConfig) infrastructure.EndpointPaths {
	return infrastructure.EndpointPaths{
		List:   c.List,
		Create: c.Create,
		Delete: c.Delete,
		Link:   c.Link,
		Unlink: c.Unlink,
		IsOpen: c.IsOpen,
	}.WithDefaults()
}

func buildEntryCache(ctx context.Context, cfg *config.Config) (port.EntryCache, func()) {
	if !cfg.Redis.Enabled() {
		slog.Info("entry cache in memory", slog.Duration("ttl", cfg.Schedule.EntryCacheTTL))
		return infrastructure.NewMemoryEntryCache(cfg.Schedule.EntryCacheTTL), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unavailable, entry cache in memory", slog.String("addr", cfg.Redis.Addr), slog.Any("error", err))
		_ = client.Close()
		return infrastructure.NewMemoryEntryCache(cfg.Schedule.EntryCacheTTL), func() {}
	}
	slog.Info("entry cache in redis", slog.String("addr", cfg.Redis.Addr), slog.Duration("ttl", cfg.Schedule.EntryCacheTTL))
	return infrastructure.NewRedisEntryCache(client, cfg.Schedule.EntryCacheTTL), func() { _ = client.Close() }
}

// refreshOpenStates re-evaluates watched merchants on a fixed interval; open/closed flips with the clock.
func refreshOpenStates(ctx context.Context, openUC *usecase.OpenStateUseCase, broadcastUC *usecase.BroadcastUseCase, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			openUC.RefreshAll(ctx, broadcastUC)
		}
	}
}

func setupLogging(cfg config.LoggingConfig) (*os.File, *slog.Logger, error) {
	file, err := logging.OpenDailyFile(cfg.Directory, time.Now())
	if err != nil {
		return nil, nil, err
	}

	writer := io.MultiWriter(os.Stdout, file)
	logger := logging.New(writer, logging.Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		AddSource: true,
		Service:   "delivery-panel",
	})
	log.SetOutput(writer)
	log.SetFlags(0)
	log.SetPrefix("")

	return file, logger, nil
}
