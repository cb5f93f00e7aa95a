package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "assignmint.com/assignmint/internal/configs"
	"assignmint.com/assignmint/internal/events"
	httpapi "assignmint.com/assignmint/internal/http"
	"assignmint.com/assignmint/internal/ratelimit"
	repository "assignmint.com/assignmint/internal/repositories"
	"assignmint.com/assignmint/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the AssignMint HTTP API and the live feed subscription hub",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logger, err := config.NewLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		db, err := config.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		if err := config.Migrate(db); err != nil {
			return err
		}

		store := repository.NewStore(db, cfg.TxMaxRetries)

		hub := services.NewSubscriptionHub(
			repository.NewTaskRepository(db),
			time.Duration(cfg.SubscriptionPollSeconds)*time.Second,
			logger.Named("hub"),
		)
		store.OnCommit(hub.Notify)

		var publisher events.Publisher = events.NopPublisher{}
		if cfg.NatsURL != "" {
			natsClient, err := events.ConnectWithRetry(cfg.NatsURL, time.Duration(cfg.NatsConnectTimeoutSecond)*time.Second)
			if err != nil {
				return err
			}
			defer natsClient.Close()
			publisher = natsClient.Publisher()
			logger.Info("publishing task events to nats", zap.String("url", cfg.NatsURL))
		}

		var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit, time.Minute)
		if cfg.RedisEnabled {
			redisClient, err := config.NewRedisClient(cfg.RedisAddr)
			if err != nil {
				return err
			}
			defer redisClient.Close()
			limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RedisRateLimitPrefix, cfg.RateLimit, time.Minute)
		}

		notifications := services.NewNotificationService(store, logger.Named("notifications"))
		taskService := services.NewTaskService(store, notifications, publisher, logger.Named("tasks"))
		matchingService := services.NewMatchingService(store, notifications, hub, publisher, cfg.FeedPageSize, logger.Named("matching"))
		deliveryService := services.NewDeliveryService(store, notifications, publisher, logger.Named("delivery"))

		e := echo.New()
		e.HideBanner = true
		e.HidePort = true

		handler := httpapi.NewHandler(taskService, matchingService, deliveryService, notifications, logger)
		httpapi.Register(e, handler, httpapi.RouteOptions{
			Limiter:   limiter,
			JWTSecret: []byte(cfg.AuthJWTSecret),
			Logger:    logger.Named("http"),
		})

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			logger.Info("HTTP server listening", zap.String("addr", cfg.AppURL))
			if err := e.Start(cfg.AppURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server stopped", zap.Error(err))
				stop()
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()

		// stop the hub first so open feed streams return and the server can drain
		hub.Shutdown(shutdownCtx)
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}

		logger.Info("HTTP server and subscription hub shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
