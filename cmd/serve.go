package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "task-review-system.com/task-review-system/internal/configs"
	httpapi "task-review-system.com/task-review-system/internal/http"
	"task-review-system.com/task-review-system/internal/metrics"
	"task-review-system.com/task-review-system/internal/notify"
	repository "task-review-system.com/task-review-system/internal/repositories"
	"task-review-system.com/task-review-system/internal/services"
	"task-review-system.com/task-review-system/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the task review HTTP API and the notification dispatcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		taskRepo := repository.NewTaskRepository(db)
		eventRepo := repository.NewEventRepository(db)
		userRepo := repository.NewUserRepository(db)

		sink, closeSink, err := newSink(cfg, logger)
		if err != nil {
			return err
		}
		defer closeSink()

		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder, err := metrics.NewRecorder(registry)
		if err != nil {
			return err
		}

		dispatcher := services.NewDispatchService(eventRepo, sink, services.DispatchConfig{
			Workers:      cfg.DispatchWorkers,
			QueueSize:    cfg.DispatchQueueSize,
			PollInterval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
			BatchSize:    cfg.PollBatchSize,
		}, recorder, logger)

		opts := []services.ReviewOption{
			services.WithDispatcher(dispatcher),
			services.WithMetrics(recorder),
			services.WithLogger(logger),
		}
		if cfg.VerifyActorRole {
			opts = append(opts, services.WithRoleVerification(userRepo))
		}
		reviews := services.NewReviewService(
			taskRepo,
			eventRepo,
			workflow.New(workflow.WithOwnershipChecks(cfg.EnforceOwnership)),
			opts...,
		)

		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		httpapi.Register(e, httpapi.NewHandler(reviews), httpapi.RouteOptions{
			RateLimitPerMinute: cfg.RateLimit,
			Logger:             logger,
			Gatherer:           registry,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			logger.Info("HTTP server listening",
				zap.String("addr", cfg.AppURL),
				zap.String("notify_sink", cfg.NotifySink),
				zap.Bool("enforce_ownership", cfg.EnforceOwnership),
				zap.Bool("verify_actor_role", cfg.VerifyActorRole),
			)
			if err := e.Start(cfg.AppURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server stopped", zap.Error(err))
				stop()
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown", zap.Error(err))
		}
		dispatcher.Shutdown(shutdownCtx)

		logger.Info("HTTP server and dispatcher shut down gracefully")
		return nil
	},
}

func newSink(cfg config.Config, logger *zap.Logger) (notify.Sink, func(), error) {
	if cfg.NotifySink != config.SinkRedis {
		return notify.NewLogSink(logger), func() {}, nil
	}

	client, err := config.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	return notify.NewRedisSink(client, cfg.NotifyKeyPrefix), client.Close, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
