package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fieldsync/internal/client"
	"fieldsync/internal/config"
	"fieldsync/internal/handler"
	"fieldsync/internal/lock"
	"fieldsync/internal/logger"
	"fieldsync/internal/repository"
	"fieldsync/internal/scheduler"
	"fieldsync/internal/service"
	"fieldsync/internal/storage"
	"fieldsync/internal/websocket"
	"fieldsync/pkg/validate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fieldsync agent: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.InitLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	defer store.Close()

	var locker lock.Locker = lock.NewKeyedLocker()
	if rs, ok := store.(*storage.RedisStore); ok {
		locker = lock.NewRedisLocker(rs.Client(), cfg.Storage.LockTTL)
	}

	reportRepo := repository.NewReportRepository(store)
	credRepo := repository.NewCredentialRepository(store)
	profileRepo := repository.NewProfileRepository(store)

	api := client.New(cfg.Remote.BaseURL, cfg.Remote.Timeout, credRepo)
	validator := validate.New(cfg.Validation.PhoneRegion)

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnPerUser,
		cfg.WebSocket.MaxMessageSize,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
	)
	go wsManager.Run(ctx)

	authService := service.NewAuthService(api, credRepo, validator)
	syncService := service.NewSyncService(reportRepo, api, locker, wsManager)
	reportService := service.NewReportService(reportRepo, api, locker, validator, wsManager)
	profileService := service.NewProfileService(profileRepo, api, validator)

	wsManager.SetMessageHandler(handler.NewWebSocketMessageHandler(syncService))

	router := handler.NewRouter(handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Product:   handler.NewProductHandler(),
		Report:    handler.NewReportHandler(reportService),
		Sync:      handler.NewSyncHandler(syncService),
		Profile:   handler.NewProfileHandler(profileService),
		WebSocket: handler.NewWebSocketHandler(wsManager, cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize),
	}, authService, cfg.CORS)

	sched := scheduler.NewScheduler(cfg.Scheduler, authService, syncService)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Info("starting fieldsync agent",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Server.Env),
			zap.String("storage", cfg.Storage.Backend),
			zap.String("remote", cfg.Remote.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Log.Info("shutting down agent")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Log.Info("agent stopped gracefully")
	return nil
}
