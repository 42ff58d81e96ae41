package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/northstarhq/northstar/internal/config"
	"github.com/northstarhq/northstar/internal/database"
	"github.com/northstarhq/northstar/internal/lock"
	"github.com/northstarhq/northstar/internal/logger"
	"github.com/northstarhq/northstar/internal/notify"
	"github.com/northstarhq/northstar/internal/services/copy"
	"github.com/northstarhq/northstar/internal/telemetry"
	"github.com/northstarhq/northstar/internal/templates"
	"github.com/northstarhq/northstar/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.SchedulerDebug || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_scheduler",
		zap.Bool("debug_mode", debugMode),
		zap.Duration("reminder_interval", cfg.ReminderInterval),
		zap.Duration("sweep_interval", cfg.SweepInterval),
	)

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(context.Background(), "northstar-scheduler", cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			defer func() {
				if err := telemetry.Shutdown(context.Background(), tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := db.EnsureReady(context.Background()); err != nil {
		zapLogger.Fatal("failed_to_prepare_database_schema", zap.Error(err))
	}
	zapLogger.Info("connected_to_database")

	var passLock workers.PassLock
	if !cfg.DisablePassLock {
		redisClient, err := lock.NewClient(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		passLock = lock.NewRedisLock(redisClient, "northstar:reminder-pass", cfg.PassLockTTL)
		zapLogger.Info("connected_to_redis")
	} else {
		zapLogger.Info("pass_lock_disabled")
	}

	personalRepo := database.NewPersonalGoalRepository(db)
	noteRepo := database.NewGoalNoteRepository(db)
	teamRepo := database.NewTeamGoalRepository(db)
	installRepo := database.NewTeamInstallationRepository(db)

	catalog, err := templates.Load()
	if err != nil {
		zapLogger.Fatal("failed_to_load_message_catalog", zap.Error(err))
	}

	connector := notify.NewConnector(cfg.ConnectorBotID, cfg.ConnectorToken)

	var copywriter notify.Copywriter
	if cfg.OpenAIKey != "" {
		copywriter = copy.NewRewriter(cfg.OpenAIKey, cfg.AIModel, zapLogger)
		zapLogger.Info("reminder_copywriter_enabled", zap.String("model", cfg.AIModel))
	}

	dispatcher := notify.NewDispatcher(connector, connector, personalRepo, installRepo, catalog, copywriter, nil, zapLogger)
	closer := workers.NewCycleCloser(personalRepo, noteRepo, teamRepo, installRepo, connector, dispatcher, zapLogger)
	worker := workers.NewReminderWorker(personalRepo, teamRepo, closer, dispatcher, passLock, cfg.ReminderInterval, zapLogger)
	sweeper := workers.NewDeletionSweeper(personalRepo, noteRepo, teamRepo, cfg.SweepInterval, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := worker.Run(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("reminder_worker_stopped_with_error", zap.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		if err := sweeper.Run(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("deletion_sweeper_stopped_with_error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("shutdown_signal_received")
	cancel()
	wg.Wait()

	zapLogger.Info("scheduler_stopped")
}
