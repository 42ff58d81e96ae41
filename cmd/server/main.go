package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/northstarhq/northstar/internal/config"
	"github.com/northstarhq/northstar/internal/database"
	"github.com/northstarhq/northstar/internal/handlers"
	"github.com/northstarhq/northstar/internal/lock"
	"github.com/northstarhq/northstar/internal/logger"
	"github.com/northstarhq/northstar/internal/middleware"
	"github.com/northstarhq/northstar/internal/notify"
	"github.com/northstarhq/northstar/internal/queue"
	"github.com/northstarhq/northstar/internal/services/auth"
	"github.com/northstarhq/northstar/internal/services/copy"
	"github.com/northstarhq/northstar/internal/telemetry"
	"github.com/northstarhq/northstar/internal/templates"
	"github.com/northstarhq/northstar/internal/workers"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(context.Background(), "northstar-server", cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
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

	redisClient, err := lock.NewClient(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

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
	// Manual runs from the API don't take the pass lock; the scheduler's
	// periodic passes tolerate overlap because every operation is idempotent.
	worker := workers.NewReminderWorker(personalRepo, teamRepo, closer, dispatcher, nil, cfg.ReminderInterval, zapLogger)
	sweeper := workers.NewDeletionSweeper(personalRepo, noteRepo, teamRepo, cfg.SweepInterval, zapLogger)

	tasks := queue.NewMemoryQueue(zapLogger)
	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	go func() {
		if err := tasks.Run(runCtx); err != nil && err != context.Canceled {
			zapLogger.Error("task_queue_stopped_with_error", zap.Error(err))
		}
	}()

	healthChecker := handlers.NewHealthChecker(db, redisClient)
	goalsHandler := handlers.NewGoalsHandler(personalRepo, teamRepo, tasks, worker, sweeper, zapLogger)

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	r := mux.NewRouter()

	// Middleware executes in registration order; tracing stays outermost.
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware("northstar-server"))
	}
	r.Use(middleware.SecurityHeaders(false))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimitMW)
	if cfg.AuthIssuer != "" && cfg.AuthJWKSURL != "" {
		verifier := auth.NewVerifier(auth.NewJWKSManager(cfg.AuthJWKSURL), cfg.AuthIssuer, cfg.AuthAudience)
		apiRouter.Use(middleware.Auth(verifier, zapLogger))
	} else {
		zapLogger.Warn("admin_api_authentication_disabled")
	}

	apiRouter.HandleFunc("/goals/due", goalsHandler.ListDue).Methods("GET")
	apiRouter.HandleFunc("/goals", goalsHandler.UpsertGoal).Methods("PUT")
	apiRouter.HandleFunc("/runs/reminders", goalsHandler.TriggerReminderRun).Methods("POST")
	apiRouter.HandleFunc("/runs/sweep", goalsHandler.TriggerSweep).Methods("POST")

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	runCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
