package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/database"
	"github.com/stemsi/exstem-engine/internal/handler"
	"github.com/stemsi/exstem-engine/internal/logger"
	"github.com/stemsi/exstem-engine/internal/queue"
	"github.com/stemsi/exstem-engine/internal/repository"
	"github.com/stemsi/exstem-engine/internal/router"
	"github.com/stemsi/exstem-engine/internal/service"
	"github.com/stemsi/exstem-engine/internal/validator"
	"github.com/stemsi/exstem-engine/internal/worker"
)

const sweepInterval = time.Minute

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Float64("marks_correct", cfg.Exam.MarksCorrect).
		Float64("marks_incorrect", cfg.Exam.MarksIncorrect).
		Int("tab_switch_threshold", cfg.Exam.TabSwitchThreshold).
		Msg("Starting ExStem exam engine")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories & Publishers ──────────────────────────
	resultRepo := repository.NewResultRepository(pool)
	integrityRepo := repository.NewIntegrityRepository(pool)

	resultPublisher := queue.NewResultPublisher(rdb, cfg.Exam.ResultCacheTTL, log)
	integrityPublisher := queue.NewIntegrityPublisher(rdb, log)

	// ─── Initialize Services ──────────────────────────────────────────
	sessionService := service.NewSessionService(cfg.Exam, service.SessionDeps{
		Sink:      resultPublisher,
		Integrity: integrityPublisher,
		Readers: []service.ResultReader{
			service.ResultReaderFunc(resultPublisher.Get),
			resultRepo,
		},
	}, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Session: handler.NewSessionHandler(sessionService, log),
		WS:      handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		Monitor: handler.NewMonitorHandler(rdb, resultRepo, integrityRepo, log),
		System:  handler.NewSystemHandler(sessionService, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	resultWorker := worker.NewResultWorker(resultRepo, rdb, log)
	integrityWorker := worker.NewIntegrityWorker(integrityRepo, rdb, log)

	for _, start := range []func(context.Context){
		resultWorker.Start,
		integrityWorker.Start,
		func(ctx context.Context) { sessionService.RunSweeper(ctx, sweepInterval) },
	} {
		workers.Add(1)
		go func(run func(context.Context)) {
			defer workers.Done()
			run(workerCtx)
		}(start)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().
		Str("signal", sig.String()).
		Int("hosted_sessions", sessionService.Count()).
		Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
