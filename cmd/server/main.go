package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prostuti-app/prostuti-backend/internal/config"
	"github.com/prostuti-app/prostuti-backend/internal/database"
	"github.com/prostuti-app/prostuti-backend/internal/handler"
	"github.com/prostuti-app/prostuti-backend/internal/logger"
	"github.com/prostuti-app/prostuti-backend/internal/repository"
	"github.com/prostuti-app/prostuti-backend/internal/router"
	"github.com/prostuti-app/prostuti-backend/internal/service"
	"github.com/prostuti-app/prostuti-backend/internal/session"
	"github.com/prostuti-app/prostuti-backend/internal/validator"
	"github.com/prostuti-app/prostuti-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Prostuti Backend")

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

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	subjectRepo := repository.NewSubjectRepository(pool)
	chapterRepo := repository.NewChapterRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	testRepo := repository.NewTestRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	resourceRepo := repository.NewResourceRepository(pool)
	plannerRepo := repository.NewPlannerRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	registry := session.NewRegistry()

	authService := service.NewAuthService(cfg, rdb)
	studentService := service.NewStudentService(studentRepo, authService)
	adminService := service.NewAdminService(adminRepo, authService)
	subjectService := service.NewSubjectService(subjectRepo)
	chapterService := service.NewChapterService(chapterRepo, subjectRepo)
	questionService := service.NewQuestionService(questionRepo, chapterRepo)
	testService := service.NewTestService(testRepo, questionRepo, subjectRepo, rdb)
	attemptService := service.NewAttemptService(attemptRepo, testService, registry, rdb, log)
	resourceService := service.NewResourceService(resourceRepo, subjectRepo)
	plannerService := service.NewPlannerService(plannerRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(studentService, adminService),
		Subject:     handler.NewSubjectHandler(subjectService),
		Chapter:     handler.NewChapterHandler(chapterService),
		Question:    handler.NewQuestionHandler(questionService),
		Test:        handler.NewTestHandler(testService, attemptService),
		Attempt:     handler.NewAttemptHandler(attemptService, testService),
		Resource:    handler.NewResourceHandler(resourceService),
		Planner:     handler.NewPlannerHandler(plannerService),
		StudentMgmt: handler.NewStudentManagementHandler(studentService, authService),
		WS:          handler.NewWSHandler(attemptService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autosaveWorker := worker.NewAutosaveWorker(pool, rdb, log)
	attemptWorker := worker.NewAttemptWorker(attemptRepo, rdb, log)
	expiryWorker := worker.NewExpiryWorker(attemptService, cfg.ExpirySweepInterval, log)

	go autosaveWorker.Start(workerCtx)
	go attemptWorker.Start(workerCtx)
	go expiryWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all published test papers into Redis BEFORE accepting traffic.
	// This avoids race conditions from lazy loading under thundering herd.
	if err := testService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

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

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
