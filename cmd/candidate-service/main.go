package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/talentvault/talentvault-backend/internal/auth/jwt"
	"github.com/talentvault/talentvault-backend/internal/candidate/cache"
	"github.com/talentvault/talentvault-backend/internal/candidate/events"
	"github.com/talentvault/talentvault-backend/internal/candidate/extraction"
	"github.com/talentvault/talentvault-backend/internal/candidate/handler"
	"github.com/talentvault/talentvault-backend/internal/candidate/repository"
	"github.com/talentvault/talentvault-backend/internal/candidate/service"
	"github.com/talentvault/talentvault-backend/internal/candidate/storage"
	"github.com/talentvault/talentvault-backend/pkg/config"
	"github.com/talentvault/talentvault-backend/pkg/database"
	"github.com/talentvault/talentvault-backend/pkg/httputil"
	"github.com/talentvault/talentvault-backend/pkg/logger"
	"github.com/talentvault/talentvault-backend/pkg/messaging"
	"github.com/talentvault/talentvault-backend/pkg/metrics"
)

const serviceName = "candidate-service"

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment, cfg.Server.LogLevel)
	log.Info().Msg("starting Candidate Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.New(ctx, &cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	candidateRepo := repository.NewCandidateRepository(db)
	if cfg.Database.AutoMigrate {
		if err := candidateRepo.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate candidates table")
		}
	}

	// Resume originals
	files, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize file storage")
	}

	// Optional read-through cache
	candidateCache, closeCache, err := cache.New(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer closeCache()

	// Optional event publishing
	var (
		rmq       *messaging.RabbitMQ
		publisher events.Publisher = events.NopPublisher{}
	)
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(ctx, &cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewCandidateEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	}

	extractor := extraction.New(
		extraction.NewProseAnnotator(),
		extraction.WithMatchOptions(extraction.MatchOptions{
			ScoreCutoff: cfg.Extraction.FuzzyCutoff,
			Limit:       cfg.Extraction.FuzzyLimit,
		}),
		extraction.WithLogger(log),
	)

	candidateService := service.NewCandidateService(
		candidateRepo, files, extractor, candidateCache, publisher, cfg.Extraction, log,
	)
	candidateHandler := handler.NewCandidateHandler(candidateService, cfg.Server.MaxUploadSize, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	if len(cfg.Server.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", httputil.RequestIDHeader},
			ExposedHeaders:   []string{httputil.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, status)
	})
	r.Handle("/metrics", metrics.Handler())

	api := func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.WriteTimeout))
		if cfg.Auth.Enabled {
			r.Use(jwt.Middleware(jwt.NewManager(&cfg.Auth), log))
		}
		candidateHandler.RegisterRoutes(r)
	}

	// Unversioned paths kept for existing clients
	r.Group(api)
	r.Route("/api/v1", api)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
