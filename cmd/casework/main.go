package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/council-gov/casework/internal/adapters/legacy"
	"github.com/council-gov/casework/internal/audit"
	caseapi "github.com/council-gov/casework/internal/case/api"
	"github.com/council-gov/casework/internal/case/domain"
	caseinfra "github.com/council-gov/casework/internal/case/infrastructure"
	"github.com/council-gov/casework/internal/link"
	"github.com/council-gov/casework/internal/person"
	"github.com/council-gov/casework/internal/shared/auth"
	"github.com/council-gov/casework/internal/shared/config"
	"github.com/council-gov/casework/internal/shared/database"
	"github.com/council-gov/casework/internal/shared/events"
	"github.com/council-gov/casework/internal/shared/logging"
	"github.com/council-gov/casework/internal/shared/metrics"
	secmiddleware "github.com/council-gov/casework/internal/shared/middleware"
	"github.com/council-gov/casework/internal/shared/types"
	"github.com/council-gov/casework/internal/stats"
	"github.com/council-gov/casework/internal/team"
	"github.com/council-gov/casework/internal/visibility"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *database.DB
	Bus    *events.Bus
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app := &App{Config: cfg, Logger: logger}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("database not available", zap.Error(err))
	}
	app.DB = db
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	// Event bus is optional; handlers take a nil publisher
	if cfg.EventStore.Enabled {
		bus, err := events.NewBus(ctx, cfg.EventStore, logger)
		if err != nil {
			logger.Warn("eventstore not available, running without event streaming", zap.Error(err))
		} else {
			app.Bus = bus
			defer bus.Close()
			logger.Info("event bus initialized",
				zap.String("host", cfg.EventStore.Host),
				zap.Int("port", cfg.EventStore.Port))
		}
	}

	// Team registry: postgres loader, optionally cached in redis,
	// refreshed in the background
	var teamLoader team.Loader = team.NewRepository(db.Pool)
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ttl := time.Duration(cfg.Redis.SnapshotTTLSeconds) * time.Second
		teamLoader = team.NewCachedLoader(teamLoader, redisClient, ttl, logger)
		logger.Info("team snapshot cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	teamProvider, err := team.NewProvider(ctx, teamLoader, time.Minute, logger)
	if err != nil {
		logger.Fatal("failed to load team registry", zap.Error(err))
	}
	teamProvider.Start(ctx)

	resolver := visibility.NewResolver(teamProvider)
	guard := visibility.NewGuard(resolver)

	caseRepo := caseinfra.NewPostgresRepository(db.Pool)
	personRepo := person.NewRepository(db.Pool)
	linkManager := link.NewManager(link.NewPostgresStore(caseRepo, personRepo))

	var busPublisher events.Publisher
	if app.Bus != nil {
		busPublisher = app.Bus
	}

	// Audit log with its bus subscriber
	auditRepo := audit.NewRepository(db.Pool)
	if err := auditRepo.Initialize(ctx); err != nil {
		logger.Fatal("audit initialization failed", zap.Error(err))
	}
	if app.Bus != nil {
		auditSubscriber := audit.NewSubscriber(auditRepo, logger)
		if err := app.Bus.Subscribe(ctx, "", auditSubscriber.Handle); err != nil {
			logger.Warn("audit subscriber failed to start", zap.Error(err))
		}
	}

	caseHandler := caseapi.NewHandler(caseRepo, guard, busPublisher)
	personHandler := person.NewHandler(personRepo, busPublisher)
	linkHandler := link.NewHandler(linkManager, personRepo, guard, busPublisher)
	visibilityHandler := visibility.NewHandler(resolver)
	teamHandler := team.NewHandler(team.NewRepository(db.Pool))
	statsHandler := stats.NewHandler(caseRepo, guard)
	auditHandler := audit.NewHandler(auditRepo)

	if cfg.Legacy.Enabled {
		go runLegacyImport(ctx, cfg.Legacy, caseRepo, logger)
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(secmiddleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.InputSanitizer)
	r.Use(secmiddleware.RateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	r.Get("/", infoHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth))

		r.Mount("/case-types", visibilityHandler.Routes())
		r.Mount("/teams", teamHandler.Routes())
		r.Mount("/stats", statsHandler.Routes())
		r.Mount("/audit", auditHandler.Routes())

		r.Route("/cases", func(r chi.Router) {
			r.Mount("/", caseHandler.Routes())
			r.Mount("/{caseID}/persons", linkHandler.CaseRoutes())
		})

		r.Route("/persons", func(r chi.Router) {
			r.Mount("/", personHandler.Routes())
			r.Mount("/{personID}/cases", linkHandler.PersonRoutes())
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
		close(done)
	}()

	logger.Info("casework service started",
		zap.String("env", cfg.Server.Env),
		zap.Int("port", cfg.Server.Port))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}

	<-done
	logger.Info("server stopped")
}

// runLegacyImport runs a one-shot import from the legacy enforcement
// system. The run is idempotent, so a crash mid-import is recovered by
// the next start.
func runLegacyImport(ctx context.Context, cfg config.LegacyConfig, repo domain.Repository, logger *zap.Logger) {
	importer, err := legacy.New(cfg, repo, logger)
	if err != nil {
		logger.Error("legacy import unavailable", zap.Error(err))
		return
	}
	defer importer.Close()

	// Well-known actor id for records created by the import itself
	systemActor := types.MustParseID("00000000-0000-0000-0000-000000000001")

	result, err := importer.Run(ctx, systemActor)
	if err != nil {
		logger.Error("legacy import failed", zap.Error(err))
		return
	}

	logger.Info("legacy import complete",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "Council Casework Service",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if err := app.DB.Health(r.Context()); err != nil {
			checks["database"] = "not ready: " + err.Error()
		} else {
			checks["database"] = "ready"
		}

		if app.Bus != nil {
			if err := app.Bus.Health(); err != nil {
				checks["eventstore"] = "not ready: " + err.Error()
			} else {
				checks["eventstore"] = "ready"
			}
		} else {
			checks["eventstore"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
