package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/redresshq/redress/internal/api/handlers"
	mw "github.com/redresshq/redress/internal/api/middleware"
	"github.com/redresshq/redress/internal/buildconfig"
	"github.com/redresshq/redress/internal/config"
	"github.com/redresshq/redress/internal/dialog"
	"github.com/redresshq/redress/internal/domain"
	"github.com/redresshq/redress/internal/extract"
	"github.com/redresshq/redress/internal/policy"
	"github.com/redresshq/redress/internal/pricing"
	"github.com/redresshq/redress/internal/store"
)

// Deps bundles the wiring the router needs. The db pool may be nil, in
// which case health reports ok without a ping (in-memory mode).
type Deps struct {
	DB        *pgxpool.Pool
	Sessions  domain.SessionStore
	Cases     domain.CaseStore
	Messages  domain.MessageStore
	Engine    *policy.Engine
	Extractor domain.Extractor
	Prices    domain.PriceProvider
}

// App holds the router and request metrics for lifecycle management.
type App struct {
	Router       *chi.Mux
	Orchestrator *dialog.Orchestrator
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
	turnCount    atomic.Int64
}

func NewApp(deps Deps, logger *zap.Logger) *App {
	orch := dialog.NewOrchestrator(deps.Sessions, deps.Cases, deps.Messages, deps.Engine, deps.Prices, logger)

	sessionHandler := handlers.NewSessionHandler(orch, deps.Extractor, deps.Messages, logger)
	caseHandler := handlers.NewCaseHandler(deps.Cases)

	r := chi.NewRouter()

	app := &App{
		Router:       r,
		Orchestrator: orch,
		startTime:    time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount, &app.turnCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(deps.DB))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", sessionHandler.GetByID)
			r.Post("/turns", sessionHandler.PostTurn)
			r.Post("/facts", sessionHandler.PostFacts)
			r.Get("/messages", sessionHandler.GetMessages)
			r.Get("/cases", caseHandler.ListBySession)
		})

		r.Get("/cases/{id}", caseHandler.GetByID)
	})

	return app
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"turn_count":     app.turnCount.Load(),
			"build":          buildconfig.VersionInfo(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.SessionStore  = (*store.SessionStore)(nil)
	_ domain.SessionStore  = (*store.MemorySessionStore)(nil)
	_ domain.CaseStore     = (*store.CaseStore)(nil)
	_ domain.CaseStore     = (*store.MemoryCaseStore)(nil)
	_ domain.MessageStore  = (*store.MessageStore)(nil)
	_ domain.MessageStore  = (*store.MemoryMessageStore)(nil)
	_ domain.Extractor     = (*extract.OpenAIClient)(nil)
	_ domain.Extractor     = (*extract.GeminiClient)(nil)
	_ domain.Extractor     = (*extract.MockClient)(nil)
	_ domain.PriceProvider = (*pricing.PAAPIProvider)(nil)
	_ domain.PriceProvider = (*pricing.CachingProvider)(nil)
	_ domain.PriceProvider = (*pricing.NullProvider)(nil)
)
