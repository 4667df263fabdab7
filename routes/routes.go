package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/lingflow/app"
	"github.com/upb/lingflow/handlers"
	"github.com/upb/lingflow/middleware"
	"github.com/upb/lingflow/utils"
)

// SetupRoutes configures all bridge routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(deps.Config.Server.WriteTimeout))

	// CORS middleware; the browser extension calls from its own origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(readinessSources(deps), app.Version, deps.Logger)
	translate := handlers.NewTranslationHandler(deps.Translation, deps.Logger)
	diagnostics := handlers.NewDiagnosticsHandler(deps.Translation, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if deps.AuthMiddleware != nil {
			r.Use(deps.AuthMiddleware.RequireAuth)
		}

		r.Post("/translate", translate.HandleTranslate)
		r.Post("/correct", translate.HandleCorrect)
		r.Post("/prompt", translate.HandlePrompt)
		r.Post("/ocr", translate.HandleScreenshot)

		r.Get("/models", diagnostics.HandleModels)

		r.Route("/diagnostics", func(r chi.Router) {
			r.Get("/errors", diagnostics.HandleErrorLog)
			r.Delete("/errors", diagnostics.HandleClearErrorLog)
			r.Get("/cache", diagnostics.HandleCacheStats)
			r.Delete("/cache", diagnostics.HandleClearCache)
		})

		if deps.History != nil {
			history := handlers.NewHistoryHandler(deps.History, deps.Logger)
			r.Get("/history", history.HandleList)
			r.Delete("/history", history.HandleClear)
		}
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}

func readinessSources(deps *app.Dependencies) handlers.ReadinessSources {
	sources := handlers.ReadinessSources{
		RemoteConfigLoaded: deps.RemoteConfig.Loaded,
		ProviderCount:      deps.Providers.Count,
	}
	// a nil *postgres.DB must not become a non-nil interface
	if deps.DB != nil {
		sources.Database = deps.DB
	}
	return sources
}

// NewServer builds the HTTP server for the bridge
func NewServer(deps *app.Dependencies) *http.Server {
	cfg := deps.Config.Server
	return &http.Server{
		Addr:              cfg.Address(),
		Handler:           SetupRoutes(deps),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		// must exceed the handler timeout
		WriteTimeout: cfg.WriteTimeout + 5*time.Second,
		IdleTimeout:  2 * time.Minute,
	}
}
