package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/V4T54L/server-logs/internal/adapter/api/handler"
	"github.com/V4T54L/server-logs/internal/adapter/api/middleware"
	"github.com/V4T54L/server-logs/internal/adapter/metrics"
)

// BasePath is where the logs collection is mounted.
const BasePath = "/api/logs"

// NewRouter creates and configures the main HTTP router for the log service.
func NewRouter(logger *slog.Logger, logsHandler *handler.LogsHandler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger, m))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get(BasePath, logsHandler.List)
	r.Post(BasePath, logsHandler.Create)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

// NewAdminRouter serves the metrics endpoint and a health check for the
// admin listener.
func NewAdminRouter(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}
