package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// RegisterRoutes registers the API routes on mux using a chi router,
// plus optional static file serving for the SPA assets.
func RegisterRoutes(mux *http.ServeMux, handlers *Handlers, publicDir string, enableCORS bool) {
	r := chi.NewRouter()

	r.Use(requestMetrics)
	r.Use(requestLogger)
	if enableCORS {
		r.Use(corsMiddleware)
	}

	r.Get("/health", handlers.handleHealth)
	r.Get("/audit-logs", handlers.handleAllAuditLogs)

	r.Route("/publishers", func(r chi.Router) {
		r.Get("/", handlers.handleListPublishers)
		r.Get("/{publisherID}", handlers.handleGetPublisher)
		r.Put("/{publisherID}", handlers.handleSavePublisher)
		r.Delete("/{publisherID}", handlers.handleDeletePublisher)
		r.Get("/{publisherID}/audit-logs", handlers.handlePublisherAuditLogs)
	})

	mux.Handle("/api/", http.StripPrefix("/api", r))

	if publicDir != "" {
		if _, err := os.Stat(publicDir); err == nil {
			mux.Handle("/", http.FileServer(http.Dir(publicDir)))
			log.Info().Str("dir", publicDir).Msg("Serving static assets")
		} else {
			log.Warn().Str("dir", publicDir).Msg("Public directory not found, static serving disabled")
		}
	}

	log.Info().Msg("API endpoints enabled at /api/publishers")
}
