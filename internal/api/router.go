// Package api exposes the city catalog as a read-only JSON HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/city-explorer/internal/catalog"
	"github.com/sells-group/city-explorer/internal/resolve"
)

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP handler serving c.
func NewRouter(c *catalog.Catalog, opts Options) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(timeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	SetupRoutes(router, c, resolve.ForCatalog(c))
	return router
}

// SetupRoutes registers the API routes on router.
func SetupRoutes(router chi.Router, c *catalog.Catalog, r *resolve.Resolver) {
	h := NewHandlers(c, r)

	router.Get("/health", h.Health)

	router.Route("/api", func(api chi.Router) {
		api.Get("/border", h.Border)
		api.Get("/bounds", h.Bounds)
		api.Get("/markers", h.Markers)
		api.Get("/cities", h.Cities)
		api.Get("/cities/{slug}", h.City)
		api.Get("/cities/{slug}/images", h.CityImages)
		api.Get("/cities/{slug}/news", h.CityNews)
		api.Get("/compare/{left}/{right}", h.Compare)
	})

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		NotFound(w, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}
