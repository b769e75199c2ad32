package router

import (
	"net/http"

	"github.com/Vishal2827/pern-stack/internal/handler"
	"github.com/Vishal2827/pern-stack/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Options configures the router.
type Options struct {
	Product *handler.ProductHandler
	Health  http.Handler
	// Protector guards every route except /health. Nil disables admission.
	Protector      middleware.Protector
	DryRun         bool
	AllowedOrigins []string
	// Static serves the frontend for unmatched paths. Nil means unmatched
	// paths get a 404 envelope.
	Static http.Handler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Apply middleware in order: RequestID -> Recovery -> Logging -> CORS -> SecurityHeaders -> BodyLimit
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))

	// Health check endpoint (no admission check)
	if opts.Health != nil {
		r.Method(http.MethodGet, "/health", opts.Health)
	}

	notFound := handler.RouteNotFound(logger)

	r.Group(func(r chi.Router) {
		if opts.Protector != nil {
			r.Use(middleware.Admission(opts.Protector, opts.DryRun, logger))
		}

		r.Route("/products", func(r chi.Router) {
			r.Get("/", opts.Product.List)
			r.Post("/", opts.Product.Create)
			r.Get("/{id}", opts.Product.Get)
			r.Put("/{id}", opts.Product.Update)
			r.Delete("/{id}", opts.Product.Delete)
		})

		if opts.Static != nil {
			r.NotFound(opts.Static.ServeHTTP)
		} else {
			r.NotFound(notFound)
		}
		r.MethodNotAllowed(notFound)
	})

	return r
}
