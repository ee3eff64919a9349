package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"catalog-summary/internal/middleware"
)

// RouterOptions configures NewRouter. Nil Validator disables authentication;
// nil RateLimiter disables rate limiting.
type RouterOptions struct {
	Handler     *APIHandler
	Metrics     http.Handler
	Validator   middleware.JWTValidator
	RateLimiter *middleware.RateLimiter
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter builds the full HTTP handler: public endpoints at the root and
// the authenticated API under /v1.
func NewRouter(opts RouterOptions) (http.Handler, error) {
	swagger, err := GetSwagger()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Handler)
	}

	// Public endpoints, no auth required
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, swagger)
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		if opts.Validator != nil {
			r.Use(middleware.Authenticate(opts.Validator, opts.Logger))
		}
		opts.Handler.Routes(r)
	})

	return r, nil
}
