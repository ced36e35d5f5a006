package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"timetable-engine/internal/store"
	"timetable-engine/pkg/apikey"
	"timetable-engine/pkg/ratelimit"
)

// Options configures the router built by NewRouter.
type Options struct {
	Store          store.ProjectStore
	AdminAPIKey    string
	TrustedProxies []string
	AllowedOrigins []string
}

// NewRouter builds the chi router exposing project CRUD plus the
// validate/solve operations spec.md §6 names. Health and metrics are
// unauthenticated so operators and Prometheus can reach them without the
// admin key; every other route requires it.
func NewRouter(opts Options) (*chi.Mux, error) {
	adminDigest, err := apikey.Hash(opts.AdminAPIKey)
	if err != nil {
		return nil, err
	}

	handler := NewProjectsHandler(opts.Store)
	solveLimiter := ratelimit.SolveLimiter(opts.TrustedProxies)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(BodyLimitMiddleware(DefaultBodyLimit))
	r.Use(chiMiddleware.Recoverer)
	r.Use(CORSMiddleware(opts.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RequireAPIKey(adminDigest))

		r.Post("/validate", handler.ValidateAdHoc)
		r.With(ratelimit.Middleware(solveLimiter)).Post("/solve", handler.SolveAdHoc)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", handler.List)
			r.Post("/", handler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handler.Get)
				r.Put("/", handler.Update)
				r.Delete("/", handler.Delete)
				r.Post("/validate", handler.Validate)
				r.With(ratelimit.Middleware(solveLimiter)).Post("/solve", handler.Solve)
			})
		})
	})

	return r, nil
}
