/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Secure:     Security headers (unrolled/secure)
  5. CORS:       Cross-origin requests for frontend
  6. Rate limit: Per-IP limit on mutating routes (httprate)

ROUTE GROUPS:
  /api/owners/{owner}/*   Portfolio reads
  /api/leases/*           Lease CRUD and lease transactions
  /api/payments/*         Payment collection
  /api/assets, /tenants   Directory
  /api/admin/*            Lifecycle sweep
  /api/scenarios/*        Demo scenarios
  /healthz                Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	AllowedOrigins []string
	RateLimit      int // requests per minute per IP on write routes, 0 disables
	Production     bool
}

// DefaultRouterOptions are used by tests and local runs.
func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		RateLimit:      120,
	}
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        opts.Production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !opts.Production,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(secureMiddleware.Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}))

	writeLimit := func(next http.Handler) http.Handler { return next }
	if opts.RateLimit > 0 {
		writeLimit = httprate.Limit(opts.RateLimit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			}),
		)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/owners/{owner}", func(r chi.Router) {
			r.Get("/collections", h.ListCollections)
			r.Get("/summary", h.GetSummary)
			r.Get("/snapshots/latest", h.GetLatestSnapshot)
			r.Get("/payments", h.ListPayments)
		})

		r.Route("/leases", func(r chi.Router) {
			r.Get("/{id}", h.GetLease)
			r.Get("/{id}/collection", h.GetLeaseCollection)

			r.Group(func(r chi.Router) {
				r.Use(writeLimit)
				r.Post("/", h.CreateLease)
				r.Put("/{id}", h.UpdateLease)
				r.Post("/{id}/terminate", h.TerminateLease)
				r.Post("/{id}/adjustments", h.AdjustPeriod)
				r.Post("/{id}/shrink", h.ShrinkLease)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(writeLimit)
			r.Post("/payments/collect", h.CollectPayment)
			r.Post("/assets", h.CreateAsset)
			r.Post("/tenants", h.CreateTenant)
			r.Post("/admin/sweep", h.TriggerSweep)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.With(writeLimit).Post("/load", h.LoadScenario)
		})
	})

	return r
}
