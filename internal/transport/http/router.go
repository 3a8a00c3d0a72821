// Package httptransport wires the feature handlers into one chi router.
// Routing and role gates live here; the handlers stay free of any knowledge
// about where they are mounted.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accesshandler "github.com/tomassolanoprieto/subprice/internal/access/handler"
	conditionshandler "github.com/tomassolanoprieto/subprice/internal/conditions/handler"
	matchinghandler "github.com/tomassolanoprieto/subprice/internal/matching/handler"
	offerhandler "github.com/tomassolanoprieto/subprice/internal/offer/handler"
	"github.com/tomassolanoprieto/subprice/internal/platform/middleware"
	profilehandler "github.com/tomassolanoprieto/subprice/internal/profile/handler"
	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

// Handlers carries the feature handlers the router mounts.
type Handlers struct {
	Matching   *matchinghandler.Handler
	Access     *accesshandler.Handler
	Conditions *conditionshandler.Handler
	Profiles   *profilehandler.Handler
	Offers     *offerhandler.Handler
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker func(r *http.Request) error

// NewRouter builds the full route tree. All /api routes require a valid
// token; role gates narrow each subtree further.
func NewRouter(h Handlers, validator middleware.JWTValidator, logger *slog.Logger, health HealthChecker) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.RequestID)

	r.Get("/healthz", handleHealth(health))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RequireAuth(validator, logger))

		providerOnly := middleware.RequireRole(requestcontext.RoleProvider)
		customerOnly := middleware.RequireRole(requestcontext.RoleCustomer)
		adminOnly := middleware.RequireRole(requestcontext.RoleAdmin)
		providerOrAdmin := middleware.RequireRole(requestcontext.RoleProvider, requestcontext.RoleAdmin)

		h.Matching.Register(api.With(providerOnly))
		h.Access.Register(api.With(providerOrAdmin), api.With(adminOnly))
		h.Conditions.Register(api.With(customerOnly))
		h.Profiles.Register(api.With(customerOnly))
		h.Offers.Register(api.With(providerOnly), api.With(customerOnly))
	})

	return r
}

func handleHealth(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unhealthy"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
