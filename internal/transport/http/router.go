// Package httptransport assembles the HTTP surface: the matching API, the
// admin routes, and the operational endpoints (health, readiness, metrics).
package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/httputil"
)

// HealthChecker reports whether a dependency is currently usable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Registrar mounts routes onto the root router.
type Registrar interface {
	Register(r chi.Router)
	RegisterAdmin(r chi.Router, adminTokenHash string)
}

// Options carries the router's wiring.
type Options struct {
	Matching       Registrar
	AdminTokenHash string
	// Storage gates readiness; nil means always ready (in-memory store).
	Storage HealthChecker
}

// NewRouter wires all endpoints.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	opts.Matching.Register(r)
	opts.Matching.RegisterAdmin(r, opts.AdminTokenHash)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if opts.Storage != nil {
			if err := opts.Storage.Health(req.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "storage unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
