// Package health serves the dependency health endpoint.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 3 * time.Second

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

type Handler struct {
	checks   map[string]Checker
	optional map[string]bool
	logger   *slog.Logger
}

type Option func(*Handler)

// WithOptional marks dependencies whose failure is reported but does not
// turn the endpoint unhealthy.
func WithOptional(names ...string) Option {
	return func(h *Handler) {
		for _, n := range names {
			h.optional[n] = true
		}
	}
}

func NewHandler(logger *slog.Logger, checks map[string]Checker, opts ...Option) *Handler {
	h := &Handler{checks: checks, optional: map[string]bool{}, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

type result struct {
	Status string `json:"status"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]result, len(h.checks))
		status  = http.StatusOK
	)
	var g errgroup.Group
	for name, c := range h.checks {
		g.Go(func() error {
			err := c.Check(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				results[name] = result{Status: "ok"}
				return nil
			}
			results[name] = result{Status: "error"}
			if h.optional[name] {
				h.logger.Warn("optional health check failed", "name", name, "error", err)
				return nil
			}
			h.logger.Error("health check failed", "name", name, "error", err)
			status = http.StatusServiceUnavailable
			return nil
		})
	}
	g.Wait()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(results)
}
