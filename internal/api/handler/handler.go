package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kofi-labs/staker-checker/internal/run"
)

// CheckRunner executes one check run against the upstream event set.
type CheckRunner interface {
	Check(ctx context.Context, p run.Params) *run.Report
}

// Defaults fills request fields the caller leaves out.
type Defaults struct {
	EventType string
	Threshold int64
}

// Handler holds the dependencies for API handlers
type Handler struct {
	Runner   CheckRunner
	Defaults Defaults
	Logger   *zap.Logger
	APIToken string
}

// NewHandler creates a new Handler instance
func NewHandler(runner CheckRunner, defaults Defaults, logger *zap.Logger, apiToken string) *Handler {
	return &Handler{
		Runner:   runner,
		Defaults: defaults,
		Logger:   logger,
		APIToken: apiToken,
	}
}

// NewRouter creates and configures the HTTP router with all API routes
func (h *Handler) NewRouter() *mux.Router {
	r := mux.NewRouter()

	// Public health check endpoint
	r.HandleFunc("/api/health", h.HandleHealth).Methods(http.MethodGet)

	// Protected checker endpoints
	r.HandleFunc("/api/check", h.RequireAuth(h.HandleCheck)).Methods(http.MethodPost)
	r.HandleFunc("/api/events/summary", h.RequireAuth(h.HandleEventsSummary)).Methods(http.MethodGet)

	return r
}

// RequireAuth is a middleware that validates the bearer token
func (h *Handler) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		expected := "Bearer " + h.APIToken

		if h.APIToken == "" || auth != expected {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}

		next(w, r)
	}
}

// HandleHealth returns a simple health check response
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
