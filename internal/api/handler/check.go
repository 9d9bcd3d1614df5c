package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/kofi-labs/staker-checker/internal/run"
)

// CheckRequest is the body of POST /api/check. EventType and Threshold fall
// back to the server's defaults when omitted.
type CheckRequest struct {
	Addresses []string `json:"addresses"`
	EventType string   `json:"event_type,omitempty"`
	Threshold *int64   `json:"threshold,omitempty"`
	NoCache   bool     `json:"no_cache,omitempty"`
}

// HandleCheck evaluates the requested addresses and returns the full report.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if len(req.Addresses) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "addresses is required"})
		return
	}
	for _, addr := range req.Addresses {
		if addr == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "addresses must not contain empty strings"})
			return
		}
	}

	params := run.Params{
		EventType: req.EventType,
		Threshold: h.Defaults.Threshold,
		Addresses: req.Addresses,
		NoCache:   req.NoCache,
	}
	if params.EventType == "" {
		params.EventType = h.Defaults.EventType
	}
	if req.Threshold != nil {
		params.Threshold = *req.Threshold
	}

	report := h.Runner.Check(r.Context(), params)
	h.Logger.Info("check run served",
		zap.String("run_id", report.RunID),
		zap.Int("addresses", len(req.Addresses)),
		zap.Int("total_events", report.TotalEvents),
		zap.Bool("from_cache", report.FromCache),
	)
	writeJSON(w, http.StatusOK, report)
}

// EventsSummary is the body of GET /api/events/summary responses.
type EventsSummary struct {
	EventType   string `json:"event_type"`
	TotalEvents int    `json:"total_events"`
	FromCache   bool   `json:"from_cache"`
	Truncated   bool   `json:"truncated"`
}

// HandleEventsSummary reports the size and provenance of today's event set
// for an event type, without evaluating any address.
func (h *Handler) HandleEventsSummary(w http.ResponseWriter, r *http.Request) {
	eventType := r.URL.Query().Get("event_type")
	if eventType == "" {
		eventType = h.Defaults.EventType
	}

	report := h.Runner.Check(r.Context(), run.Params{
		EventType: eventType,
		Threshold: h.Defaults.Threshold,
	})
	writeJSON(w, http.StatusOK, EventsSummary{
		EventType:   eventType,
		TotalEvents: report.TotalEvents,
		FromCache:   report.FromCache,
		Truncated:   report.Truncated,
	})
}
