package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/flemzord/lineup/internal/history"
	"github.com/flemzord/lineup/internal/manifest"
	"github.com/flemzord/lineup/pkg/order"
)

const defaultHistoryLimit = 20

// ResolveRequest is the JSON body for POST /v1/resolve.
type ResolveRequest struct {
	// Steps is the unordered list of declarative step records.
	Steps []map[string]any `json:"steps"`

	// Schema maps step names (or "*") to default fragments.
	Schema map[string]map[string]any `json:"schema,omitempty"`

	// DefaultGroup is the group for steps without one.
	DefaultGroup float64 `json:"default_group,omitempty"`
}

// handleResolve returns an http.HandlerFunc for POST /v1/resolve.
func (s *Server) handleResolve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Steps == nil {
			http.Error(w, "steps is required", http.StatusBadRequest)
			return
		}

		m := &manifest.Manifest{
			Version:      "1",
			Steps:        req.Steps,
			Schema:       req.Schema,
			DefaultGroup: req.DefaultGroup,
		}

		plan, err := s.engine.Resolve(m)
		if err != nil {
			s.metrics.RecordError()

			var nerr *order.NormalizeError
			if errors.As(err, &nerr) || errors.Is(err, order.ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			s.logger.Error("server: resolve failed", "error", err)
			http.Error(w, "resolve failed", http.StatusInternalServerError)
			return
		}
		s.metrics.RecordResolve(plan.Duration)

		if s.store != nil {
			if _, err := s.store.Record("api", plan); err != nil {
				// History is best-effort for API resolves.
				s.logger.Warn("server: record resolution", "error", err)
			}
		}

		writeJSON(w, http.StatusOK, planPayload(plan))
	}
}

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Subscribers int    `json:"subscribers"`

	// Fingerprint identifies the current watched plan, if any.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status:      "ok",
			Subscribers: s.hub.Subscribers(),
		}
		if plan := s.currentPlan(); plan != nil {
			resp.Fingerprint = plan.Fingerprint()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"metrics":     s.metrics.Snapshot(),
			"subscribers": s.hub.Subscribers(),
		})
	}
}

// handleHistory returns an http.HandlerFunc for GET /v1/history.
// Supports ?limit=N; defaults to 20.
func (s *Server) handleHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			http.Error(w, "history is disabled", http.StatusNotFound)
			return
		}

		limit := defaultHistoryLimit
		if q := r.URL.Query().Get("limit"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		records, err := s.store.Recent(limit)
		if err != nil {
			s.logger.Error("server: query history", "error", err)
			http.Error(w, "history query failed", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []history.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
