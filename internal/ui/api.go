package ui

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mcules/ortwarmcache/internal/metrics"
)

// RegisterAPI wires the JSON admin endpoints onto mux, guarded by bearer
// API-key auth.
func (h *Handler) RegisterAPI(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/entries", h.Auth.Middleware(http.HandlerFunc(h.apiEntries)).ServeHTTP)
	mux.HandleFunc("/api/v1/entries/", h.Auth.Middleware(http.HandlerFunc(h.apiUnregister)).ServeHTTP)
	mux.HandleFunc("/api/v1/activity", h.Auth.Middleware(http.HandlerFunc(h.apiActivity)).ServeHTTP)
	mux.HandleFunc("/api/v1/metrics", h.Auth.Middleware(http.HandlerFunc(h.apiMetrics)).ServeHTTP)
}

func (h *Handler) apiEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Registry.SnapshotEntries())
}

func (h *Handler) apiUnregister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/entries/"), "/unregister")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	e, ok := h.Registry.Lookup(key)
	if !ok {
		http.Error(w, "unknown entry", http.StatusNotFound)
		return
	}

	h.Registry.Unregister(r.Context(), e)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) apiActivity(w http.ResponseWriter, r *http.Request) {
	var events any
	if h.Activity != nil {
		events = h.Activity.List()
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) apiMetrics(w http.ResponseWriter, r *http.Request) {
	snap := struct {
		metrics.Gauge
		Keys map[string]metrics.KeyStats
	}{
		Gauge: h.Metrics.Gauge(h.Registry.LoadedCount(), h.Registry.MaxLoaded(), h.Registry.EntryCount()),
		Keys:  h.Metrics.Snapshot(),
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
