package health

import (
	"encoding/json"
	"net/http"
)

// NewMux builds the health-check HTTP surface: /health (full report),
// /health/live (process is up), /health/ready (dependency checks pass).
// Built on GetSystemHealth/CheckAll over stdlib net/http, since this is a
// standalone side server alongside internal/metrics's own mux.
func NewMux(checker *HealthChecker) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		health := checker.GetSystemHealth(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if health.Status != StatusHealthy {
			w.WriteHeader(http.StatusInternalServerError)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		status := checker.GetOverallStatus(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if status != StatusHealthy {
			w.WriteHeader(http.StatusInternalServerError)
		}
		json.NewEncoder(w).Encode(map[string]Status{"status": status})
	})

	return mux
}
