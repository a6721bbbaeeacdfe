package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// Check answers liveness and readiness probes. Both actions report the same
// payload; readiness gains meaning once downstream checks are added.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	switch action {
	case "liveness", "readiness":
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "check": action})
	default:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown health check"})
	}
}
