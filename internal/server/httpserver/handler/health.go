package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/scriptloader-go/internal/core/domain"
	"github.com/yndnr/scriptloader-go/internal/infra/buildinfo"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": buildinfo.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(); err != nil {
			h.handleServiceError(w, r, domain.ErrNotReady.WithCause(err))
			return
		}
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ready",
		"scripts": len(h.scripts.Scripts()),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
