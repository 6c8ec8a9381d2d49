package handler

import (
	"fmt"
	"net/http"

	"github.com/yndnr/scriptloader-go/internal/core/domain"
)

// handleLoadScript handles POST /scripts/load.
func (h *Handler) handleLoadScript(w http.ResponseWriter, r *http.Request) {
	var req LoadScriptRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	outcome, err := h.scripts.LoadScript(r.Context(), req.ScriptRef())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, outcomeToResponse(outcome))
}

// handleLoadBatch handles POST /scripts/batch.
func (h *Handler) handleLoadBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchLoadRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if len(req.Scripts) > h.maxBatchSize {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code,
			fmt.Sprintf("batch of %d scripts exceeds the limit of %d", len(req.Scripts), h.maxBatchSize), nil)
		return
	}

	refs := make([]domain.ScriptRef, len(req.Scripts))
	for i, s := range req.Scripts {
		refs[i] = s.ScriptRef()
	}

	outcomes, err := h.scripts.LoadScripts(r.Context(), refs...)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, BatchLoadResponse{Scripts: outcomesToResponse(outcomes)})
}

// handleListScripts handles GET /scripts.
func (h *Handler) handleListScripts(w http.ResponseWriter, r *http.Request) {
	outcomes := h.scripts.Scripts()
	h.writeJSON(w, r, http.StatusOK, ListScriptsResponse{
		Items: outcomesToResponse(outcomes),
		Total: len(outcomes),
	})
}

// handleGetScript handles GET /scripts/{name}.
func (h *Handler) handleGetScript(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	outcome, ok := h.scripts.Get(name)
	if !ok {
		h.handleServiceError(w, r, domain.ErrScriptNotFound.WithDetails(name))
		return
	}

	h.writeJSON(w, r, http.StatusOK, outcomeToResponse(outcome))
}

// handleScriptStatus handles GET /scripts/{name}/status.
func (h *Handler) handleScriptStatus(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	h.writeJSON(w, r, http.StatusOK, ScriptStatusResponse{
		Name:   name,
		Exists: h.scripts.Exists(name),
		Loaded: h.scripts.IsLoaded(name),
		State:  h.scripts.State(name).String(),
	})
}
