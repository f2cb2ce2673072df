package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safa0/radiantctl/preset"
)

func (h *handler) listPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

type createPresetRequest struct {
	Name   string        `json:"name"`
	Values preset.Values `json:"values"`
}

func (h *handler) createPreset(w http.ResponseWriter, r *http.Request) {
	var req createPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	p, err := h.reconciler.Create(r.Context(), req.Name, req.Values)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.presetsChanged()
	writeJSON(w, http.StatusCreated, p)
}

func (h *handler) deletePreset(w http.ResponseWriter, r *http.Request) {
	if err := h.reconciler.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.presetsChanged()
	h.broadcastStatus()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) duplicatePreset(w http.ResponseWriter, r *http.Request) {
	p, err := h.reconciler.Duplicate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.presetsChanged()
	writeJSON(w, http.StatusCreated, p)
}

func (h *handler) presetsChanged() {
	h.hub.Broadcast(EventPresetsChanged, h.store.List())
}
