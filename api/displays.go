package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safa0/radiantctl/display"
	"github.com/safa0/radiantctl/reconcile"
	"github.com/safa0/radiantctl/service"
)

type displayView struct {
	display.Info
	State  *display.State   `json:"state,omitempty"`
	Status reconcile.Report `json:"status"`
}

func (h *handler) view(info display.Info) displayView {
	v := displayView{Info: info, Status: h.reconciler.Report(info.ID)}
	if st, ok := h.cache.Get(info.ID); ok {
		v.State = &st
	}
	return v
}

// lookup resolves the {id} URL parameter to a known display.
func (h *handler) lookup(w http.ResponseWriter, r *http.Request) (display.Info, bool) {
	info, ok := h.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		h.writeErr(w, r, display.ErrNotFound)
		return display.Info{}, false
	}
	return info, true
}

func (h *handler) listDisplays(w http.ResponseWriter, r *http.Request) {
	displays := h.registry.List()
	views := make([]displayView, 0, len(displays))
	for _, info := range displays {
		views = append(views, h.view(info))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) getDisplay(w http.ResponseWriter, r *http.Request) {
	info, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.view(info))
}

func (h *handler) getStatus(w http.ResponseWriter, r *http.Request) {
	info, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.reconciler.Report(info.ID))
}

func (h *handler) selectPreset(w http.ResponseWriter, r *http.Request) {
	info, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.reconciler.Select(r.Context(), info.ID, chi.URLParam(r, "presetID")); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.broadcastStatus()
	writeJSON(w, http.StatusOK, h.reconciler.Report(info.ID))
}

type setValueRequest struct {
	Value *int `json:"value"`
}

func (h *handler) setValue(w http.ResponseWriter, r *http.Request) {
	info, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req setValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	_, selected := h.reconciler.Selected()
	if err := h.reconciler.ChangeValue(r.Context(), info.ID, chi.URLParam(r, "code"), *req.Value); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if selected {
		h.presetsChanged()
	}
	h.broadcastStatus()
	writeJSON(w, http.StatusOK, h.reconciler.Report(info.ID))
}

func (h *handler) revert(w http.ResponseWriter, r *http.Request) {
	info, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.reconciler.Revert(r.Context(), info.ID); err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.reconciler.Report(info.ID))
}

func (h *handler) saveAsCustom(w http.ResponseWriter, r *http.Request) {
	info, ok := h.lookup(w, r)
	if !ok {
		return
	}
	p, err := h.reconciler.SaveAsCustom(r.Context(), info.ID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.presetsChanged()
	h.broadcastStatus()
	writeJSON(w, http.StatusCreated, p)
}

// broadcastStatus pushes the status of every known display. Selection is
// global, so one change affects all of them.
func (h *handler) broadcastStatus() {
	for _, info := range h.registry.List() {
		h.hub.Broadcast(service.EventPresetStatus, h.reconciler.Report(info.ID))
	}
}
