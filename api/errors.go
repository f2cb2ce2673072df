package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safa0/radiantctl/display"
	"github.com/safa0/radiantctl/preset"
	"github.com/safa0/radiantctl/reconcile"
)

// Error is the JSON body of every non-2xx response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeConflict   = "conflict"
	ErrCodeInternal   = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

// writeErr maps domain errors onto HTTP statuses.
func (h *handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, preset.ErrNotFound), errors.Is(err, display.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, preset.ErrValueOutOfRange), errors.Is(err, preset.ErrInvalidPreset):
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, preset.ErrDuplicateID),
		errors.Is(err, reconcile.ErrNoSelection),
		errors.Is(err, reconcile.ErrNotBuiltIn),
		errors.Is(err, reconcile.ErrNotModified),
		errors.Is(err, reconcile.ErrNoState),
		errors.Is(err, reconcile.ErrBuiltIn):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
