// Package api exposes presets and displays over HTTP/JSON and pushes live
// updates over a WebSocket.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/safa0/radiantctl/display"
	"github.com/safa0/radiantctl/preset"
	"github.com/safa0/radiantctl/reconcile"
)

// Event types pushed by the API in addition to the feed events.
const EventPresetsChanged = "presets.changed"

// Logger is the logging surface used by the handlers and the hub.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Deps are the components the routes operate on.
type Deps struct {
	Registry   *display.Registry
	Cache      *display.Cache
	Store      *preset.Store
	Reconciler *reconcile.Reconciler
	Hub        *Hub
	Logger     Logger
}

func RegisterRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = noopLogger{}
	}
	if d.Hub == nil {
		d.Hub = NewHub(d.Logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := &handler{
		registry:   d.Registry,
		cache:      d.Cache,
		store:      d.Store,
		reconciler: d.Reconciler,
		hub:        d.Hub,
		logger:     d.Logger,
	}

	r.Get("/api/displays", h.listDisplays)
	r.Get("/api/displays/{id}", h.getDisplay)
	r.Get("/api/displays/{id}/status", h.getStatus)
	r.Post("/api/displays/{id}/select/{presetID}", h.selectPreset)
	r.Put("/api/displays/{id}/values/{code}", h.setValue)
	r.Post("/api/displays/{id}/revert", h.revert)
	r.Post("/api/displays/{id}/save-as-custom", h.saveAsCustom)

	r.Get("/api/presets", h.listPresets)
	r.Post("/api/presets", h.createPreset)
	r.Delete("/api/presets/{id}", h.deletePreset)
	r.Post("/api/presets/{id}/duplicate", h.duplicatePreset)

	r.Get("/api/ws", h.handleWS)

	return r
}

type handler struct {
	registry   *display.Registry
	cache      *display.Cache
	store      *preset.Store
	reconciler *reconcile.Reconciler
	hub        *Hub
	logger     Logger
}
