// Package service runs the feed event loop: discovery into the registry,
// state into the cache, and status updates out to subscribers.
package service

import (
	"context"
	"fmt"

	"github.com/safa0/radiantctl/display"
	"github.com/safa0/radiantctl/reconcile"
	"github.com/safa0/radiantctl/telemetry"
)

// Event types pushed to Broadcaster.
const (
	EventDisplayDiscovered = "display.discovered"
	EventDisplayState      = "display.state"
	EventPresetStatus      = "preset.status"
)

const eventBuffer = 256

// Broadcaster fans events out to connected clients.
type Broadcaster interface {
	Broadcast(eventType string, payload any)
}

// Logger is the logging surface used by the service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(string, any) {}

// StatePayload is the payload of display.state events.
type StatePayload struct {
	DisplayID string        `json:"displayId"`
	State     display.State `json:"state"`
}

// Options configure a Service. Collaborator, Registry, Cache and Reconciler
// are required.
type Options struct {
	Collaborator  display.Collaborator
	Registry      *display.Registry
	Cache         *display.Cache
	Reconciler    *reconcile.Reconciler
	Recorder      telemetry.Recorder
	Broadcaster   Broadcaster
	StartupPreset string
	Logger        Logger
}

// Service serialises feed events through one goroutine.
type Service struct {
	opts   Options
	events chan display.Event
	done   chan struct{}

	// Touched only by the Run goroutine.
	startupApplied bool
}

func New(opts Options) *Service {
	if opts.Recorder == nil {
		opts.Recorder = telemetry.Nop{}
	}
	if opts.Broadcaster == nil {
		opts.Broadcaster = noopBroadcaster{}
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return &Service{
		opts:   opts,
		events: make(chan display.Event, eventBuffer),
		done:   make(chan struct{}),
	}
}

// Start queues the displays the collaborator already knows about and
// subscribes to its feed. Run must be started for events to be handled.
func (s *Service) Start(ctx context.Context) error {
	displays, err := s.opts.Collaborator.ListDisplays(ctx)
	if err != nil {
		return fmt.Errorf("listing displays: %w", err)
	}
	for _, info := range displays {
		s.enqueue(display.Event{Kind: display.EventDiscovered, Display: info})
	}
	if err := s.opts.Collaborator.Subscribe(ctx, s.enqueue); err != nil {
		return fmt.Errorf("subscribing to display feed: %w", err)
	}
	return nil
}

// enqueue is the feed handler. It blocks while the buffer is full so no
// state update is silently lost, and gives up once Run has returned.
func (s *Service) enqueue(ev display.Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// Run handles events until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			s.handle(ctx, ev)
		}
	}
}

func (s *Service) handle(ctx context.Context, ev display.Event) {
	switch ev.Kind {
	case display.EventDiscovered:
		s.handleDiscovered(ctx, ev.Display)
	case display.EventStateChanged:
		s.handleState(ev.DisplayID, ev.State)
	default:
		s.opts.Logger.Warn("unknown feed event", "kind", ev.Kind)
	}
}

func (s *Service) handleDiscovered(ctx context.Context, info display.Info) {
	if info.ID == "" || !s.opts.Registry.Add(info) {
		return
	}
	s.opts.Logger.Info("display discovered", "display_id", info.ID, "model", info.Model, "bus", info.Bus)
	s.opts.Broadcaster.Broadcast(EventDisplayDiscovered, info)

	if s.startupApplied || s.opts.StartupPreset == "" {
		return
	}
	s.startupApplied = true
	if _, selected := s.opts.Reconciler.Selected(); selected {
		return
	}
	if err := s.opts.Reconciler.Select(ctx, info.ID, s.opts.StartupPreset); err != nil {
		s.opts.Logger.Warn("startup preset not applied", "preset_id", s.opts.StartupPreset, "error", err)
		return
	}
	s.opts.Logger.Info("startup preset applied", "preset_id", s.opts.StartupPreset, "display_id", info.ID)
	s.opts.Broadcaster.Broadcast(EventPresetStatus, s.opts.Reconciler.Report(info.ID))
}

func (s *Service) handleState(displayID string, st display.State) {
	if displayID == "" {
		return
	}
	if !s.opts.Cache.Apply(displayID, st) {
		s.opts.Logger.Debug("stale display state ignored", "display_id", displayID, "token", st.Token)
		return
	}
	cached, _ := s.opts.Cache.Get(displayID)
	s.opts.Reconciler.Observe(displayID, cached.Values)
	report := s.opts.Reconciler.Report(displayID)

	s.opts.Recorder.RecordState(displayID, cached, string(report.Status))
	s.opts.Broadcaster.Broadcast(EventDisplayState, StatePayload{DisplayID: displayID, State: cached})
	s.opts.Broadcaster.Broadcast(EventPresetStatus, report)
}
