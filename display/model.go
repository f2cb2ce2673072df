// Package display tracks discovered displays, their latest reported state,
// and the outbound command stream to the device bridge.
package display

import (
	"context"
	"errors"
	"time"

	"github.com/safa0/radiantctl/preset"
)

var ErrNotFound = errors.New("display not found")

// Info identifies a display as reported by the bridge.
type Info struct {
	ID         string `json:"id"`
	DisplayKey string `json:"displayKey"`
	Model      string `json:"model,omitempty"`
	Mfg        string `json:"mfg,omitempty"`
	Serial     string `json:"serial,omitempty"`
	Bus        string `json:"bus,omitempty"`
}

// State is the latest complete snapshot for one display. Token increases on
// every update from the bridge; UpdatedAt is local and informational.
type State struct {
	Values    preset.Values `json:"values"`
	Token     uint64        `json:"token"`
	Ready     bool          `json:"ready"`
	Error     string        `json:"error,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (s State) clone() State {
	s.Values = s.Values.Clone()
	return s
}

// EventKind distinguishes feed events.
type EventKind string

const (
	EventDiscovered   EventKind = "discovered"
	EventStateChanged EventKind = "state_changed"
)

// Event is one message from the bridge feed. Display is set for
// EventDiscovered; DisplayID and State for EventStateChanged.
type Event struct {
	Kind      EventKind
	Display   Info
	DisplayID string
	State     State
}

// Setter writes one parameter value to a display. Completion is not observed
// by the reconciliation logic.
type Setter interface {
	SetParameterValue(ctx context.Context, displayID, code string, value int) error
}

// Collaborator is the device bridge: it discovers displays, reports their
// state and accepts set-value commands.
type Collaborator interface {
	Setter
	ListDisplays(ctx context.Context) ([]Info, error)
	// Subscribe registers handler for feed events. Handler may be called from
	// any goroutine.
	Subscribe(ctx context.Context, handler func(Event)) error
}

// Logger is the logging surface used in this package.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
