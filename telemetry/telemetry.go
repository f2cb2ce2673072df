// Package telemetry records display state snapshots to a time-series sink.
package telemetry

import (
	"errors"

	"github.com/safa0/radiantctl/display"
)

var (
	ErrDisabled         = errors.New("telemetry: disabled in configuration")
	ErrConnectionFailed = errors.New("telemetry: connection failed")
)

// Recorder receives every accepted display state together with the preset
// status computed for it. Implementations must not block.
type Recorder interface {
	RecordState(displayID string, st display.State, status string)
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordState(string, display.State, string) {}
func (Nop) Close() error                              { return nil }
