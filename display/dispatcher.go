package display

import (
	"context"
	"sync/atomic"
)

// Command sets one parameter on one display.
type Command struct {
	DisplayID string `json:"displayId"`
	Code      string `json:"code"`
	Value     int    `json:"value"`
}

// Dispatcher is a one-way command channel drained by a single worker, so
// commands reach the Setter in the order they were dispatched. Failures are
// logged and dropped; nothing is retried here.
type Dispatcher struct {
	setter  Setter
	queue   chan Command
	logger  Logger
	dropped atomic.Uint64
	failed  atomic.Uint64
}

func NewDispatcher(setter Setter, size int, logger Logger) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}
	if size < 1 {
		size = 1
	}
	return &Dispatcher{
		setter: setter,
		queue:  make(chan Command, size),
		logger: logger,
	}
}

// Dispatch enqueues cmd without blocking. It returns false when the queue
// is full and the command was dropped.
func (d *Dispatcher) Dispatch(cmd Command) bool {
	select {
	case d.queue <- cmd:
		return true
	default:
		d.dropped.Add(1)
		d.logger.Warn("command queue full, dropping command",
			"display_id", cmd.DisplayID, "code", cmd.Code, "value", cmd.Value)
		return false
	}
}

// Run delivers queued commands until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-d.queue:
			if err := d.setter.SetParameterValue(ctx, cmd.DisplayID, cmd.Code, cmd.Value); err != nil {
				d.failed.Add(1)
				d.logger.Error("set parameter failed",
					"display_id", cmd.DisplayID, "code", cmd.Code, "value", cmd.Value, "error", err)
				continue
			}
			d.logger.Debug("set parameter sent",
				"display_id", cmd.DisplayID, "code", cmd.Code, "value", cmd.Value)
		}
	}
}

// Dropped returns how many commands were discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }

// Failed returns how many commands the Setter rejected.
func (d *Dispatcher) Failed() uint64 { return d.failed.Load() }
