package display

import (
	"context"
	"sync"
)

// FakeBridge is an in-process Collaborator for tests. It records every
// SetParameterValue call and lets the test push feed events with Emit.
type FakeBridge struct {
	mu       sync.Mutex
	displays []Info
	handlers []func(Event)
	calls    []Command

	// SetErr, when non-nil, is returned by SetParameterValue.
	SetErr error
}

func NewFakeBridge(displays ...Info) *FakeBridge {
	return &FakeBridge{displays: displays}
}

func (f *FakeBridge) ListDisplays(_ context.Context) ([]Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Info, len(f.displays))
	copy(out, f.displays)
	return out, nil
}

func (f *FakeBridge) Subscribe(_ context.Context, handler func(Event)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, handler)
	return nil
}

func (f *FakeBridge) SetParameterValue(_ context.Context, displayID, code string, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Command{DisplayID: displayID, Code: code, Value: value})
	return f.SetErr
}

// Emit delivers ev to every subscribed handler.
func (f *FakeBridge) Emit(ev Event) {
	f.mu.Lock()
	handlers := make([]func(Event), len(f.handlers))
	copy(handlers, f.handlers)
	f.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Calls returns the SetParameterValue calls received so far.
func (f *FakeBridge) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Command, len(f.calls))
	copy(out, f.calls)
	return out
}
