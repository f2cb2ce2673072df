// Package reconcile decides what a preset selection or a value edit does to
// the device and to the preset store, and reports whether the live values
// still match the selected preset.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/safa0/radiantctl/display"
	"github.com/safa0/radiantctl/preset"
)

var (
	ErrNoSelection = errors.New("no preset selected")
	ErrNotBuiltIn  = errors.New("selected preset is not built-in")
	ErrNotModified = errors.New("live values match the selected preset")
	ErrNoState     = errors.New("no state reported for display")
	ErrBuiltIn     = errors.New("built-in presets cannot be deleted")
)

// PresetStore is the preset persistence the reconciler mutates.
type PresetStore interface {
	List() []preset.Preset
	Get(id string) (preset.Preset, error)
	Add(ctx context.Context, p preset.Preset) error
	Update(ctx context.Context, id string, values preset.Values) error
	Remove(ctx context.Context, id string) error
}

// StateReader exposes the latest live values per display.
type StateReader interface {
	Values(displayID string) (preset.Values, bool)
}

// Dispatcher accepts fire-and-forget set-value commands.
type Dispatcher interface {
	Dispatch(cmd display.Command) bool
}

// Logger is the logging surface used by the reconciler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Phase is the selection state.
type Phase int

const (
	Unselected Phase = iota
	Selected
)

func (p Phase) String() string {
	if p == Selected {
		return "selected"
	}
	return "unselected"
}

// Selection is Unselected, or Selected with the preset id.
type Selection struct {
	Phase    Phase
	PresetID string
}

// Reconciler owns the global preset selection. All transitions are
// serialised by one mutex and never wait for dispatched commands.
type Reconciler struct {
	mu       sync.Mutex
	store    PresetStore
	states   StateReader
	commands Dispatcher
	logger   Logger
	sel      Selection
	pending  pendingSet
}

func New(store PresetStore, states StateReader, commands Dispatcher, logger Logger) *Reconciler {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Reconciler{
		store:    store,
		states:   states,
		commands: commands,
		logger:   logger,
		pending:  pendingSet{},
	}
}

// Selection returns the current selection.
func (r *Reconciler) Selection() Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sel
}

// Selected returns the selected preset id, if any.
func (r *Reconciler) Selected() (string, bool) {
	sel := r.Selection()
	return sel.PresetID, sel.Phase == Selected
}

// Select applies presetID to displayID and selects it. Selecting the preset
// that is already selected deselects it and sends nothing.
func (r *Reconciler) Select(_ context.Context, displayID, presetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sel.Phase == Selected && r.sel.PresetID == presetID {
		r.sel = Selection{}
		r.logger.Debug("preset deselected", "preset_id", presetID)
		return nil
	}

	p, err := r.store.Get(presetID)
	if err != nil {
		return err
	}

	r.dispatchAll(displayID, p.Values)
	r.sel = Selection{Phase: Selected, PresetID: p.ID}
	r.logger.Info("preset selected", "preset_id", p.ID, "display_id", displayID)
	return nil
}

// ChangeValue sends code=value to displayID. While a preset is selected the
// edit is absorbed into it: the store receives the display's current values
// with code replaced, which forks a built-in into its custom copy. Values
// dispatched but not yet reported by the display count as current.
func (r *Reconciler) ChangeValue(ctx context.Context, displayID, code string, value int) error {
	if err := preset.ValidateValue(code, value); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.dispatch(display.Command{DisplayID: displayID, Code: code, Value: value})

	if r.sel.Phase != Selected {
		return nil
	}

	base, ok := r.states.Values(displayID)
	if !ok {
		p, err := r.store.Get(r.sel.PresetID)
		if err != nil {
			return fmt.Errorf("absorbing edit into %s: %w", r.sel.PresetID, err)
		}
		base = p.Values
	}
	base = r.pending.overlay(displayID, base)

	if err := r.store.Update(ctx, r.sel.PresetID, base.With(code, value)); err != nil {
		return fmt.Errorf("absorbing edit into %s: %w", r.sel.PresetID, err)
	}
	return nil
}

// Revert re-sends the selected preset's stored values. Selection and store
// are unchanged; a fork created by earlier edits is left in place.
func (r *Reconciler) Revert(_ context.Context, displayID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sel.Phase != Selected {
		return ErrNoSelection
	}
	p, err := r.store.Get(r.sel.PresetID)
	if err != nil {
		return err
	}
	r.dispatchAll(displayID, p.Values)
	r.logger.Debug("preset reverted", "preset_id", p.ID, "display_id", displayID)
	return nil
}

// SaveAsCustom copies the live values of displayID into a new custom preset
// derived from the selected built-in, and selects the copy. Only valid while
// a built-in is selected and the live values have drifted from it.
func (r *Reconciler) SaveAsCustom(ctx context.Context, displayID string) (preset.Preset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sel.Phase != Selected {
		return preset.Preset{}, ErrNoSelection
	}
	src, err := r.store.Get(r.sel.PresetID)
	if err != nil {
		return preset.Preset{}, err
	}
	if src.IsCustom {
		return preset.Preset{}, ErrNotBuiltIn
	}
	live, ok := r.states.Values(displayID)
	if !ok {
		return preset.Preset{}, ErrNoState
	}
	if preset.Matches(live, src) {
		return preset.Preset{}, ErrNotModified
	}

	p := preset.Preset{
		ID:     preset.SavedID(src.ID),
		Name:   preset.SavedName(src.Name),
		Values: live,
	}
	if err := r.store.Add(ctx, p); err != nil {
		return preset.Preset{}, err
	}
	r.sel = Selection{Phase: Selected, PresetID: p.ID}
	r.logger.Info("preset saved as custom", "source_id", src.ID, "preset_id", p.ID)

	p.IsCustom = true
	return p, nil
}

// Delete removes a custom preset, deselecting it first if selected.
func (r *Reconciler) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.store.Get(id)
	if err != nil {
		return err
	}
	if !p.IsCustom {
		return ErrBuiltIn
	}

	if r.sel.Phase == Selected && r.sel.PresetID == id {
		r.sel = Selection{}
	}
	if err := r.store.Remove(ctx, id); err != nil {
		return err
	}
	r.logger.Info("preset deleted", "preset_id", id)
	return nil
}

// Duplicate stores a custom copy of any preset under a fresh id. Selection
// is unchanged.
func (r *Reconciler) Duplicate(ctx context.Context, id string) (preset.Preset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, err := r.store.Get(id)
	if err != nil {
		return preset.Preset{}, err
	}

	p := preset.Preset{
		ID: preset.CopyID(src.ID, func(candidate string) bool {
			_, err := r.store.Get(candidate)
			return err == nil
		}),
		Name:     preset.CopyName(src.Name),
		Values:   src.Values.Clone(),
		IsCustom: true,
	}
	if err := r.store.Add(ctx, p); err != nil {
		return preset.Preset{}, err
	}
	r.logger.Info("preset duplicated", "source_id", src.ID, "preset_id", p.ID)
	return p, nil
}

// Create stores a new user-defined preset.
func (r *Reconciler) Create(ctx context.Context, name string, values preset.Values) (preset.Preset, error) {
	if name == "" {
		return preset.Preset{}, fmt.Errorf("%w: name is required", preset.ErrInvalidPreset)
	}
	if err := values.Validate(); err != nil {
		return preset.Preset{}, err
	}

	p := preset.Preset{
		ID:       preset.NewCustomID(),
		Name:     name,
		Values:   values.Clone(),
		IsCustom: true,
	}
	if p.Values == nil {
		p.Values = preset.Values{}
	}
	if err := r.store.Add(ctx, p); err != nil {
		return preset.Preset{}, err
	}
	r.logger.Info("preset created", "preset_id", p.ID)
	return p, nil
}

func (r *Reconciler) dispatchAll(displayID string, values preset.Values) {
	for _, code := range values.Codes() {
		r.dispatch(display.Command{DisplayID: displayID, Code: code, Value: values[code]})
	}
}

func (r *Reconciler) dispatch(cmd display.Command) {
	if !r.commands.Dispatch(cmd) {
		r.logger.Warn("command not dispatched", "display_id", cmd.DisplayID, "code", cmd.Code)
		return
	}
	live, _ := r.states.Values(cmd.DisplayID)
	r.pending.record(cmd.DisplayID, cmd.Code, cmd.Value, live)
}

// Observe settles dispatched values against a state report accepted for
// displayID. Call it after the state cache takes the report.
func (r *Reconciler) Observe(displayID string, values preset.Values) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending.observe(displayID, values)
}
