package preset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/safa0/radiantctl/storage"
)

// StorageKey is the KV key holding the serialized custom presets.
const StorageKey = "presets.custom"

// Logger is the logging surface the store needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Store holds the built-in presets and the persisted custom presets.
// Built-ins are never mutated. Every mutation rewrites the whole custom list
// under StorageKey before the in-memory state changes, so a failed write
// leaves the store as it was.
type Store struct {
	mu       sync.RWMutex
	kv       storage.KV
	builtins []Preset
	custom   []Preset
	logger   Logger
}

// NewStore loads custom presets from kv. Absent data yields an empty custom
// list; undecodable data is logged and treated the same way. Only an
// unexpected read failure is returned.
func NewStore(ctx context.Context, kv storage.KV, logger Logger) (*Store, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	s := &Store{
		kv:       kv,
		builtins: Builtins(),
		custom:   []Preset{},
		logger:   logger,
	}

	data, err := kv.Get(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return s, nil
		}
		return nil, fmt.Errorf("loading presets: %w", err)
	}

	custom, err := decode(data)
	if err != nil {
		var corrupt *StorageCorruptError
		if errors.As(err, &corrupt) {
			logger.Warn("ignoring corrupt preset storage", "key", StorageKey, "error", err)
			return s, nil
		}
		return nil, err
	}
	s.custom = custom
	logger.Debug("custom presets loaded", "count", len(custom))
	return s, nil
}

func decode(data []byte) ([]Preset, error) {
	var raw []Preset
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &StorageCorruptError{Err: err}
	}

	custom := make([]Preset, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, p := range raw {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		p.IsCustom = true
		if p.Values == nil {
			p.Values = Values{}
		}
		custom = append(custom, p)
	}
	return custom, nil
}

// List returns built-ins in definition order followed by custom presets in
// persistence order.
func (s *Store) List() []Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Preset, 0, len(s.builtins)+len(s.custom))
	for _, p := range s.builtins {
		out = append(out, p.clone())
	}
	for _, p := range s.custom {
		out = append(out, p.clone())
	}
	return out
}

// Get returns the preset with id. Built-ins win over a custom preset with the
// same id.
func (s *Store) Get(id string) (Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.builtinIndex(id); i >= 0 {
		return s.builtins[i].clone(), nil
	}
	if i := s.customIndex(id); i >= 0 {
		return s.custom[i].clone(), nil
	}
	return Preset{}, ErrNotFound
}

// Add stores p as a custom preset. IsCustom is forced to true.
func (s *Store) Add(ctx context.Context, p Preset) error {
	if p.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidPreset)
	}
	if err := p.Values.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.customIndex(p.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}

	p = p.clone()
	p.IsCustom = true
	if p.Values == nil {
		p.Values = Values{}
	}

	next := make([]Preset, len(s.custom), len(s.custom)+1)
	copy(next, s.custom)
	next = append(next, p)
	return s.commit(ctx, next)
}

// Update replaces the values of a custom preset and marks it modified.
//
// For a built-in id the built-in stays untouched; the values go to the
// derived custom preset ForkID(id), which is created on first use and
// overwritten afterwards.
func (s *Store) Update(ctx context.Context, id string, values Values) error {
	if err := values.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Preset, len(s.custom))
	copy(next, s.custom)

	if b := s.builtinIndex(id); b >= 0 {
		forkID := ForkID(id)
		if i := s.customIndex(forkID); i >= 0 {
			next[i].Values = values.Clone()
			next[i].IsModified = true
		} else {
			next = append(next, Preset{
				ID:         forkID,
				Name:       forkName(s.builtins[b].Name),
				Values:     values.Clone(),
				IsCustom:   true,
				IsModified: true,
			})
		}
		s.logger.Debug("built-in preset forked", "preset_id", id, "fork_id", forkID)
		return s.commit(ctx, next)
	}

	i := s.customIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next[i].Values = values.Clone()
	next[i].IsModified = true
	return s.commit(ctx, next)
}

// Remove deletes a custom preset. Built-in and unknown ids are a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.builtinIndex(id) >= 0 {
		return nil
	}
	i := s.customIndex(id)
	if i < 0 {
		return nil
	}

	next := make([]Preset, 0, len(s.custom)-1)
	next = append(next, s.custom[:i]...)
	next = append(next, s.custom[i+1:]...)
	return s.commit(ctx, next)
}

// commit persists next and, on success, makes it the current custom list.
// Caller must hold s.mu.
func (s *Store) commit(ctx context.Context, next []Preset) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("saving presets: %w", err)
	}
	s.custom = next
	return nil
}

func (s *Store) builtinIndex(id string) int {
	for i, p := range s.builtins {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) customIndex(id string) int {
	for i, p := range s.custom {
		if p.ID == id {
			return i
		}
	}
	return -1
}
