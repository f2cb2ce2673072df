package display

import "sync"

// Registry holds discovered displays in discovery order.
type Registry struct {
	mu       sync.RWMutex
	displays map[string]Info
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{displays: make(map[string]Info)}
}

// Add records info and reports whether the display is new. Repeated
// discoveries of a known id are ignored.
func (r *Registry) Add(info Info) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.displays[info.ID]; ok {
		return false
	}
	r.displays[info.ID] = info
	r.order = append(r.order, info.ID)
	return true
}

func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.displays[id])
	}
	return list
}

func (r *Registry) Get(id string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.displays[id]
	return info, ok
}

// Len returns the number of known displays.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
