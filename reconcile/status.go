package reconcile

import "github.com/safa0/radiantctl/preset"

// Status is what the UI shows for the selected preset.
type Status string

const (
	StatusNone     Status = "none"
	StatusMatching Status = "matching"
	StatusModified Status = "modified"
	// StatusSelected is reported when a preset is selected but there is
	// nothing to compare against: the preset is gone from the store or the
	// display has not reported state yet.
	StatusSelected Status = "selected"
)

// Report is the derived view of one display against the selection.
type Report struct {
	DisplayID string `json:"displayId"`
	Status    Status `json:"status"`
	PresetID  string `json:"presetId,omitempty"`
	// MatchingID is the first preset whose values equal the live values.
	MatchingID string `json:"matchingId,omitempty"`
}

// Status compares the live values of displayID with the selected preset.
func (r *Reconciler) Status(displayID string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status(displayID)
}

func (r *Reconciler) status(displayID string) Status {
	if r.sel.Phase != Selected {
		return StatusNone
	}
	p, err := r.store.Get(r.sel.PresetID)
	if err != nil {
		return StatusSelected
	}
	live, ok := r.states.Values(displayID)
	if !ok {
		return StatusSelected
	}
	if preset.Matches(live, p) {
		return StatusMatching
	}
	return StatusModified
}

// Matching returns the first preset in list order equal to the live values
// of displayID. It is informational and never changes the selection.
func (r *Reconciler) Matching(displayID string) (preset.Preset, bool) {
	live, ok := r.states.Values(displayID)
	if !ok {
		return preset.Preset{}, false
	}
	return preset.FindMatching(live, r.store.List())
}

// Report builds the full status view for displayID.
func (r *Reconciler) Report(displayID string) Report {
	r.mu.Lock()
	rep := Report{DisplayID: displayID, Status: r.status(displayID)}
	if r.sel.Phase == Selected {
		rep.PresetID = r.sel.PresetID
	}
	r.mu.Unlock()

	if m, ok := r.Matching(displayID); ok {
		rep.MatchingID = m.ID
	}
	return rep
}
