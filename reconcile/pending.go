package reconcile

import "github.com/safa0/radiantctl/preset"

// maxPendingReports bounds how many state reports may still show a code at
// its pre-command value before the command is assumed rejected.
const maxPendingReports = 3

// pendingValue is a dispatched value the display has not reported yet.
type pendingValue struct {
	value int
	// inflight holds values the display may still report for the code
	// while the command is queued: the value before it and any value it
	// superseded.
	inflight []int
	reports  int
}

// pendingSet tracks dispatched values per display until a state report
// confirms or overrides them.
type pendingSet map[string]map[string]*pendingValue

func (ps pendingSet) record(displayID, code string, value int, live preset.Values) {
	codes := ps[displayID]
	if codes == nil {
		codes = make(map[string]*pendingValue)
		ps[displayID] = codes
	}

	next := &pendingValue{value: value}
	if v, ok := live[code]; ok {
		next.inflight = append(next.inflight, v)
	}
	if old, ok := codes[code]; ok {
		next.inflight = append(next.inflight, old.inflight...)
		next.inflight = append(next.inflight, old.value)
	}
	codes[code] = next
}

// overlay returns base with every pending value of displayID applied.
func (ps pendingSet) overlay(displayID string, base preset.Values) preset.Values {
	out := base.Clone()
	if out == nil {
		out = preset.Values{}
	}
	for code, p := range ps[displayID] {
		out[code] = p.value
	}
	return out
}

// observe trims displayID's pending values against a state report. A value
// is dropped once reported, once the display reports something unrelated
// for its code, or after maxPendingReports reports without it.
func (ps pendingSet) observe(displayID string, values preset.Values) {
	codes := ps[displayID]
	for code, p := range codes {
		v, ok := values[code]
		switch {
		case ok && v == p.value:
			delete(codes, code)
		case ok && !containsValue(p.inflight, v):
			delete(codes, code)
		default:
			p.reports++
			if p.reports >= maxPendingReports {
				delete(codes, code)
			}
		}
	}
	if len(codes) == 0 {
		delete(ps, displayID)
	}
}

func containsValue(vs []int, v int) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}
