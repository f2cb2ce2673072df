package preset

// Matches reports whether the live values equal the preset's values: same
// key set, exactly equal values. A preset naming a code the live state does
// not report never matches, and vice versa.
func Matches(values Values, p Preset) bool {
	return values.Equal(p.Values)
}

// FindMatching returns the first preset in list order whose values equal
// values.
func FindMatching(values Values, presets []Preset) (Preset, bool) {
	for _, p := range presets {
		if Matches(values, p) {
			return p, true
		}
	}
	return Preset{}, false
}
