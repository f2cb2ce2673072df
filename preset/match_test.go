package preset_test

import (
	"testing"

	"github.com/safa0/radiantctl/preset"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		live   preset.Values
		target preset.Values
		want   bool
	}{
		{"equal", preset.Values{"0x10": 50, "0x12": 50}, preset.Values{"0x12": 50, "0x10": 50}, true},
		{"value differs", preset.Values{"0x10": 51, "0x12": 50}, preset.Values{"0x10": 50, "0x12": 50}, false},
		{"live subset", preset.Values{"0x10": 50}, preset.Values{"0x10": 50, "0x12": 50}, false},
		{"live superset", preset.Values{"0x10": 50, "0x12": 50, "0x16": 1}, preset.Values{"0x10": 50, "0x12": 50}, false},
		{"same size different keys", preset.Values{"0x10": 50, "0x16": 50}, preset.Values{"0x10": 50, "0x12": 50}, false},
		{"both empty", preset.Values{}, preset.Values{}, true},
		{"nil and empty", nil, preset.Values{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preset.Matches(tt.live, preset.Preset{Values: tt.target})
			if got != tt.want {
				t.Fatalf("Matches = %v, want %v", got, tt.want)
			}
			// Symmetric in its arguments.
			if back := preset.Matches(tt.target, preset.Preset{Values: tt.live}); back != got {
				t.Fatalf("Matches not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestFindMatchingReturnsEarliest(t *testing.T) {
	presets := []preset.Preset{
		{ID: "other", Values: preset.Values{"0x10": 1}},
		{ID: "first", Values: preset.Values{"0x10": 50, "0x12": 50}},
		{ID: "second", Values: preset.Values{"0x10": 50, "0x12": 50}},
	}
	for i := 0; i < 5; i++ {
		got, ok := preset.FindMatching(preset.Values{"0x12": 50, "0x10": 50}, presets)
		if !ok || got.ID != "first" {
			t.Fatalf("expected first, got %q (ok=%v)", got.ID, ok)
		}
	}
}

func TestFindMatchingNone(t *testing.T) {
	if _, ok := preset.FindMatching(preset.Values{"0x10": 7}, preset.Builtins()); ok {
		t.Fatal("expected no match")
	}
}
