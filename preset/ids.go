package preset

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ForkID is the deterministic id of the custom copy a built-in forks into.
func ForkID(id string) string {
	return id + "_custom"
}

// NewCustomID returns an id for an explicitly created preset.
func NewCustomID() string {
	return "custom_" + uuid.New().String()
}

// SavedID returns an id for a save-as-custom copy of base.
func SavedID(base string) string {
	return base + "_saved_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// CopyID returns base_copy_n with the smallest n >= 1 not accepted by taken.
func CopyID(base string, taken func(id string) bool) string {
	for n := 1; ; n++ {
		id := base + "_copy_" + strconv.Itoa(n)
		if !taken(id) {
			return id
		}
	}
}

func forkName(name string) string { return name + " (custom)" }

// SavedName names a save-as-custom copy.
func SavedName(name string) string { return name + " (saved)" }

// CopyName names a duplicate.
func CopyName(name string) string { return name + " (copy)" }
