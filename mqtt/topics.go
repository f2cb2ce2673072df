package mqtt

import (
	"fmt"
	"strings"
)

// Topic leaves under <prefix>/display/<id>/.
const (
	LeafInfo  = "info"
	LeafState = "state"
	LeafSet   = "set"
)

// Topics builds the bridge topic hierarchy under a configurable prefix:
//
//	<prefix>/display/<id>/info   retained DisplayInfo, bridge -> core
//	<prefix>/display/<id>/state  state snapshots, bridge -> core
//	<prefix>/display/<id>/set    set-value commands, core -> bridge
//	<prefix>/system/status       core online/offline (LWT)
type Topics struct {
	Prefix string
}

func (t Topics) DisplayInfo(id string) string  { return t.display(id, LeafInfo) }
func (t Topics) DisplayState(id string) string { return t.display(id, LeafState) }
func (t Topics) DisplaySet(id string) string   { return t.display(id, LeafSet) }

// AllDisplayInfo matches the info topic of every display.
func (t Topics) AllDisplayInfo() string { return t.display("+", LeafInfo) }

// AllDisplayState matches the state topic of every display.
func (t Topics) AllDisplayState() string { return t.display("+", LeafState) }

func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.Prefix)
}

func (t Topics) display(id, leaf string) string {
	return fmt.Sprintf("%s/display/%s/%s", t.Prefix, id, leaf)
}

// ParseDisplay splits a display topic into its id and leaf. It returns
// ok=false for topics outside <prefix>/display/.
func (t Topics) ParseDisplay(topic string) (id, leaf string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.Prefix+"/display/")
	if !found {
		return "", "", false
	}
	id, leaf, found = strings.Cut(rest, "/")
	if !found || id == "" || leaf == "" || strings.Contains(leaf, "/") {
		return "", "", false
	}
	return id, leaf, true
}
