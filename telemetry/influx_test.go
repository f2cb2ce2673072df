package telemetry

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/safa0/radiantctl/config"
	"github.com/safa0/radiantctl/display"
	"github.com/safa0/radiantctl/preset"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false}, nil)
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestStatePoint(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := display.State{
		Values:    preset.Values{"0x10": 60, "0x12": 50},
		Token:     7,
		Ready:     true,
		UpdatedAt: ts,
	}

	line := write.PointToLineProtocol(statePoint("d1", st, "modified"), time.Second)

	if !strings.HasPrefix(line, "display_state,display_id=d1,status=modified ") {
		t.Fatalf("unexpected measurement/tags: %s", line)
	}
	for _, want := range []string{"0x10=60i", "0x12=50i", "ready=true", "token=7u"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(line), " 1772366400") {
		t.Errorf("unexpected timestamp in %q", line)
	}
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordState("d1", display.State{}, "none")
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
