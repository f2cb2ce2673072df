package mqtt

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/safa0/radiantctl/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled:          true,
		Host:             "127.0.0.1",
		Port:             1883,
		ClientID:         "radiantctl-test",
		QoS:              1,
		TopicPrefix:      "radiantctl",
		ReconnectInitial: 1,
		ReconnectMax:     5,
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Username = "user"
	cfg.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Fatalf("unexpected servers %v", opts.Servers)
	}
	if opts.ClientID != "radiantctl-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "user" || opts.Password != "secret" {
		t.Errorf("credentials not set")
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Errorf("expected auto reconnect and clean session")
	}
	if opts.MaxReconnectInterval != 5*time.Second {
		t.Errorf("MaxReconnectInterval = %v", opts.MaxReconnectInterval)
	}
	if !opts.WillEnabled || opts.WillTopic != "radiantctl/system/status" || !opts.WillRetained {
		t.Errorf("unexpected will: enabled=%v topic=%q retained=%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
	if opts.TLSConfig != nil && opts.TLSConfig.MinVersion != 0 {
		t.Errorf("TLS should not be configured")
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.TLS = true
	cfg.Port = 8883

	opts := buildClientOptions(cfg)
	if got := opts.Servers[0].String(); got != "ssl://127.0.0.1:8883" {
		t.Fatalf("broker = %q", got)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion == 0 {
		t.Fatal("expected TLS config with minimum version")
	}
}

func TestStatusPayload(t *testing.T) {
	got := statusPayload("core", "offline", "graceful_shutdown")
	for _, want := range []string{`"status":"offline"`, `"client_id":"core"`, `"reason":"graceful_shutdown"`, `"timestamp":`} {
		if !strings.Contains(got, want) {
			t.Errorf("payload %s missing %s", got, want)
		}
	}
	if strings.Contains(statusPayload("core", "online", ""), "reason") {
		t.Error("online payload should not carry a reason")
	}
}

func TestTopics(t *testing.T) {
	topics := Topics{Prefix: "rc"}
	tests := []struct {
		got, want string
	}{
		{topics.DisplayInfo("d1"), "rc/display/d1/info"},
		{topics.DisplayState("d1"), "rc/display/d1/state"},
		{topics.DisplaySet("d1"), "rc/display/d1/set"},
		{topics.AllDisplayInfo(), "rc/display/+/info"},
		{topics.AllDisplayState(), "rc/display/+/state"},
		{topics.SystemStatus(), "rc/system/status"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestParseDisplay(t *testing.T) {
	topics := Topics{Prefix: "rc"}
	tests := []struct {
		topic string
		id    string
		leaf  string
		ok    bool
	}{
		{"rc/display/d1/state", "d1", "state", true},
		{"rc/display/d1/info", "d1", "info", true},
		{"rc/display/d1", "", "", false},
		{"rc/display//state", "", "", false},
		{"rc/display/d1/state/extra", "", "", false},
		{"other/display/d1/state", "", "", false},
	}
	for _, tt := range tests {
		id, leaf, ok := topics.ParseDisplay(tt.topic)
		if id != tt.id || leaf != tt.leaf || ok != tt.ok {
			t.Errorf("ParseDisplay(%q) = %q, %q, %v", tt.topic, id, leaf, ok)
		}
	}
}

func TestDisconnectedClientRejectsOperations(t *testing.T) {
	c := newClient(testConfig(), nil)

	if err := c.Publish("rc/x", []byte("{}"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish error = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("rc/x", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe error = %v, want ErrNotConnected", err)
	}
	if c.IsConnected() {
		t.Error("new client should not be connected")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on unconnected client: %v", err)
	}
}

func TestPublishValidation(t *testing.T) {
	c := newClient(testConfig(), nil)

	if err := c.Publish("", nil, 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: %v", err)
	}
	if err := c.Publish("t", nil, 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("qos 3: %v", err)
	}
	big := make([]byte, maxPayloadSize+1)
	if err := c.Publish("t", big, 1, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("oversized payload: %v", err)
	}
	if err := c.Subscribe("t", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler: %v", err)
	}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type fakeToken struct {
	done chan struct{}
	err  error
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

// fakePaho implements the connect and disconnect calls of a paho client.
type fakePaho struct {
	pahomqtt.Client
	token        *fakeToken
	disconnected int
}

func (f *fakePaho) Connect() pahomqtt.Token { return f.token }
func (f *fakePaho) Disconnect(uint)         { f.disconnected++ }

func TestAwaitConnect(t *testing.T) {
	closed := make(chan struct{})
	close(closed)

	tests := []struct {
		name           string
		token          *fakeToken
		wantErr        bool
		wantDisconnect int
	}{
		{"connected", &fakeToken{done: closed}, false, 0},
		{"timeout", &fakeToken{done: make(chan struct{})}, true, 1},
		{"refused", &fakeToken{done: closed, err: errors.New("refused")}, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakePaho{token: tt.token}
			err := awaitConnect(client, 20*time.Millisecond)
			if tt.wantErr && !errors.Is(err, ErrConnectionFailed) {
				t.Fatalf("expected ErrConnectionFailed, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.disconnected != tt.wantDisconnect {
				t.Fatalf("expected %d disconnects, got %d", tt.wantDisconnect, client.disconnected)
			}
		})
	}
}

type capturingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *capturingLogger) add(level, msg string) {
	l.mu.Lock()
	l.lines = append(l.lines, level+": "+msg)
	l.mu.Unlock()
}
func (l *capturingLogger) Error(msg string, _ ...any) { l.add("error", msg) }
func (l *capturingLogger) Warn(msg string, _ ...any)  { l.add("warn", msg) }
func (l *capturingLogger) Info(msg string, _ ...any)  { l.add("info", msg) }

func TestWrapHandlerRecoversPanics(t *testing.T) {
	logger := &capturingLogger{}
	c := newClient(testConfig(), logger)

	wrapped := c.wrapHandler(func(string, []byte) error { panic("boom") })
	wrapped(nil, fakeMessage{topic: "rc/display/d1/state"})

	if len(logger.lines) != 1 || logger.lines[0] != "error: mqtt handler panic recovered" {
		t.Fatalf("unexpected log lines %v", logger.lines)
	}
}

func TestWrapHandlerLogsErrors(t *testing.T) {
	logger := &capturingLogger{}
	c := newClient(testConfig(), logger)

	var gotTopic string
	var gotPayload []byte
	wrapped := c.wrapHandler(func(topic string, payload []byte) error {
		gotTopic, gotPayload = topic, payload
		return errors.New("bad payload")
	})
	wrapped(nil, fakeMessage{topic: "rc/display/d1/state", payload: []byte("x")})

	if gotTopic != "rc/display/d1/state" || string(gotPayload) != "x" {
		t.Fatalf("handler got %q %q", gotTopic, gotPayload)
	}
	if len(logger.lines) != 1 || logger.lines[0] != "warn: mqtt handler returned error" {
		t.Fatalf("unexpected log lines %v", logger.lines)
	}
}
