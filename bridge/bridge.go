// Package bridge implements display.Collaborator over the MQTT topics
// published by the hardware-side device bridge.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/safa0/radiantctl/display"
	"github.com/safa0/radiantctl/mqtt"
	"github.com/safa0/radiantctl/preset"
)

// Transport is the subset of *mqtt.Client the bridge uses.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger is the logging surface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// StateMessage is the payload of a state topic.
type StateMessage struct {
	Values preset.Values `json:"values"`
	Token  uint64        `json:"token"`
	Ready  bool          `json:"ready"`
	Error  string        `json:"error,omitempty"`
}

// SetMessage is the payload published on a set topic.
type SetMessage struct {
	Code  string `json:"code"`
	Value int    `json:"value"`
	ID    string `json:"id"`
}

// Bridge tracks displays announced on info topics and forwards feed events
// to the subscribed handler.
type Bridge struct {
	transport Transport
	topics    mqtt.Topics
	qos       byte
	logger    Logger

	mu       sync.RWMutex
	displays []display.Info
	seen     map[string]bool
	handler  func(display.Event)
}

var _ display.Collaborator = (*Bridge)(nil)

func New(transport Transport, topics mqtt.Topics, qos byte, logger Logger) *Bridge {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Bridge{
		transport: transport,
		topics:    topics,
		qos:       qos,
		logger:    logger,
		seen:      make(map[string]bool),
	}
}

// ListDisplays returns the displays announced so far, in announcement order.
func (b *Bridge) ListDisplays(_ context.Context) ([]display.Info, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]display.Info, len(b.displays))
	copy(out, b.displays)
	return out, nil
}

// Subscribe routes info and state messages to handler. Retained info
// messages replay every known display right after subscribing.
func (b *Bridge) Subscribe(ctx context.Context, handler func(display.Event)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	b.handler = handler
	b.mu.Unlock()

	if err := b.transport.Subscribe(b.topics.AllDisplayInfo(), b.qos, b.handleMessage); err != nil {
		return fmt.Errorf("subscribing to display info: %w", err)
	}
	if err := b.transport.Subscribe(b.topics.AllDisplayState(), b.qos, b.handleMessage); err != nil {
		return fmt.Errorf("subscribing to display state: %w", err)
	}
	return nil
}

// SetParameterValue publishes one set command. Delivery is left to MQTT.
func (b *Bridge) SetParameterValue(ctx context.Context, displayID, code string, value int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(SetMessage{Code: code, Value: value, ID: uuid.New().String()})
	if err != nil {
		return err
	}
	return b.transport.Publish(b.topics.DisplaySet(displayID), payload, b.qos, false)
}

func (b *Bridge) handleMessage(topic string, payload []byte) error {
	id, leaf, ok := b.topics.ParseDisplay(topic)
	if !ok {
		return fmt.Errorf("unexpected topic %s", topic)
	}

	switch leaf {
	case mqtt.LeafInfo:
		var info display.Info
		if err := json.Unmarshal(payload, &info); err != nil {
			return fmt.Errorf("decoding display info: %w", err)
		}
		// State is keyed by the topic id, so discovery must be too.
		if info.ID != "" && info.ID != id {
			b.logger.Warn("display info id differs from topic, using topic id", "topic_id", id, "payload_id", info.ID)
		}
		info.ID = id
		if !b.remember(info) {
			return nil
		}
		b.logger.Debug("display announced", "display_id", info.ID, "model", info.Model)
		b.emit(display.Event{Kind: display.EventDiscovered, Display: info})

	case mqtt.LeafState:
		var msg StateMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("decoding display state: %w", err)
		}
		b.emit(display.Event{
			Kind:      display.EventStateChanged,
			DisplayID: id,
			State: display.State{
				Values: msg.Values,
				Token:  msg.Token,
				Ready:  msg.Ready,
				Error:  msg.Error,
			},
		})

	default:
		b.logger.Debug("ignoring display topic", "topic", topic)
	}
	return nil
}

func (b *Bridge) remember(info display.Info) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seen[info.ID] {
		return false
	}
	b.seen[info.ID] = true
	b.displays = append(b.displays, info)
	return true
}

func (b *Bridge) emit(ev display.Event) {
	b.mu.RLock()
	handler := b.handler
	b.mu.RUnlock()
	if handler == nil {
		b.logger.Warn("dropping event before subscribe", "kind", ev.Kind)
		return
	}
	handler(ev)
}
