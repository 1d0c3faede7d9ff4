package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/smarthome-core/internal/dashboard"
)

// Device command actions.
const (
	ActionToggle   = "toggle"
	ActionSetValue = "set_value"
)

// Publisher is the subset of Client the mirror needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Command is a device command received on a command topic.
type Command struct {
	DeviceID int
	Action   string
	Value    float64
}

// commandPayload is the JSON body of a command message. A value with no
// action implies set_value.
type commandPayload struct {
	Action string   `json:"action"`
	Value  *float64 `json:"value"`
}

// mirrorQueueSize bounds the notifications waiting for Run.
const mirrorQueueSize = 64

// Mirror republishes dashboard notifications to the broker.
//
// Each notification is published once on the notification topic. The
// changed devices and the new statistics are published retained so late
// subscribers see current state. Publishing happens on the Run goroutine;
// Notify only queues.
type Mirror struct {
	pub    Publisher
	topics Topics
	qos    byte
	logger Logger
	queue  chan dashboard.Notification
}

// NewMirror creates a mirror publishing through pub.
func NewMirror(pub Publisher, topics Topics, qos byte) *Mirror {
	if qos > maxQoS {
		qos = 1
	}
	return &Mirror{
		pub:    pub,
		topics: topics,
		qos:    qos,
		queue:  make(chan dashboard.Notification, mirrorQueueSize),
	}
}

// SetLogger sets a logger for publish failures.
func (m *Mirror) SetLogger(logger Logger) {
	m.logger = logger
}

// Notify implements dashboard.Notifier. It never blocks: when the queue
// is full the notification is dropped and retained state catches up on
// the next one.
func (m *Mirror) Notify(_ context.Context, n dashboard.Notification) {
	select {
	case m.queue <- n:
	default:
		if m.logger != nil {
			m.logger.Warn("MQTT mirror queue full, dropping notification", "op", n.Op)
		}
	}
}

// Run publishes queued notifications in order until ctx is done.
func (m *Mirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-m.queue:
			m.publishNotification(n)
		}
	}
}

func (m *Mirror) publishNotification(n dashboard.Notification) {
	if payload, err := json.Marshal(n); err == nil {
		m.publish(m.topics.Notification(), payload, false)
	}
	for _, d := range n.Changed {
		payload, err := json.Marshal(d)
		if err != nil {
			continue
		}
		m.publish(m.topics.DeviceState(d.ID), payload, true)
	}
	if payload, err := json.Marshal(n.Stats); err == nil {
		m.publish(m.topics.Stats(), payload, true)
	}
}

func (m *Mirror) publish(topic string, payload []byte, retained bool) {
	err := m.pub.Publish(topic, payload, m.qos, retained)
	if err == nil || errors.Is(err, ErrNotConnected) {
		return
	}
	if m.logger != nil {
		m.logger.Warn("MQTT mirror publish failed", "topic", topic, "error", err)
	}
}

// CommandHandler returns a MessageHandler that decodes device commands
// and passes them to fn. Subscribe it to Topics.AllDeviceCommands.
func (m *Mirror) CommandHandler(fn func(Command) error) MessageHandler {
	return func(topic string, payload []byte) error {
		cmd, err := m.ParseCommand(topic, payload)
		if err != nil {
			return err
		}
		return fn(cmd)
	}
}

// ParseCommand decodes a command message.
func (m *Mirror) ParseCommand(topic string, payload []byte) (Command, error) {
	id, ok := m.topics.DeviceID(topic)
	if !ok || !strings.HasSuffix(topic, "/set") {
		return Command{}, fmt.Errorf("%w: unexpected topic %q", ErrInvalidCommand, topic)
	}

	var body commandPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if body.Action == "" && body.Value != nil {
		body.Action = ActionSetValue
	}

	cmd := Command{DeviceID: id, Action: body.Action}
	switch body.Action {
	case ActionToggle:
	case ActionSetValue:
		if body.Value == nil {
			return Command{}, fmt.Errorf("%w: set_value without value", ErrInvalidCommand)
		}
		cmd.Value = *body.Value
	default:
		return Command{}, fmt.Errorf("%w: unknown action %q", ErrInvalidCommand, body.Action)
	}
	return cmd, nil
}
