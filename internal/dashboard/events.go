package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nerrad567/smarthome-core/internal/device"
)

// Op names the operation that produced a notification.
type Op string

const (
	OpToggle   Op = "toggle"
	OpSetValue Op = "set_value"
	OpSetAll   Op = "set_all"
	OpAutoMode Op = "auto_mode"
)

// Notification describes a completed mutation.
type Notification struct {
	Op      Op              `json:"op"`
	Message string          `json:"message"`
	Changed []device.Device `json:"changed"`
	Stats   device.Stats    `json:"stats"`
	At      time.Time       `json:"at"`
}

// Notifier receives a notification after each mutation.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// StatsRecorder receives statistics after load and after each mutation.
type StatsRecorder interface {
	RecordStats(ctx context.Context, s device.Stats, at time.Time)
}

// SessionChecker identifies the logged-in user.
type SessionChecker interface {
	CurrentUser(ctx context.Context) (username string, ok bool)
}

func onOff(status bool) string {
	if status {
		return "ON"
	}
	return "OFF"
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func toggleMessage(d device.Device) string {
	return fmt.Sprintf("%s turned %s", d.Name, onOff(d.Status))
}

func valueMessage(d device.Device) string {
	if d.Value == nil {
		return d.Name
	}
	v := formatValue(*d.Value)
	switch d.Category {
	case device.CategoryClimateControl:
		return fmt.Sprintf("%s set to %s°C", d.Name, v)
	case device.CategoryLighting:
		return fmt.Sprintf("%s brightness set to %s%%", d.Name, v)
	case device.CategoryEntertainment:
		return fmt.Sprintf("%s volume set to %s%%", d.Name, v)
	}
	return fmt.Sprintf("%s set to %s", d.Name, v)
}

func setAllMessage(status bool) string {
	return fmt.Sprintf("All devices turned %s", onOff(status))
}

const autoModeMessage = "Auto mode activated"
