package mqtt

import (
	"strconv"
	"strings"
)

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "smarthome"

// Topics provides builders for the dashboard's MQTT topics.
// Using these helpers keeps topic naming consistent across publishers and
// subscribers.
//
//	topics := mqtt.Topics{Prefix: "smarthome"}
//	topics.DeviceState(3)
//	// Returns: "smarthome/device/3/state"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		return DefaultTopicPrefix
	}
	return p
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the retained online/offline status topic. It also
// carries the Last Will message.
//
// Example: smarthome/system/status
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}

// =============================================================================
// Dashboard Topics
// =============================================================================

// Notification returns the topic for mutation notifications (not retained).
//
// Example: smarthome/dashboard/notification
func (t Topics) Notification() string {
	return t.prefix() + "/dashboard/notification"
}

// Stats returns the retained topic for the latest dashboard statistics.
//
// Example: smarthome/dashboard/stats
func (t Topics) Stats() string {
	return t.prefix() + "/dashboard/stats"
}

// =============================================================================
// Device Topics
// =============================================================================

// DeviceState returns the retained state topic for one device.
//
// Example: smarthome/device/3/state
func (t Topics) DeviceState(id int) string {
	return t.prefix() + "/device/" + strconv.Itoa(id) + "/state"
}

// DeviceCommand returns the command topic for one device.
//
// Example: smarthome/device/3/set
func (t Topics) DeviceCommand(id int) string {
	return t.prefix() + "/device/" + strconv.Itoa(id) + "/set"
}

// AllDeviceCommands returns a wildcard matching every device command topic.
//
// Example: smarthome/device/+/set
func (t Topics) AllDeviceCommands() string {
	return t.prefix() + "/device/+/set"
}

// DeviceID extracts the device id from a device state or command topic.
func (t Topics) DeviceID(topic string) (int, bool) {
	rest, ok := strings.CutPrefix(topic, t.prefix()+"/device/")
	if !ok {
		return 0, false
	}
	idPart, suffix, ok := strings.Cut(rest, "/")
	if !ok || (suffix != "state" && suffix != "set") {
		return 0, false
	}
	id, err := strconv.Atoi(idPart)
	if err != nil {
		return 0, false
	}
	return id, true
}
