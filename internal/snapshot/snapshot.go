// Package snapshot converts device registry state to and from the
// persisted snapshot format and saves it through a key-value store.
//
// The wire format is
//
//	{
//	  "devices": [{"id": 1, "status": true, "value": 50}, ...],
//	  "timestamp": 1767225600000
//	}
//
// where value is null for devices without a value control and timestamp is
// the capture time in epoch milliseconds. Unknown fields are ignored.
package snapshot

import (
	"time"

	"github.com/nerrad567/smarthome-core/internal/device"
)

// Snapshot is the persisted projection of the mutable device fields.
type Snapshot struct {
	Devices []Entry `json:"devices"`

	// Timestamp is the capture time in epoch milliseconds. It is
	// informational only.
	Timestamp int64 `json:"timestamp"`
}

// Entry is the mutable state of one device.
type Entry struct {
	ID     int      `json:"id"`
	Status bool     `json:"status"`
	Value  *float64 `json:"value"`
}

// CapturedAt returns Timestamp as a time.
func (s Snapshot) CapturedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Capture projects every device to an Entry, stamped with now.
func Capture(devices []device.Device, now time.Time) Snapshot {
	s := Snapshot{
		Devices:   make([]Entry, len(devices)),
		Timestamp: now.UnixMilli(),
	}
	for i, d := range devices {
		e := Entry{ID: d.ID, Status: d.Status}
		if d.Value != nil {
			e.Value = device.Float(*d.Value)
		}
		s.Devices[i] = e
	}
	return s
}

// Merge applies s onto a copy of catalog and returns the result.
//
// For each entry with a matching ID the status is overwritten, and the
// value too when the entry carries one and the device's category has a
// value control; values are clamped to the category range. Entries with
// unknown IDs are ignored. Catalog devices absent from s keep their
// values from catalog.
func Merge(s Snapshot, catalog []device.Device) []device.Device {
	out := make([]device.Device, len(catalog))
	index := make(map[int]int, len(catalog))
	for i, d := range catalog {
		out[i] = d.Copy()
		index[d.ID] = i
	}

	for _, e := range s.Devices {
		i, ok := index[e.ID]
		if !ok {
			continue
		}
		d := &out[i]
		d.Status = e.Status
		if e.Value == nil {
			continue
		}
		if err := device.ValidateValue(*e.Value); err != nil {
			continue
		}
		if v, ok := device.ClampValue(d.Category, *e.Value); ok {
			d.Value = device.Float(v)
		}
	}
	return out
}
