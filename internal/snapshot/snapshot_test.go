package snapshot

import (
	"testing"
	"time"

	"github.com/nerrad567/smarthome-core/internal/device"
)

func TestCapture(t *testing.T) {
	catalog := device.DefaultCatalog()
	catalog[0].Status = true
	now := time.UnixMilli(1767225600123)

	s := Capture(catalog, now)
	if s.Timestamp != 1767225600123 {
		t.Errorf("Timestamp = %d, want 1767225600123", s.Timestamp)
	}
	if len(s.Devices) != 8 {
		t.Fatalf("len(Devices) = %d, want 8", len(s.Devices))
	}

	first := s.Devices[0]
	if first.ID != 1 || !first.Status || first.Value == nil || *first.Value != 50 {
		t.Errorf("Devices[0] = %+v, want {1 true 50}", first)
	}
	if s.Devices[2].Value != nil {
		t.Errorf("security camera value = %v, want nil", *s.Devices[2].Value)
	}

	// Captured values are independent of the source.
	*catalog[0].Value = 99
	if *s.Devices[0].Value != 50 {
		t.Error("snapshot aliases device value")
	}
	if !s.CapturedAt().Equal(now) {
		t.Errorf("CapturedAt() = %v, want %v", s.CapturedAt(), now)
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		check   func(t *testing.T, got []device.Device)
	}{
		{
			name:    "status and value overwritten",
			entries: []Entry{{ID: 1, Status: true, Value: device.Float(80)}},
			check: func(t *testing.T, got []device.Device) {
				if !got[0].Status || *got[0].Value != 80 {
					t.Errorf("device 1 = %+v", got[0])
				}
			},
		},
		{
			name:    "nil value keeps default",
			entries: []Entry{{ID: 2, Status: true}},
			check: func(t *testing.T, got []device.Device) {
				if !got[1].Status || *got[1].Value != 22 {
					t.Errorf("device 2 = %+v, want on at 22", got[1])
				}
			},
		},
		{
			name:    "out of range value clamped",
			entries: []Entry{{ID: 2, Status: false, Value: device.Float(45)}},
			check: func(t *testing.T, got []device.Device) {
				if *got[1].Value != 30 {
					t.Errorf("thermostat value = %v, want 30", *got[1].Value)
				}
			},
		},
		{
			name:    "value on security device ignored",
			entries: []Entry{{ID: 6, Status: true, Value: device.Float(1)}},
			check: func(t *testing.T, got []device.Device) {
				if !got[5].Status || got[5].Value != nil {
					t.Errorf("door lock = %+v, want on without value", got[5])
				}
			},
		},
		{
			name:    "unknown id ignored",
			entries: []Entry{{ID: 99, Status: true, Value: device.Float(1)}},
			check: func(t *testing.T, got []device.Device) {
				for _, d := range got {
					if d.Status {
						t.Errorf("device %d turned on by unknown entry", d.ID)
					}
				}
			},
		},
		{
			name: "later duplicate wins",
			entries: []Entry{
				{ID: 4, Status: true, Value: device.Float(10)},
				{ID: 4, Status: false, Value: device.Float(20)},
			},
			check: func(t *testing.T, got []device.Device) {
				if got[3].Status || *got[3].Value != 20 {
					t.Errorf("smart tv = %+v, want off at 20", got[3])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := device.DefaultCatalog()
			got := Merge(Snapshot{Devices: tt.entries}, catalog)
			if len(got) != len(catalog) {
				t.Fatalf("len = %d, want %d", len(got), len(catalog))
			}
			tt.check(t, got)

			// Input catalogue untouched.
			if err := device.ValidateCatalog(catalog); err != nil {
				t.Fatalf("catalogue invalid after merge: %v", err)
			}
			for _, d := range catalog {
				if d.Status {
					t.Fatalf("Merge mutated input device %d", d.ID)
				}
			}
		})
	}
}

func TestCaptureMergeRoundTrip(t *testing.T) {
	registry := device.NewRegistry(device.DefaultCatalog())
	registry.Toggle(1)         //nolint:errcheck // setup
	registry.Toggle(6)         //nolint:errcheck // setup
	registry.SetValue(5, 18.5) //nolint:errcheck // setup
	registry.SetValue(7, 0)    //nolint:errcheck // setup

	want := registry.Devices()
	got := Merge(Capture(want, time.Now()), device.DefaultCatalog())

	for i := range want {
		if got[i].Status != want[i].Status {
			t.Errorf("device %d status = %v, want %v", want[i].ID, got[i].Status, want[i].Status)
		}
		if (got[i].Value == nil) != (want[i].Value == nil) {
			t.Fatalf("device %d value presence differs", want[i].ID)
		}
		if got[i].Value != nil && *got[i].Value != *want[i].Value {
			t.Errorf("device %d value = %v, want %v", want[i].ID, *got[i].Value, *want[i].Value)
		}
	}
}

func TestMerge_PartialSnapshot(t *testing.T) {
	s := Snapshot{Devices: []Entry{{ID: 1, Status: true, Value: device.Float(50)}}}
	got := Merge(s, device.DefaultCatalog())

	if !got[0].Status {
		t.Error("device 1 not restored")
	}
	defaults := device.DefaultCatalog()
	for i := 1; i < len(got); i++ {
		if got[i].Status != defaults[i].Status {
			t.Errorf("device %d status changed", got[i].ID)
		}
	}
}
