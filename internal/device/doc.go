// Package device provides the Device Registry for the smart home dashboard.
//
// The Registry owns the authoritative in-memory catalogue of simulated
// devices, the active view filter, and the derived statistics shown on the
// dashboard. It performs no I/O: persistence and notifications are handled
// by callers (see the snapshot and dashboard packages).
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                       Device Registry                         │
//	│                                                               │
//	│  ┌────────────────┐   ┌────────────────┐   ┌───────────────┐  │
//	│  │    Registry    │   │  Filter/View   │   │     Stats     │  │
//	│  │ (registry.go)  │   │  (filter.go)   │   │  (stats.go)   │  │
//	│  │                │   │                │   │               │  │
//	│  │ • Toggle       │   │ • SetFilter    │   │ • Active      │  │
//	│  │ • SetValue     │   │ • Visible      │   │ • Avg temp    │  │
//	│  │ • SetAll       │   │ • Counts       │   │ • Energy      │  │
//	│  │ • Randomize    │   │                │   │               │  │
//	│  └────────────────┘   └────────────────┘   └───────────────┘  │
//	└──────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Device: a simulated device with an on/off status and an optional value
//   - Category: Lighting, ClimateControl, Security or Entertainment
//   - Range: the allowed value range for a category (brightness, °C, volume)
//   - Filter: All or a single Category
//   - Stats: active count, total count, average climate temperature, energy
//
// # Usage
//
//	registry := device.NewRegistry(device.DefaultCatalog())
//	registry.SetLogger(log)
//
//	dev, err := registry.Toggle(1)
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // nothing changed
//	}
//
//	dev, err = registry.SetValue(2, 45) // stored as 30, the thermostat maximum
//
//	_ = registry.SetFilter(device.FilterFor(device.CategorySecurity))
//	visible := registry.VisibleDevices()
//	stats := registry.ComputeStats()
//
// # Thread Safety
//
// The Registry is safe for concurrent use. All operations are protected by
// a read-write mutex and every returned Device is an independent copy.
package device
