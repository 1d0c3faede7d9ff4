package device

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Coin returns a random on/off status for Randomize.
type Coin func() bool

func fairCoin() bool {
	return rand.Float64() > 0.5 //nolint:gosec // simulation only
}

// Registry holds the device catalogue, the active filter, and the cached
// per-category counts.
//
// Devices keep their catalogue order. Mutations never add or remove
// devices, so counts only change on Restore.
//
// All public methods are thread-safe.
type Registry struct {
	mu      sync.RWMutex
	devices []Device
	index   map[int]int // device ID -> position in devices
	filter  Filter
	counts  Counts
	coin    Coin
	logger  Logger
}

// NewRegistry creates a registry over a copy of catalog with the filter set
// to FilterAll. Use ValidateCatalog first for untrusted input.
func NewRegistry(catalog []Device) *Registry {
	r := &Registry{
		filter: FilterAll,
		coin:   fairCoin,
		logger: noopLogger{},
	}
	r.load(catalog)
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// SetCoin replaces the random source used by Randomize.
func (r *Registry) SetCoin(coin Coin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coin = coin
}

// load replaces the catalogue. Caller must hold the write lock or own r.
func (r *Registry) load(devices []Device) {
	r.devices = make([]Device, len(devices))
	r.index = make(map[int]int, len(devices))
	for i, d := range devices {
		r.devices[i] = d.Copy()
		r.index[d.ID] = i
	}
	r.counts = CountByCategory(r.devices)
}

// Restore replaces every device with the given set, typically the result of
// merging a persisted snapshot. The filter is preserved.
func (r *Registry) Restore(devices []Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(devices)
	r.logger.Debug("device registry restored", "count", len(devices))
}

// GetDevice returns a copy of the device with the given ID.
// Returns ErrDeviceNotFound if the device does not exist.
func (r *Registry) GetDevice(id int) (Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return Device{}, fmt.Errorf("%w: id %d", ErrDeviceNotFound, id)
	}
	return r.devices[i].Copy(), nil
}

// Devices returns copies of all devices in catalogue order.
func (r *Registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot()
}

func (r *Registry) snapshot() []Device {
	out := make([]Device, len(r.devices))
	for i, d := range r.devices {
		out[i] = d.Copy()
	}
	return out
}

// Toggle flips the status of one device and returns its new state.
// Returns ErrDeviceNotFound without side effects for an unknown ID.
func (r *Registry) Toggle(id int) (Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return Device{}, fmt.Errorf("%w: id %d", ErrDeviceNotFound, id)
	}
	r.devices[i].Status = !r.devices[i].Status
	r.logger.Debug("device toggled", "device_id", id, "status", r.devices[i].Status)
	return r.devices[i].Copy(), nil
}

// SetValue sets the value of one device, clamped to its category range, and
// returns the stored state. Status is unchanged.
//
// Returns ErrDeviceNotFound for an unknown ID, ErrNoValueControl for a
// Security device, and ErrInvalidValue for NaN or infinite input.
func (r *Registry) SetValue(id int, v float64) (Device, error) {
	if err := ValidateValue(v); err != nil {
		return Device{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return Device{}, fmt.Errorf("%w: id %d", ErrDeviceNotFound, id)
	}
	d := &r.devices[i]
	clamped, ok := ClampValue(d.Category, v)
	if !ok {
		return Device{}, fmt.Errorf("%w: %s device %d", ErrNoValueControl, d.Category, id)
	}
	if clamped != v {
		r.logger.Debug("device value clamped", "device_id", id, "requested", v, "stored", clamped)
	}
	d.Value = Float(clamped)
	return d.Copy(), nil
}

// SetAll sets every device's status. Values are unchanged.
func (r *Registry) SetAll(status bool) []Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.devices {
		r.devices[i].Status = status
	}
	r.logger.Debug("all devices set", "status", status, "count", len(r.devices))
	return r.snapshot()
}

// Randomize assigns each device an independent random status from the coin.
// Values are unchanged.
func (r *Registry) Randomize() []Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.devices {
		r.devices[i].Status = r.coin()
	}
	r.logger.Debug("device statuses randomized", "count", len(r.devices))
	return r.snapshot()
}

// SetFilter changes the active view filter.
// Returns ErrInvalidFilter if f is not FilterAll or a known category.
func (r *Registry) SetFilter(f Filter) error {
	if !f.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFilter, f)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filter = f
	return nil
}

// Filter returns the active view filter.
func (r *Registry) Filter() Filter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter
}

// VisibleDevices returns the devices matching the active filter in
// catalogue order.
func (r *Registry) VisibleDevices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter.Apply(r.devices)
}

// CountsByCategory returns the device count per filter.
func (r *Registry) CountsByCategory() Counts {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(Counts, len(r.counts))
	for k, v := range r.counts {
		out[k] = v
	}
	return out
}

// ComputeStats returns statistics over all devices, regardless of filter.
func (r *Registry) ComputeStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return ComputeStats(r.devices)
}
