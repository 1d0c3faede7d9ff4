package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/kvstore"
)

// DefaultKey is the storage key the snapshot is saved under.
const DefaultKey = "smartHomeState"

// ErrStorageUnavailable is returned by Save when the store failed or the
// persister is in memory-only mode.
var ErrStorageUnavailable = errors.New("snapshot: storage unavailable")

// Logger defines the logging interface used by the Persister.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Persister saves and loads the snapshot under a fixed key.
//
// After the first store failure the persister switches to memory-only mode
// for the rest of its lifetime: saves are skipped and loads report no
// snapshot. It is safe for concurrent use; concurrent saves are last write
// wins.
type Persister struct {
	store      kvstore.Store
	key        string
	now        func() time.Time
	logger     Logger
	memoryOnly atomic.Bool
}

// Option configures a Persister.
type Option func(*Persister)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(p *Persister) {
		if key != "" {
			p.key = key
		}
	}
}

// WithClock overrides the capture clock.
func WithClock(now func() time.Time) Option {
	return func(p *Persister) { p.now = now }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(p *Persister) { p.logger = l }
}

// NewPersister creates a persister over store.
func NewPersister(store kvstore.Store, opts ...Option) *Persister {
	p := &Persister{
		store:  store,
		key:    DefaultKey,
		now:    time.Now,
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Key returns the storage key.
func (p *Persister) Key() string {
	return p.key
}

// MemoryOnly reports whether a store failure has disabled persistence.
func (p *Persister) MemoryOnly() bool {
	return p.memoryOnly.Load()
}

func (p *Persister) degrade(op string, err error) {
	if p.memoryOnly.CompareAndSwap(false, true) {
		p.logger.Warn("snapshot storage unavailable, continuing in memory-only mode",
			"op", op, "key", p.key, "error", err)
	}
}

// Save captures devices at the persister clock's current time and
// overwrites the stored snapshot.
func (p *Persister) Save(ctx context.Context, devices []device.Device) (Snapshot, error) {
	return p.SaveAt(ctx, devices, p.now())
}

// SaveAt is Save with an explicit capture time.
func (p *Persister) SaveAt(ctx context.Context, devices []device.Device, at time.Time) (Snapshot, error) {
	s := Capture(devices, at)
	if p.MemoryOnly() {
		return s, fmt.Errorf("%w: memory-only mode", ErrStorageUnavailable)
	}

	data, err := Encode(s)
	if err != nil {
		return s, err
	}
	if err := p.store.Set(ctx, p.key, string(data)); err != nil {
		p.degrade("save", err)
		return s, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	p.logger.Debug("snapshot saved", "key", p.key, "devices", len(s.Devices))
	return s, nil
}

// Load reads the stored snapshot. ok is false when there is none, when it
// is corrupt, or when the store failed. Corruption and store failures are
// logged.
func (p *Persister) Load(ctx context.Context) (s Snapshot, ok bool) {
	if p.MemoryOnly() {
		return Snapshot{}, false
	}

	raw, found, err := p.store.Get(ctx, p.key)
	if err != nil {
		p.degrade("load", err)
		return Snapshot{}, false
	}
	if !found {
		p.logger.Debug("no stored snapshot", "key", p.key)
		return Snapshot{}, false
	}

	s, err = Decode([]byte(raw))
	if err != nil {
		p.logger.Warn("ignoring corrupt snapshot, using catalogue defaults", "key", p.key, "error", err)
		return Snapshot{}, false
	}
	return s, true
}
