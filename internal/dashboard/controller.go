package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/snapshot"
)

// DefaultSaveInterval is the backstop save period.
const DefaultSaveInterval = 5 * time.Second

// ErrNotAuthenticated is returned by Init when no user is logged in.
var ErrNotAuthenticated = errors.New("dashboard: not authenticated")

// Logger defines the logging interface used by the Controller.
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

// Deps holds the Controller's collaborators. Registry and Persister are
// required; the rest are optional.
type Deps struct {
	Registry  *device.Registry
	Persister *snapshot.Persister
	Sessions  SessionChecker
	Notifiers []Notifier
	Recorders []StatsRecorder

	// Online reports connectivity for the status indicator. Nil means
	// always online.
	Online func() bool

	Logger Logger
	Clock  func() time.Time
}

// View is everything the presentation layer renders.
type View struct {
	User        string          `json:"user"`
	Online      bool            `json:"online"`
	Persistent  bool            `json:"persistent"`
	Filter      device.Filter   `json:"filter"`
	Devices     []device.Device `json:"devices"`
	Counts      device.Counts   `json:"counts"`
	Stats       device.Stats    `json:"stats"`
	LastUpdated time.Time       `json:"last_updated"`
}

// Controller serializes dashboard operations and applies their side
// effects.
type Controller struct {
	mu          sync.Mutex
	deps        Deps
	logger      Logger
	now         func() time.Time
	lastUpdated time.Time
}

// NewController creates a controller.
func NewController(deps Deps) *Controller {
	c := &Controller{
		deps:   deps,
		logger: deps.Logger,
		now:    deps.Clock,
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Registry returns the underlying registry for read-only queries.
func (c *Controller) Registry() *device.Registry {
	return c.deps.Registry
}

// Init checks the session, restores the persisted snapshot onto the
// catalogue and records the initial statistics.
func (c *Controller) Init(ctx context.Context) error {
	if c.deps.Sessions != nil {
		if _, ok := c.deps.Sessions.CurrentUser(ctx); !ok {
			return ErrNotAuthenticated
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	restored := c.loadLocked(ctx)
	c.logger.Info("dashboard initialised",
		"snapshot_restored", restored,
		"devices", len(c.deps.Registry.Devices()),
	)
	return nil
}

// LoadSnapshot re-applies the persisted snapshot. It returns false when
// none was applied.
func (c *Controller) LoadSnapshot(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(ctx)
}

func (c *Controller) loadLocked(ctx context.Context) bool {
	s, ok := c.deps.Persister.Load(ctx)
	if ok {
		merged := snapshot.Merge(s, c.deps.Registry.Devices())
		c.deps.Registry.Restore(merged)
		c.logger.Debug("snapshot applied", "entries", len(s.Devices), "captured_at", s.CapturedAt())
	}
	now := c.now()
	c.record(ctx, now)
	c.lastUpdated = now
	return ok
}

// SaveSnapshot writes the current state. The error is informational.
func (c *Controller) SaveSnapshot(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked(ctx, c.now())
}

// saveLocked stamps the snapshot with the controller clock, the same time
// carried by the notification.
func (c *Controller) saveLocked(ctx context.Context, at time.Time) error {
	wasMemoryOnly := c.deps.Persister.MemoryOnly()
	_, err := c.deps.Persister.SaveAt(ctx, c.deps.Registry.Devices(), at)
	if err != nil && !wasMemoryOnly {
		c.logger.Warn("snapshot save failed", "error", err)
	}
	return err
}

func (c *Controller) record(ctx context.Context, at time.Time) device.Stats {
	stats := c.deps.Registry.ComputeStats()
	for _, r := range c.deps.Recorders {
		r.RecordStats(ctx, stats, at)
	}
	return stats
}

// afterMutation runs the side effects of a successful mutation.
func (c *Controller) afterMutation(ctx context.Context, op Op, msg string, changed []device.Device) {
	now := c.now()
	_ = c.saveLocked(ctx, now) //nolint:errcheck // logged by saveLocked

	stats := c.record(ctx, now)
	n := Notification{
		Op:      op,
		Message: msg,
		Changed: changed,
		Stats:   stats,
		At:      now,
	}
	for _, notifier := range c.deps.Notifiers {
		notifier.Notify(ctx, n)
	}
	c.lastUpdated = now
	c.logger.Debug("dashboard mutation", "op", op, "message", msg)
}

// Toggle flips one device.
func (c *Controller) Toggle(ctx context.Context, id int) (device.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.deps.Registry.Toggle(id)
	if err != nil {
		return device.Device{}, err
	}
	c.afterMutation(ctx, OpToggle, toggleMessage(d), []device.Device{d})
	return d, nil
}

// SetValue sets one device's value, clamped to its category range.
func (c *Controller) SetValue(ctx context.Context, id int, v float64) (device.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.deps.Registry.SetValue(id, v)
	if err != nil {
		return device.Device{}, err
	}
	c.afterMutation(ctx, OpSetValue, valueMessage(d), []device.Device{d})
	return d, nil
}

// SetAll turns every device on or off.
func (c *Controller) SetAll(ctx context.Context, status bool) []device.Device {
	c.mu.Lock()
	defer c.mu.Unlock()

	devices := c.deps.Registry.SetAll(status)
	c.afterMutation(ctx, OpSetAll, setAllMessage(status), devices)
	return devices
}

// AutoMode assigns every device a random status.
func (c *Controller) AutoMode(ctx context.Context) []device.Device {
	c.mu.Lock()
	defer c.mu.Unlock()

	devices := c.deps.Registry.Randomize()
	c.afterMutation(ctx, OpAutoMode, autoModeMessage, devices)
	return devices
}

// SetFilter changes the view filter. Filters are not persisted.
func (c *Controller) SetFilter(f device.Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deps.Registry.SetFilter(f)
}

// Online reports the connectivity indicator.
func (c *Controller) Online() bool {
	if c.deps.Online == nil {
		return true
	}
	return c.deps.Online()
}

// LastUpdated returns the time of the last load or mutation.
func (c *Controller) LastUpdated() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUpdated
}

// View returns the current presentation state.
func (c *Controller) View(ctx context.Context) View {
	var user string
	if c.deps.Sessions != nil {
		user, _ = c.deps.Sessions.CurrentUser(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.deps.Registry
	return View{
		User:        user,
		Online:      c.Online(),
		Persistent:  !c.deps.Persister.MemoryOnly(),
		Filter:      r.Filter(),
		Devices:     r.VisibleDevices(),
		Counts:      r.CountsByCategory(),
		Stats:       r.ComputeStats(),
		LastUpdated: c.lastUpdated,
	}
}

// RunPeriodicSave saves the snapshot every interval until ctx is done.
// A non-positive interval uses DefaultSaveInterval.
func (c *Controller) RunPeriodicSave(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSaveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.SaveSnapshot(ctx) //nolint:errcheck // logged by saveLocked
		}
	}
}
