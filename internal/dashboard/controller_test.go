package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/kvstore"
	"github.com/nerrad567/smarthome-core/internal/snapshot"
)

var testNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// mockSessions is a fixed SessionChecker.
type mockSessions struct{ user string }

func (m mockSessions) CurrentUser(context.Context) (string, bool) {
	return m.user, m.user != ""
}

// recordingNotifier captures notifications.
type recordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) last(t *testing.T) Notification {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		t.Fatal("no notification sent")
	}
	return r.items[len(r.items)-1]
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// recordingRecorder captures stats.
type recordingRecorder struct {
	mu    sync.Mutex
	stats []device.Stats
}

func (r *recordingRecorder) RecordStats(_ context.Context, s device.Stats, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, s)
}

// failingStore fails every write.
type failingStore struct{ kvstore.MemoryStore }

func (f *failingStore) Set(context.Context, string, string) error { return kvstore.ErrUnavailable }

type fixture struct {
	ctrl     *Controller
	store    kvstore.Store
	notifier *recordingNotifier
	recorder *recordingRecorder
}

func newFixture(t *testing.T, store kvstore.Store) *fixture {
	t.Helper()
	if store == nil {
		store = kvstore.NewMemoryStore()
	}
	f := &fixture{
		store:    store,
		notifier: &recordingNotifier{},
		recorder: &recordingRecorder{},
	}
	f.ctrl = NewController(Deps{
		Registry:  device.NewRegistry(device.DefaultCatalog()),
		Persister: snapshot.NewPersister(store),
		Sessions:  mockSessions{user: "alice"},
		Notifiers: []Notifier{f.notifier},
		Recorders: []StatsRecorder{f.recorder},
		Clock:     func() time.Time { return testNow },
	})
	return f
}

func storedSnapshot(t *testing.T, store kvstore.Store) snapshot.Snapshot {
	t.Helper()
	raw, found, err := store.Get(context.Background(), snapshot.DefaultKey)
	if err != nil || !found {
		t.Fatalf("no stored snapshot (found %v, err %v)", found, err)
	}
	s, err := snapshot.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("stored snapshot invalid: %v", err)
	}
	return s
}

func TestInit_RequiresSession(t *testing.T) {
	ctrl := NewController(Deps{
		Registry:  device.NewRegistry(device.DefaultCatalog()),
		Persister: snapshot.NewPersister(kvstore.NewMemoryStore()),
		Sessions:  mockSessions{},
	})
	if err := ctrl.Init(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Init() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestInit_RestoresSnapshot(t *testing.T) {
	store := kvstore.NewMemoryStore()
	ctx := context.Background()
	store.Set(ctx, snapshot.DefaultKey, //nolint:errcheck // memory store
		`{"devices":[{"id":1,"status":true,"value":75},{"id":42,"status":true}],"timestamp":1}`)

	f := newFixture(t, store)
	if err := f.ctrl.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	d, _ := f.ctrl.Registry().GetDevice(1)
	if !d.Status || *d.Value != 75 {
		t.Errorf("device 1 = %+v, want on at 75", d)
	}
	if len(f.recorder.stats) != 1 || f.recorder.stats[0].ActiveCount != 1 {
		t.Errorf("initial stats = %+v", f.recorder.stats)
	}
	if !f.ctrl.LastUpdated().Equal(testNow) {
		t.Errorf("LastUpdated() = %v", f.ctrl.LastUpdated())
	}
	if f.notifier.count() != 0 {
		t.Error("Init sent a notification")
	}
}

func TestInit_CorruptSnapshotFallsBackToDefaults(t *testing.T) {
	store := kvstore.NewMemoryStore()
	ctx := context.Background()
	store.Set(ctx, snapshot.DefaultKey, "garbage") //nolint:errcheck // memory store

	f := newFixture(t, store)
	if err := f.ctrl.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	for _, d := range f.ctrl.Registry().Devices() {
		if d.Status {
			t.Errorf("device %d on after corrupt snapshot", d.ID)
		}
	}
}

func TestToggle_SideEffects(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	d, err := f.ctrl.Toggle(ctx, 1)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !d.Status {
		t.Fatal("device 1 not on")
	}

	n := f.notifier.last(t)
	if n.Message != "Living Room Lights turned ON" || n.Op != OpToggle {
		t.Errorf("notification = %+v", n)
	}
	if n.Stats.ActiveCount != 1 {
		t.Errorf("notification stats active = %d, want 1", n.Stats.ActiveCount)
	}

	s := storedSnapshot(t, f.store)
	if !s.Devices[0].Status || *s.Devices[0].Value != 50 {
		t.Errorf("stored device 1 = %+v", s.Devices[0])
	}
	if s.Timestamp != testNow.UnixMilli() {
		t.Errorf("stored timestamp = %d", s.Timestamp)
	}

	// Merge onto a fresh catalogue reproduces the state.
	merged := snapshot.Merge(s, device.DefaultCatalog())
	if !merged[0].Status {
		t.Error("device 1 not restored from saved snapshot")
	}
	for _, m := range merged[1:] {
		if m.Status {
			t.Errorf("device %d unexpectedly on", m.ID)
		}
	}

	if _, err := f.ctrl.Toggle(ctx, 1); err != nil {
		t.Fatalf("second Toggle() error = %v", err)
	}
	if got := f.notifier.last(t).Message; got != "Living Room Lights turned OFF" {
		t.Errorf("message = %q", got)
	}
}

func TestSnapshotTimestamp_FollowsControllerClock(t *testing.T) {
	store := kvstore.NewMemoryStore()
	persisterTime := testNow.Add(-time.Hour)
	ctrl := NewController(Deps{
		Registry:  device.NewRegistry(device.DefaultCatalog()),
		Persister: snapshot.NewPersister(store, snapshot.WithClock(func() time.Time { return persisterTime })),
		Clock:     func() time.Time { return testNow },
	})
	ctx := context.Background()

	if _, err := ctrl.Toggle(ctx, 3); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if got := storedSnapshot(t, store).Timestamp; got != testNow.UnixMilli() {
		t.Errorf("mutation snapshot timestamp = %d, want %d", got, testNow.UnixMilli())
	}

	if err := ctrl.SaveSnapshot(ctx); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if got := storedSnapshot(t, store).Timestamp; got != testNow.UnixMilli() {
		t.Errorf("explicit snapshot timestamp = %d, want %d", got, testNow.UnixMilli())
	}
}

func TestToggle_NotFoundHasNoSideEffects(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.ctrl.Toggle(context.Background(), 99)
	if !errors.Is(err, device.ErrDeviceNotFound) {
		t.Fatalf("Toggle(99) error = %v, want ErrDeviceNotFound", err)
	}
	if f.notifier.count() != 0 {
		t.Error("notification sent for failed toggle")
	}
	if _, found, _ := f.store.Get(context.Background(), snapshot.DefaultKey); found {
		t.Error("snapshot saved for failed toggle")
	}
	if !f.ctrl.LastUpdated().IsZero() {
		t.Error("last-updated changed for failed toggle")
	}
}

func TestSetValue_Messages(t *testing.T) {
	tests := []struct {
		id    int
		value float64
		want  string
	}{
		{id: 2, value: 25, want: "Thermostat set to 25°C"},
		{id: 2, value: 45, want: "Thermostat set to 30°C"},
		{id: 5, value: 21.5, want: "Air Conditioner set to 21.5°C"},
		{id: 1, value: 80, want: "Living Room Lights brightness set to 80%"},
		{id: 7, value: 55, want: "Smart Speaker volume set to 55%"},
		{id: 4, value: 120, want: "Smart TV volume set to 100%"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			f := newFixture(t, nil)
			if _, err := f.ctrl.SetValue(context.Background(), tt.id, tt.value); err != nil {
				t.Fatalf("SetValue() error = %v", err)
			}
			if got := f.notifier.last(t).Message; got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetValue_SecurityRejected(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.ctrl.SetValue(context.Background(), 6, 1)
	if !errors.Is(err, device.ErrNoValueControl) {
		t.Fatalf("SetValue(door lock) error = %v, want ErrNoValueControl", err)
	}
	if f.notifier.count() != 0 {
		t.Error("notification sent for rejected value")
	}
}

func TestSetAllAndAutoMode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.ctrl.SetAll(ctx, true)
	if got := f.notifier.last(t).Message; got != "All devices turned ON" {
		t.Errorf("message = %q", got)
	}
	if v := f.ctrl.View(ctx); v.Stats.ActiveCount != 8 || v.Stats.EnergyDisplay() != "12.0 kWh" {
		t.Errorf("stats after SetAll(true) = %+v", v.Stats)
	}

	f.ctrl.Registry().SetCoin(func() bool { return false })
	devices := f.ctrl.AutoMode(ctx)
	n := f.notifier.last(t)
	if n.Message != "Auto mode activated" || n.Op != OpAutoMode {
		t.Errorf("notification = %+v", n)
	}
	if len(n.Changed) != len(devices) {
		t.Errorf("changed = %d devices, want %d", len(n.Changed), len(devices))
	}
	for _, d := range devices {
		if d.Status {
			t.Errorf("device %d on after all-tails auto mode", d.ID)
		}
	}

	f.ctrl.SetAll(ctx, false)
	if got := f.notifier.last(t).Message; got != "All devices turned OFF" {
		t.Errorf("message = %q", got)
	}
}

func TestSetFilter_View(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if err := f.ctrl.SetFilter(device.FilterFor(device.CategoryEntertainment)); err != nil {
		t.Fatalf("SetFilter() error = %v", err)
	}
	v := f.ctrl.View(ctx)
	if v.User != "alice" || !v.Online || !v.Persistent {
		t.Errorf("view header = %+v", v)
	}
	if len(v.Devices) != 2 || v.Devices[0].ID != 4 || v.Devices[1].ID != 7 {
		t.Errorf("visible devices = %+v", v.Devices)
	}
	if v.Counts[device.FilterAll] != 8 {
		t.Errorf("counts = %v", v.Counts)
	}
	if v.Stats.TotalCount != 8 {
		t.Error("stats not computed over the full catalogue")
	}

	if err := f.ctrl.SetFilter("Nope"); !errors.Is(err, device.ErrInvalidFilter) {
		t.Errorf("SetFilter(Nope) error = %v", err)
	}
	if f.notifier.count() != 0 {
		t.Error("filter change sent a notification")
	}
}

func TestView_Online(t *testing.T) {
	online := false
	ctrl := NewController(Deps{
		Registry:  device.NewRegistry(device.DefaultCatalog()),
		Persister: snapshot.NewPersister(kvstore.NewMemoryStore()),
		Online:    func() bool { return online },
	})
	if ctrl.View(context.Background()).Online {
		t.Error("Online = true, want false")
	}
	online = true
	if !ctrl.View(context.Background()).Online {
		t.Error("Online = false, want true")
	}
}

func TestStorageFailure_MutationsContinue(t *testing.T) {
	f := newFixture(t, &failingStore{})
	ctx := context.Background()

	if _, err := f.ctrl.Toggle(ctx, 3); err != nil {
		t.Fatalf("Toggle() error = %v, storage failures must not surface", err)
	}
	if _, err := f.ctrl.Toggle(ctx, 4); err != nil {
		t.Fatalf("second Toggle() error = %v", err)
	}
	if f.notifier.count() != 2 {
		t.Errorf("notifications = %d, want 2", f.notifier.count())
	}
	if f.ctrl.View(ctx).Persistent {
		t.Error("view reports persistent storage after failure")
	}
	if err := f.ctrl.SaveSnapshot(ctx); !errors.Is(err, snapshot.ErrStorageUnavailable) {
		t.Errorf("SaveSnapshot() error = %v, want ErrStorageUnavailable", err)
	}
}

func TestLoadSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if f.ctrl.LoadSnapshot(ctx) {
		t.Fatal("LoadSnapshot() = true with empty store")
	}

	f.ctrl.Toggle(ctx, 2) //nolint:errcheck // setup
	f.ctrl.Registry().Restore(device.DefaultCatalog())

	if !f.ctrl.LoadSnapshot(ctx) {
		t.Fatal("LoadSnapshot() = false after a save")
	}
	if d, _ := f.ctrl.Registry().GetDevice(2); !d.Status {
		t.Error("thermostat not restored")
	}
}

func TestRunPeriodicSave(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.ctrl.RunPeriodicSave(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if _, found, _ := f.store.Get(context.Background(), snapshot.DefaultKey); found {
			break
		}
		select {
		case <-deadline:
			t.Fatal("periodic save never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodicSave did not stop after cancel")
	}
}

func TestConcurrentMutations(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			f.ctrl.Toggle(ctx, 1) //nolint:errcheck // concurrent
		}()
		go func(n int) {
			defer wg.Done()
			f.ctrl.SetValue(ctx, 2, float64(16+n%10)) //nolint:errcheck // concurrent
		}(i)
		go func() {
			defer wg.Done()
			f.ctrl.View(ctx)
			f.ctrl.SaveSnapshot(ctx) //nolint:errcheck // concurrent
		}()
	}
	wg.Wait()

	if f.notifier.count() != 40 {
		t.Errorf("notifications = %d, want 40", f.notifier.count())
	}
	_ = storedSnapshot(t, f.store)
}
