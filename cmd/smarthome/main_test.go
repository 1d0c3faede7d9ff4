package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/smarthome-core/internal/dashboard"
	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/config"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/database"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/kvstore"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/logging"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/smarthome-core/internal/snapshot"
)

func quietLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv(configPathEnv, "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv(configPathEnv, expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), quietLogger())
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Dashboard.StorageKey != snapshot.DefaultKey {
		t.Errorf("StorageKey = %q, want %q", cfg.Dashboard.StorageKey, snapshot.DefaultKey)
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api:\n  port: [not a number\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := loadConfig(path, quietLogger()); err == nil {
		t.Fatal("loadConfig() should fail on malformed YAML")
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "smarthome.db"),
		WALMode:     true,
		BusyTimeout: 5,
	}

	store, db := openStore(ctx, cfg, quietLogger())
	if db == nil {
		t.Fatal("openStore() returned nil DB for a writable path")
	}
	defer db.Close()

	if _, ok := store.(*kvstore.SQLiteStore); !ok {
		t.Fatalf("store = %T, want *kvstore.SQLiteStore", store)
	}
	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if v, ok, err := store.Get(ctx, "k"); err != nil || !ok || v != "v" {
		t.Errorf("Get() = %q, %v, %v", v, ok, err)
	}
}

func TestOpenStore_FallsBackToMemory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	store, db := openStore(context.Background(), config.DatabaseConfig{
		Path: filepath.Join(blocker, "sub", "smarthome.db"),
	}, quietLogger())
	if db != nil {
		db.Close()
		t.Fatal("openStore() returned a DB for an unusable path")
	}
	if _, ok := store.(*kvstore.MemoryStore); !ok {
		t.Errorf("store = %T, want *kvstore.MemoryStore", store)
	}
}

func TestOnlineFunc(t *testing.T) {
	if f := onlineFunc(false, nil); f != nil {
		t.Error("onlineFunc(disabled) should be nil so the dashboard is always online")
	}

	f := onlineFunc(true, nil)
	if f == nil || f() {
		t.Error("onlineFunc(enabled, no client) should report offline")
	}
}

func TestApplyCommand(t *testing.T) {
	registry := device.NewRegistry(device.DefaultCatalog())
	controller := dashboard.NewController(dashboard.Deps{
		Registry:  registry,
		Persister: snapshot.NewPersister(kvstore.NewMemoryStore()),
	})
	ctx := context.Background()

	tests := []struct {
		name    string
		cmd     mqtt.Command
		wantErr error
		check   func(t *testing.T)
	}{
		{
			name:  "toggle",
			cmd:   mqtt.Command{DeviceID: 1, Action: mqtt.ActionToggle},
			check: func(t *testing.T) {
				if d, _ := registry.GetDevice(1); !d.Status {
					t.Error("device 1 not toggled on")
				}
			},
		},
		{
			name:  "set value clamps",
			cmd:   mqtt.Command{DeviceID: 2, Action: mqtt.ActionSetValue, Value: 45},
			check: func(t *testing.T) {
				if d, _ := registry.GetDevice(2); d.Value == nil || *d.Value != 30 {
					t.Errorf("device 2 value = %v, want 30", d.Value)
				}
			},
		},
		{
			name:    "unknown device",
			cmd:     mqtt.Command{DeviceID: 99, Action: mqtt.ActionToggle},
			wantErr: device.ErrDeviceNotFound,
		},
		{
			name:    "security device value",
			cmd:     mqtt.Command{DeviceID: 3, Action: mqtt.ActionSetValue, Value: 1},
			wantErr: device.ErrNoValueControl,
		},
		{
			name:    "unknown action",
			cmd:     mqtt.Command{DeviceID: 1, Action: "explode"},
			wantErr: mqtt.ErrInvalidCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := applyCommand(ctx, controller, tt.cmd)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("applyCommand() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("applyCommand() error: %v", err)
			}
			tt.check(t)
		})
	}
}

func TestHealthCheck_NilBackends(t *testing.T) {
	if err := healthCheck(context.Background(), nil, nil, nil); err != nil {
		t.Errorf("healthCheck() with no backends = %v, want nil", err)
	}
}

func TestHealthCheck_Database(t *testing.T) {
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "h.db")})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if err := healthCheck(context.Background(), db, nil, nil); err != nil {
		t.Errorf("healthCheck() = %v, want nil", err)
	}
}

// TestRun_InvalidConfig verifies run fails on a config that does not validate.
func TestRun_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api:\n  port: 0\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with an invalid API port")
	}
}

// TestRun_StartupAndShutdown starts the service without MQTT or InfluxDB,
// waits for the API, then checks the shutdown save reached the database.
func TestRun_StartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "smarthome.db")
	port := freePort(t)

	configContent := fmt.Sprintf(`
database:
  path: %q
mqtt:
  enabled: false
influxdb:
  enabled: false
logging:
  level: error
  format: text
api:
  host: "127.0.0.1"
  port: %d
`, dbPath, port)
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv(configPathEnv, configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	healthURL := fmt.Sprintf("http://127.0.0.1:%d/api/v1/health", port)
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp, err := http.Get(healthURL)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("API did not become healthy: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() error: %v", err)
		}
	case <-time.After(20 * time.Second):
		t.Fatal("run() did not return after cancel")
	}

	db, err := database.Open(database.Config{Path: dbPath})
	if err != nil {
		t.Fatalf("reopen database: %v", err)
	}
	defer db.Close()

	raw, ok, err := kvstore.NewSQLiteStore(db).Get(context.Background(), snapshot.DefaultKey)
	if err != nil || !ok {
		t.Fatalf("snapshot not saved on shutdown: ok=%v err=%v", ok, err)
	}
	if _, err := snapshot.Decode([]byte(raw)); err != nil {
		t.Errorf("saved snapshot does not decode: %v", err)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
