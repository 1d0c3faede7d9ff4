// Smart Home Dashboard Core
//
// This is the main entry point for the dashboard service. It keeps the
// simulated device catalogue in memory, persists snapshots to local SQLite
// storage and serves the browser UI over HTTP and WebSocket. MQTT and
// InfluxDB mirrors are optional.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/smarthome-core/migrations"

	"github.com/nerrad567/smarthome-core/internal/api"
	"github.com/nerrad567/smarthome-core/internal/dashboard"
	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/config"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/database"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/kvstore"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/logging"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/metrics"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/smarthome-core/internal/session"
	"github.com/nerrad567/smarthome-core/internal/snapshot"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

const (
	// defaultConfigPath is used when SMARTHOME_CONFIG is unset.
	defaultConfigPath = "configs/config.yaml"

	configPathEnv = config.EnvPrefix + "CONFIG"

	// finalSaveTimeout bounds the snapshot save after the shutdown signal.
	finalSaveTimeout = 5 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting smart home dashboard",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := loadConfig(configPath, log)
	if err != nil {
		return err
	}

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Local storage. A database that cannot be opened leaves the dashboard
	// running in memory-only mode.
	store, db := openStore(ctx, cfg.Database, log)
	if db != nil {
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
	}

	registry := device.NewRegistry(device.DefaultCatalog())
	registry.SetLogger(log)

	persister := snapshot.NewPersister(store,
		snapshot.WithKey(cfg.Dashboard.StorageKey),
		snapshot.WithLogger(log),
	)
	sessions := session.NewService(store)

	hub := api.NewHub(cfg.WebSocket, log)
	notifiers := []dashboard.Notifier{hub}
	var recorders []dashboard.StatsRecorder

	var prom *metrics.Metrics
	if cfg.Metrics.Enabled {
		prom = metrics.New(logging.ServiceName)
		notifiers = append(notifiers, prom)
		recorders = append(recorders, prom)
	}

	mqttClient := connectMQTT(cfg.MQTT, log)
	var mirror *mqtt.Mirror
	if mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mirror = mqtt.NewMirror(mqttClient, mqttClient.Topics(), byte(cfg.MQTT.QoS))
		mirror.SetLogger(log)
		go mirror.Run(ctx)
		notifiers = append(notifiers, mirror)
	}

	influxClient := connectInfluxDB(cfg.InfluxDB, log)
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		recorder := influxdb.NewRecorder(influxClient)
		notifiers = append(notifiers, recorder)
		recorders = append(recorders, recorder)
	}

	controller := dashboard.NewController(dashboard.Deps{
		Registry:  registry,
		Persister: persister,
		Sessions:  sessions,
		Notifiers: notifiers,
		Recorders: recorders,
		Online:    onlineFunc(cfg.MQTT.Enabled, mqttClient),
		Logger:    log,
	})

	if mirror != nil {
		topic := mqttClient.Topics().AllDeviceCommands()
		handler := mirror.CommandHandler(func(cmd mqtt.Command) error {
			return applyCommand(ctx, controller, cmd)
		})
		if subErr := mqttClient.Subscribe(topic, byte(cfg.MQTT.QoS), handler); subErr != nil {
			log.Warn("MQTT device command subscription failed", "topic", topic, "error", subErr)
		} else {
			log.Info("listening for MQTT device commands", "topic", topic)
			// Runs before the client is closed.
			defer func() {
				if unsubErr := mqttClient.Unsubscribe(topic); unsubErr != nil && !errors.Is(unsubErr, mqtt.ErrNotConnected) {
					log.Warn("MQTT device command unsubscribe failed", "topic", topic, "error", unsubErr)
				}
			}()
		}
	}

	// Restore the last snapshot. With a user already logged in this is the
	// full dashboard initialisation.
	if sessions.IsLoggedIn(ctx) {
		if initErr := controller.Init(ctx); initErr != nil {
			log.Warn("dashboard init failed", "error", initErr)
		}
	} else {
		restored := controller.LoadSnapshot(ctx)
		log.Info("device catalogue ready", "snapshot_restored", restored, "devices", len(registry.Devices()))
	}

	var mqttStatus api.ConnectionStatus
	if mqttClient != nil {
		mqttStatus = mqttClient
	}
	server, err := api.New(api.Deps{
		Config:       cfg.API,
		WS:           cfg.WebSocket,
		Logger:       log,
		Controller:   controller,
		Sessions:     sessions,
		Metrics:      prom,
		MQTT:         mqttStatus,
		DB:           db,
		Hub:          hub,
		RequireLogin: cfg.Dashboard.RequireLogin,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	go hub.Run(ctx)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	go controller.RunPeriodicSave(ctx, cfg.Dashboard.SaveIntervalDuration())

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		log.Warn("health check failed", "error", err)
	} else {
		log.Info("all health checks passed")
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"address", cfg.API.Address(),
		"persistent", !persister.MemoryOnly(),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	saveCtx, cancel := context.WithTimeout(context.Background(), finalSaveTimeout)
	defer cancel()
	if saveErr := controller.SaveSnapshot(saveCtx); saveErr != nil {
		log.Warn("final snapshot save failed", "error", saveErr)
	}

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, database.

	log.Info("smart home dashboard stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SMARTHOME_CONFIG if set, otherwise the default.
func getConfigPath() string {
	if path := os.Getenv(configPathEnv); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadConfig reads the config file. A missing file falls back to the
// built-in defaults; any other failure is returned.
func loadConfig(path string, log *logging.Logger) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		log.Info("configuration loaded", "path", path)
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log.Info("config file not found, using defaults", "path", path)
	cfg, err = config.LoadDefaults()
	if err != nil {
		return nil, fmt.Errorf("loading default config: %w", err)
	}
	return cfg, nil
}

// openStore opens and migrates the SQLite database. On failure it returns
// an in-memory store and a nil DB.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) (kvstore.Store, *database.DB) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		log.Warn("database unavailable, snapshots will not persist", "path", cfg.Path, "error", err)
		return kvstore.NewMemoryStore(), nil
	}

	if err := db.Migrate(ctx); err != nil {
		log.Warn("database migrations failed, snapshots will not persist", "error", err)
		db.Close() //nolint:errcheck // error path
		return kvstore.NewMemoryStore(), nil
	}

	applied, _, err := db.MigrationStatus(ctx)
	if err != nil {
		log.Warn("reading migration status failed", "error", err)
	}
	schemaVersion := "none"
	if len(applied) > 0 {
		schemaVersion = applied[len(applied)-1].Version
	}
	log.Info("database connected", "path", db.Path(), "schema_version", schemaVersion)
	return kvstore.NewSQLiteStore(db), db
}

// connectMQTT connects the optional event mirror. It returns nil when MQTT
// is disabled or the broker cannot be reached.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) *mqtt.Client {
	client, err := mqtt.Connect(cfg)
	if errors.Is(err, mqtt.ErrDisabled) {
		log.Info("MQTT disabled")
		return nil
	}
	if err != nil {
		log.Warn("MQTT unavailable, continuing without mirror", "error", err)
		return nil
	}

	client.SetLogger(log)
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)
	return client
}

// connectInfluxDB connects the optional telemetry writer. It returns nil
// when InfluxDB is disabled or unreachable.
func connectInfluxDB(cfg config.InfluxDBConfig, log *logging.Logger) *influxdb.Client {
	client, err := influxdb.Connect(cfg)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil
	}
	if err != nil {
		log.Warn("InfluxDB unavailable, continuing without telemetry", "error", err)
		return nil
	}

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)
	return client
}

// onlineFunc drives the status indicator. Without MQTT the dashboard is
// always online; with MQTT enabled it follows the broker connection.
func onlineFunc(mqttEnabled bool, client *mqtt.Client) func() bool {
	if !mqttEnabled {
		return nil
	}
	return client.IsConnected
}

// applyCommand runs a device command received over MQTT.
func applyCommand(ctx context.Context, c *dashboard.Controller, cmd mqtt.Command) error {
	switch cmd.Action {
	case mqtt.ActionToggle:
		_, err := c.Toggle(ctx, cmd.DeviceID)
		return err
	case mqtt.ActionSetValue:
		_, err := c.SetValue(ctx, cmd.DeviceID, cmd.Value)
		return err
	default:
		return fmt.Errorf("%w: unknown action %q", mqtt.ErrInvalidCommand, cmd.Action)
	}
}

// healthCheck verifies the connected backends. Nil backends are skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
