// Package influxdb provides optional InfluxDB telemetry for the dashboard.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched writes and health monitoring.
//
// # Measurements
//
//   - dashboard_stats: active_count, total_count, energy_kwh and
//     avg_climate_temp (omitted when no thermostat is active)
//   - device_state: status and value per changed device, tagged with
//     device_id, category and op
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	recorder := influxdb.NewRecorder(client)
//	// pass recorder as a dashboard StatsRecorder and Notifier
//
// # Error Handling
//
// Writes are non-blocking. Batch errors arrive via SetOnError; writes on a
// disconnected or closed client are dropped.
package influxdb
