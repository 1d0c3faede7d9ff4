// Package config loads and validates the smart home dashboard
// configuration.
//
// Values are resolved in order: built-in defaults, the YAML file, then
// SMARTHOME_* environment variables. Validate runs last and reports every
// problem at once.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.API.Address())
//
// Credentials (MQTT password, InfluxDB token) should be supplied through
// the environment rather than the file.
package config
