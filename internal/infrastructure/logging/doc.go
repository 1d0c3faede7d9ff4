// Package logging provides structured logging built on log/slog.
//
// Every entry carries service and version fields. Output is JSON by
// default or text for development, configured by the logging section:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	log := logger.Component("dashboard")
//	log.Info("snapshot saved", "devices", 8)
//
// Passwords and tokens must never be logged.
package logging
