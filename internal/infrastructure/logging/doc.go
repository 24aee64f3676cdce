// Package logging provides structured logging for Doorsense.
//
// It wraps log/slog so every component logs the same way: JSON in
// production, text during development, with service and version attached
// to each entry.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log secrets such as MQTT passwords or InfluxDB tokens.
package logging
