// Package api implements the HTTP transport and WebSocket server for Doorsense.
//
// This package provides:
//   - The tRPC-compatible procedure endpoint at /trpc/* (single and batched calls)
//   - POST /sensor for door sensors that report over plain HTTP
//   - A WebSocket hub broadcasting entrance.created events
//   - Prometheus exposition at /metrics
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Wire Format
//
// Queries are called with GET and mutations with POST. With ?batch=1 the path
// holds comma-separated procedure names and inputs are keyed by call index.
// Every call in a batch runs independently; a batch is never atomic.
//
// # Graceful Degradation
//
// The server runs without MQTT or InfluxDB. Both only add extra observers to
// the entrance recorder.
package api
