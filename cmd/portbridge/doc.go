// Package main is the entry point for the portbridge server.
//
// portbridge owns native message ports, keeps exactly one managed wrapper per
// live port handle and bridges messages (including managed references)
// between them. Ports are driven over an HTTP/WebSocket admin API and from
// sandboxed scripts run on a worker pool.
//
// Configuration:
//   - Defaults for development
//   - YAML file named by PORTBRIDGE_CONFIG or -config
//   - Environment variables (12-factor)
//   - CLI flags (override everything)
//
// Usage:
//
//	./portbridge -port 8000
//
//	# Development mode (colored logs, debug level)
//	./portbridge -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
