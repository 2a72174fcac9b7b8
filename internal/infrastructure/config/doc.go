// Package config provides 12-factor configuration management for portbridge.
//
// Configuration starts from Default, is overlaid by an optional YAML file and
// finally by environment variables. CLI flags in cmd/portbridge override all
// three for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, shutdown timeout)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Host: Native port limits
//   - Messaging: Frame compression threshold
//   - Worker: Script worker pool settings
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORTBRIDGE_CONFIG (YAML file path)
//   - PORT, HOST, SHUTDOWN_TIMEOUT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - HOST_MAX_QUEUE, MESSAGING_COMPRESS_THRESHOLD
//   - WORKER_POOL_SIZE, WORKER_TIMEOUT, WORKER_ACQUIRE_TIMEOUT, WORKER_MAX_PORTS, WORKER_CONSOLE
package config
