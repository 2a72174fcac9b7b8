// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take a *zap.Logger and name their own child logger
// ("port-registry", "host", "messaging", "worker", "http").
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	defer logger.Sync()
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging
