// Package middleware provides HTTP middleware for the portbridge admin API.
//
// Middleware stack includes:
//   - RequestID: Tags each request with an X-Request-ID
//   - Logger: One zap line per request, level by status
//   - Recovery: Panic recovery, including port registry contract violations
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting with idle client expiry
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Recovery(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
