/*
Package monitoring provides metrics collection for portbridge.

# Overview

Metrics are Prometheus collectors registered on an explicit registerer, so
several independent instances (one per test, for example) can coexist. The
collectors cover the handle registry, the native host, message traffic,
worker executions and the admin HTTP surface.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Hand it to the registry
	ports := port.NewRegistry().WithMetrics(metrics)

	// Time operations
	timer := monitoring.NewTimer(metrics)
	// ... run a worker script ...
	timer.Stop("success")

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Gatherer(), promhttp.HandlerOpts{})))
*/
package monitoring
