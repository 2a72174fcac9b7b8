package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the admin API on router
func RegisterRoutes(router gin.IRouter, h *Handlers) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	// Channels and ports
	router.POST("/channels", h.CreateChannel)
	router.GET("/ports", h.ListPorts)
	router.GET("/ports/:handle", h.GetPort)
	router.DELETE("/ports/:handle", h.ClosePort)
	router.POST("/ports/:handle/messages", h.PostMessage)
	router.GET("/ports/:handle/messages", h.ReceiveMessage)
	router.GET("/ports/:handle/stream", h.Stream)

	// Workers
	router.POST("/workers/execute", h.ExecuteWorker)

	// Metrics
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.metrics.Gatherer(), promhttp.HandlerOpts{})))
		router.GET("/metrics/json", h.MetricsJSON)
	}
}
