package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/messaging"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/port"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/providers/worker"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	manager *messaging.Manager
	workers *worker.Pool
	metrics *monitoring.Metrics
	logger  *zap.Logger
	started time.Time
}

// NewHandlers creates a new handler set. workers and metrics may be nil.
func NewHandlers(manager *messaging.Manager, workers *worker.Pool, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		manager: manager,
		workers: workers,
		metrics: metrics,
		logger:  logger.Named("api"),
		started: time.Now(),
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "portbridge",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"host":           h.manager.Host().Stats(),
		"registry":       gin.H{"wrappers": h.manager.Registry().Len()},
	}
	if h.workers != nil {
		resp["workers"] = h.workers.Stats()
	}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// CreateChannel opens an entangled port pair
func (h *Handlers) CreateChannel(c *gin.Context) {
	a, b := h.manager.Channel()
	resp := ChannelResponse{
		ChannelID: uuid.NewString(),
		Port1:     a.Handle().String(),
		Port2:     b.Handle().String(),
	}

	h.logger.Info("Channel opened",
		zap.String("channel_id", resp.ChannelID),
		zap.Stringer("port1", a.Handle()),
		zap.Stringer("port2", b.Handle()),
	)
	c.JSON(http.StatusCreated, resp)
}

// ListPorts lists registered wrappers
func (h *Handlers) ListPorts(c *gin.Context) {
	wrappers := h.manager.Registry().Snapshot()
	if wrappers == nil {
		wrappers = []port.WrapperInfo{}
	}
	c.JSON(http.StatusOK, gin.H{
		"wrappers": wrappers,
		"host":     h.manager.Host().Stats(),
	})
}

// GetPort describes one port
func (h *Handlers) GetPort(c *gin.Context) {
	handle, ok := handleParam(c)
	if !ok {
		return
	}

	resp := PortResponse{
		Handle: handle.String(),
		Open:   h.manager.Host().IsOpen(handle),
	}
	if w, found := h.manager.Registry().Find(handle); found {
		info := w.Info()
		resp.Wrapper = &info
	}

	if !resp.Open && resp.Wrapper == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "port not found", "handle": resp.Handle})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PostMessage sends a JSON payload to the peer of a port
func (h *Handlers) PostMessage(c *gin.Context) {
	handle, ok := handleParam(c)
	if !ok {
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.manager.Post(c.Request.Context(), port.Pointer(handle), req.Payload); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"handle": handle.String(),
		"status": "queued",
	})
}

// ReceiveMessage pops the next message for a port. With ?wait=<duration>
// it long-polls up to that long; an empty inbox answers 204.
func (h *Handlers) ReceiveMessage(c *gin.Context) {
	handle, ok := handleParam(c)
	if !ok {
		return
	}
	ext := port.Pointer(handle)

	var wait time.Duration
	if raw := c.Query("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wait duration"})
			return
		}
		wait = min(d, maxWait)
	}

	if wait == 0 {
		msg, found, err := h.manager.Receive(c.Request.Context(), ext)
		if err != nil {
			writeError(c, err)
			return
		}
		if !found {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, msg)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
	defer cancel()

	msg, err := h.manager.Next(ctx, ext)
	if errors.Is(err, context.DeadlineExceeded) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// ClosePort destroys a port and its peer
func (h *Handlers) ClosePort(c *gin.Context) {
	handle, ok := handleParam(c)
	if !ok {
		return
	}

	if err := h.manager.Close(port.Pointer(handle)); err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("Port closed", zap.Stringer("handle", handle))
	c.JSON(http.StatusOK, gin.H{"closed": handle.String()})
}

// ExecuteWorker runs a script on the worker pool
func (h *Handlers) ExecuteWorker(c *gin.Context) {
	if h.workers == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "workers disabled"})
		return
	}

	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if req.TimeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	result, err := h.workers.Execute(ctx, req.Script)
	if result == nil {
		writeError(c, err)
		return
	}

	resp := ExecuteResponse{
		Value:       result.Value,
		Console:     result.Console,
		PortsOpened: result.PortsOpened,
		DurationMS:  result.Duration.Milliseconds(),
	}
	if err != nil {
		resp.Error = err.Error()
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MetricsJSON returns the metrics snapshot
func (h *Handlers) MetricsJSON(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
