package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/host"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/messaging"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/port"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/providers/worker"
)

// parseHandle accepts hex ("0x1f") or decimal handles
func parseHandle(raw string) (port.Handle, error) {
	v, err := strconv.ParseUint(raw, 0, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid port handle %q", raw)
	}
	return port.Handle(v), nil
}

// handleParam parses :handle, writing 400 on failure
func handleParam(c *gin.Context) (port.Handle, bool) {
	h, err := parseHandle(c.Param("handle"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return h, true
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, host.ErrUnknownHandle):
		return http.StatusNotFound
	case errors.Is(err, host.ErrPortClosed):
		return http.StatusGone
	case errors.Is(err, host.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, messaging.ErrMalformedMessage), errors.Is(err, messaging.ErrNotExternal):
		return http.StatusBadRequest
	case errors.Is(err, worker.ErrPoolClosed), errors.Is(err, worker.ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
