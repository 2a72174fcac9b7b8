package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/host"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/port"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware governs origins
	},
}

// StreamEvent is one websocket frame sent to stream clients
type StreamEvent struct {
	Type    string      `json:"type"` // message, closed, error
	Handle  string      `json:"handle"`
	Message interface{} `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Stream pushes every message received on a port to a websocket client
// until the port closes or the client goes away.
func (h *Handlers) Stream(c *gin.Context) {
	handle, ok := handleParam(c)
	if !ok {
		return
	}
	if !h.manager.Host().IsOpen(handle) {
		c.JSON(http.StatusNotFound, gin.H{"error": "port not found", "handle": handle.String()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Reads only detect the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ext := port.Pointer(handle)
	for {
		msg, err := h.manager.Next(ctx, ext)
		if err != nil {
			h.finishStream(conn, handle, err)
			return
		}

		if err := h.send(conn, StreamEvent{Type: "message", Handle: handle.String(), Message: msg}); err != nil {
			h.logger.Debug("Stream client write failed", zap.Stringer("handle", handle), zap.Error(err))
			return
		}
	}
}

func (h *Handlers) finishStream(conn *websocket.Conn, handle port.Handle, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		return
	case errors.Is(err, host.ErrPortClosed), errors.Is(err, host.ErrUnknownHandle):
		_ = h.send(conn, StreamEvent{Type: "closed", Handle: handle.String()})
	default:
		_ = h.send(conn, StreamEvent{Type: "error", Handle: handle.String(), Error: err.Error()})
	}

	deadline := time.Now().Add(writeTimeout)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}

func (h *Handlers) send(conn *websocket.Conn, event StreamEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}
