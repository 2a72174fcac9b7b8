package http

import (
	"time"

	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/port"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/providers/worker"
)

// ChannelResponse describes a newly opened channel
type ChannelResponse struct {
	ChannelID string `json:"channel_id"`
	Port1     string `json:"port1"`
	Port2     string `json:"port2"`
}

// PortResponse describes one port as seen by the host and the registry
type PortResponse struct {
	Handle  string            `json:"handle"`
	Open    bool              `json:"open"`
	Wrapper *port.WrapperInfo `json:"wrapper"`
}

// PostMessageRequest is the body of POST /ports/:handle/messages
type PostMessageRequest struct {
	Payload interface{} `json:"payload"`
}

// ExecuteRequest is the body of POST /workers/execute
type ExecuteRequest struct {
	Script    string `json:"script" binding:"required"`
	TimeoutMS int    `json:"timeout_ms" binding:"gte=0"`
}

// ExecuteResponse is the result of a worker script
type ExecuteResponse struct {
	Value       interface{}       `json:"value"`
	Console     []worker.LogEntry `json:"console"`
	PortsOpened int               `json:"ports_opened"`
	DurationMS  int64             `json:"duration_ms"`
	Error       string            `json:"error,omitempty"`
}

// maxWait bounds long-polling on GET /ports/:handle/messages
const maxWait = 30 * time.Second
