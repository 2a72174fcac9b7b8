package worker

import (
	"errors"
	"time"
)

var (
	ErrPoolClosed = errors.New("worker pool is closed")
	ErrTimeout    = errors.New("worker acquisition timeout")
)

// Config defines worker runtime configuration
type Config struct {
	Timeout          time.Duration // Script execution timeout
	MaxCallStackSize int           // Maximum JavaScript call depth
	EnableConsole    bool          // Allow console.log/warn/error/info
	MaxPorts         int           // Ports a single script may open, 0 for no limit
}

// Result holds execution result
type Result struct {
	Value       interface{}   `json:"value"`
	Console     []LogEntry    `json:"console"`
	PortsOpened int           `json:"ports_opened"`
	Duration    time.Duration `json:"duration"`
	Error       error         `json:"-"`
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    `json:"level"` // log, warn, error, info
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// PoolStats describes pool occupancy
type PoolStats struct {
	Size      int  `json:"size"`
	Available int  `json:"available"`
	InUse     int  `json:"in_use"`
	Closed    bool `json:"closed"`
}

// DefaultConfig returns default worker configuration
func DefaultConfig() Config {
	return Config{
		Timeout:          5 * time.Second,
		MaxCallStackSize: 1024,
		EnableConsole:    true,
		MaxPorts:         64,
	}
}
