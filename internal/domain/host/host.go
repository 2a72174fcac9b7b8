package host

import (
	"context"
	"fmt"
	"sync"

	list "github.com/bahlo/generic-list-go"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/port"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/infrastructure/monitoring"
)

// Config defines native host limits
type Config struct {
	MaxQueueDepth int // Messages buffered per port inbox
}

// DefaultConfig returns default host configuration
func DefaultConfig() Config {
	return Config{
		MaxQueueDepth: 1024,
	}
}

// CloseListener is notified once for every port the host destroys
type CloseListener func(ext port.External)

// Port is one end of a channel
type Port struct {
	handle port.Handle
	peer   port.Handle

	// Protected by Host.mu
	inbox  *list.List[[]byte]
	ready  chan struct{}
	done   chan struct{}
	closed bool
}

// Handle returns the native handle
func (p *Port) Handle() port.Handle {
	return p.handle
}

// External returns the handle-bearing object managed code receives for this port
func (p *Port) External() port.External {
	return port.Pointer(p.handle)
}

// Stats describes host state
type Stats struct {
	Ports       int `json:"ports"`
	FreeHandles int `json:"free_handles"`
	Queued      int `json:"queued_messages"`
}

// Host owns native ports
type Host struct {
	mu        sync.Mutex
	ports     map[port.Handle]*Port // Protected by mu
	free      []port.Handle         // Protected by mu
	next      port.Handle           // Protected by mu
	listeners []CloseListener       // Protected by mu

	config  Config
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// New creates a host
func New(config Config) *Host {
	if config.MaxQueueDepth <= 0 {
		config.MaxQueueDepth = DefaultConfig().MaxQueueDepth
	}
	return &Host{
		ports:  make(map[port.Handle]*Port),
		next:   1, // 0 is never a valid handle
		config: config,
		logger: zap.NewNop(),
	}
}

// WithMetrics adds metrics tracking to the host
func (h *Host) WithMetrics(metrics *monitoring.Metrics) *Host {
	h.metrics = metrics
	return h
}

// WithLogger sets the logger
func (h *Host) WithLogger(logger *zap.Logger) *Host {
	if logger != nil {
		h.logger = logger.Named("host")
	}
	return h
}

// OnClose registers a listener for destroyed ports
func (h *Host) OnClose(listener CloseListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, listener)
}

// NewChannel allocates two entangled ports
func (h *Host) NewChannel() (*Port, *Port) {
	h.mu.Lock()
	a := h.newPortLocked()
	b := h.newPortLocked()
	a.peer = b.handle
	b.peer = a.handle
	count := len(h.ports)
	h.mu.Unlock()

	h.reportPorts(count)
	h.logger.Debug("Channel created",
		zap.Stringer("port1", a.handle),
		zap.Stringer("port2", b.handle),
	)
	return a, b
}

// Peer returns the handle of the port entangled with h
func (h *Host) Peer(handle port.Handle) (port.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, err := h.openPortLocked(handle)
	if err != nil {
		return 0, err
	}
	return p.peer, nil
}

// Post queues data in the inbox of the peer of handle
func (h *Host) Post(handle port.Handle, data []byte) error {
	return h.PostFunc(handle, func(port.Handle) ([]byte, error) {
		return data, nil
	})
}

// PostFunc encodes and queues a message for the peer of handle. encode runs
// while both ports are guaranteed open, so close listeners for either port
// cannot run until the message is queued or encode has failed.
func (h *Host) PostFunc(handle port.Handle, encode func(peer port.Handle) ([]byte, error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, err := h.openPortLocked(handle)
	if err != nil {
		return err
	}
	peer, err := h.openPortLocked(p.peer)
	if err != nil {
		return err
	}

	if peer.inbox.Len() >= h.config.MaxQueueDepth {
		return fmt.Errorf("%w: %s holds %d messages", ErrQueueFull, peer.handle, peer.inbox.Len())
	}

	data, err := encode(peer.handle)
	if err != nil {
		return err
	}
	peer.inbox.PushBack(data)

	select {
	case peer.ready <- struct{}{}:
	default:
	}
	return nil
}

// Receive pops the oldest message queued for handle
func (h *Host) Receive(handle port.Handle) ([]byte, bool, error) {
	var data []byte
	ok, err := h.ReceiveFunc(handle, func(d []byte) error {
		data = d
		return nil
	})
	return data, ok, err
}

// ReceiveFunc pops the oldest message queued for handle and hands it to
// decode while the port is guaranteed open. The message is consumed even if
// decode fails.
func (h *Host) ReceiveFunc(handle port.Handle, decode func(data []byte) error) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, err := h.openPortLocked(handle)
	if err != nil {
		return false, err
	}

	front := p.inbox.Front()
	if front == nil {
		return false, nil
	}
	if err := decode(p.inbox.Remove(front)); err != nil {
		return true, err
	}
	return true, nil
}

// Wait blocks until handle has a queued message, is closed, or ctx ends
func (h *Host) Wait(ctx context.Context, handle port.Handle) error {
	h.mu.Lock()
	p, err := h.openPortLocked(handle)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	if p.inbox.Len() > 0 {
		h.mu.Unlock()
		return nil
	}
	ready, done := p.ready, p.done
	h.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-done:
		return ErrPortClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close destroys handle and its peer. Listeners run for both ports before
// their handles can be allocated again. Closing a port that is already
// being closed is a no-op.
func (h *Host) Close(handle port.Handle) error {
	h.mu.Lock()
	p, ok := h.ports[handle]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	if p.closed {
		h.mu.Unlock()
		return nil
	}

	closing := []*Port{p}
	if peer, ok := h.ports[p.peer]; ok && !peer.closed {
		closing = append(closing, peer)
	}
	for _, c := range closing {
		c.closed = true
		close(c.done)
	}
	listeners := append([]CloseListener(nil), h.listeners...)
	h.mu.Unlock()

	for _, c := range closing {
		for _, listener := range listeners {
			listener(c.External())
		}
	}

	h.mu.Lock()
	for _, c := range closing {
		delete(h.ports, c.handle)
		h.free = append(h.free, c.handle)
	}
	count := len(h.ports)
	h.mu.Unlock()

	h.reportPorts(count)
	h.logger.Debug("Port closed", zap.Stringer("handle", handle), zap.Int("destroyed", len(closing)))
	return nil
}

// IsOpen reports whether handle names an open port
func (h *Host) IsOpen(handle port.Handle) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.openPortLocked(handle)
	return err == nil
}

// Stats returns host statistics
func (h *Host) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := Stats{
		Ports:       len(h.ports),
		FreeHandles: len(h.free),
	}
	for _, p := range h.ports {
		stats.Queued += p.inbox.Len()
	}
	return stats
}

func (h *Host) newPortLocked() *Port {
	var handle port.Handle
	if n := len(h.free); n > 0 {
		// Most recently freed first, like a native allocator
		handle = h.free[n-1]
		h.free = h.free[:n-1]
	} else {
		handle = h.next
		h.next++
	}

	p := &Port{
		handle: handle,
		inbox:  list.New[[]byte](),
		ready:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	h.ports[handle] = p
	return p
}

func (h *Host) openPortLocked(handle port.Handle) (*Port, error) {
	p, ok := h.ports[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	if p.closed {
		return nil, fmt.Errorf("%w: %s", ErrPortClosed, handle)
	}
	return p, nil
}

func (h *Host) reportPorts(count int) {
	if h.metrics != nil {
		h.metrics.SetPortsLive(count)
	}
}
