package messaging

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/host"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/port"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/shared/id"
)

// Config holds messaging settings
type Config struct {
	CompressThreshold int // Frames with a larger JSON body are s2-compressed, 0 disables
}

// DefaultConfig returns default messaging configuration
func DefaultConfig() Config {
	return Config{
		CompressThreshold: 4096,
	}
}

// Ref marks a managed value that travels by reference. The value is parked on
// the receiving port and handed back as-is on the other side.
type Ref struct {
	Value any
}

// NewRef wraps value for transfer by reference
func NewRef(value any) *Ref {
	return &Ref{Value: value}
}

// Message is a decoded message with its references resolved
type Message struct {
	ID      id.MessageID `json:"id"`
	Payload any          `json:"payload"`
	Refs    int          `json:"refs"`
	SentAt  time.Time    `json:"sent_at"`
}

// Manager moves messages between managed code and native ports
type Manager struct {
	host     *host.Host
	registry *port.Registry
	config   Config
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewManager creates a manager and subscribes it to port destruction
func NewManager(h *host.Host, registry *port.Registry, config Config) *Manager {
	m := &Manager{
		host:     h,
		registry: registry,
		config:   config,
		logger:   zap.NewNop(),
	}
	h.OnClose(m.release)
	return m
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithLogger sets the logger
func (m *Manager) WithLogger(logger *zap.Logger) *Manager {
	if logger != nil {
		m.logger = logger.Named("messaging")
	}
	return m
}

// Host returns the native host
func (m *Manager) Host() *host.Host {
	return m.host
}

// Registry returns the port registry
func (m *Manager) Registry() *port.Registry {
	return m.registry
}

// Channel opens a new entangled port pair
func (m *Manager) Channel() (port.External, port.External) {
	a, b := m.host.NewChannel()
	return a.External(), b.External()
}

// Post sends payload to the peer of from. Every *Ref in the payload is parked
// on the receiving port's wrapper, which is created on first contact.
func (m *Manager) Post(ctx context.Context, from port.External, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msgID := id.NewMessageID()
	refs := 0
	err := m.host.PostFunc(from.Handle(), func(peer port.Handle) ([]byte, error) {
		var (
			wrapper *port.Wrapper
			parked  []port.RefID
		)
		enc := &refEncoder{park: func(value any) port.RefID {
			if wrapper == nil {
				wrapper = m.registry.GetOrCreate(port.Pointer(peer))
			}
			refID := wrapper.Park(value)
			parked = append(parked, refID)
			return refID
		}}

		frame, err := m.encode(enc, msgID, payload)
		if err != nil {
			// Nothing was queued, so nobody will ever take these back
			for _, refID := range parked {
				wrapper.Take(refID)
			}
			return nil, err
		}
		refs = enc.count
		return frame, nil
	})
	if err != nil {
		return fmt.Errorf("post from %s: %w", from.Handle(), err)
	}

	if m.metrics != nil {
		m.metrics.RecordMessage("posted", refs)
	}
	m.logger.Debug("Message posted",
		zap.Stringer("from", from.Handle()),
		zap.Stringer("message_id", msgID),
		zap.Int("refs", refs),
	)
	return nil
}

func (m *Manager) encode(enc *refEncoder, msgID id.MessageID, payload any) ([]byte, error) {
	body, err := enc.encode(payload)
	if err != nil {
		return nil, err
	}
	return encodeEnvelope(&envelope{
		ID:      msgID.String(),
		SentAt:  time.Now().UnixNano(),
		Refs:    enc.count,
		Payload: body,
	}, m.config.CompressThreshold)
}

// Receive pops the oldest message queued on at. It returns false when the
// inbox is empty. A frame that fails to decode is consumed and reported.
func (m *Manager) Receive(ctx context.Context, at port.External) (*Message, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var msg *Message
	ok, err := m.host.ReceiveFunc(at.Handle(), func(frame []byte) error {
		env, err := decodeEnvelope(frame)
		if err != nil {
			return err
		}

		payload := env.Payload
		if env.Refs > 0 {
			// The sender registered this port before queueing the frame
			res := &refResolver{wrapper: m.registry.Lookup(at.Handle())}
			if payload, err = res.resolve(payload); err != nil {
				return err
			}
			if res.count != env.Refs {
				return fmt.Errorf("%w: expected %d references, found %d", ErrMalformedMessage, env.Refs, res.count)
			}
		}

		msg = &Message{
			ID:      id.MessageID(env.ID),
			Payload: payload,
			Refs:    env.Refs,
			SentAt:  time.Unix(0, env.SentAt),
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("receive on %s: %w", at.Handle(), err)
	}
	if !ok {
		return nil, false, nil
	}

	if m.metrics != nil {
		m.metrics.RecordMessage("received", msg.Refs)
	}
	return msg, true, nil
}

// Next blocks until a message arrives on at, the port closes, or ctx ends
func (m *Manager) Next(ctx context.Context, at port.External) (*Message, error) {
	for {
		msg, ok, err := m.Receive(ctx, at)
		if err != nil {
			return nil, err
		}
		if ok {
			return msg, nil
		}
		if err := m.host.Wait(ctx, at.Handle()); err != nil {
			return nil, err
		}
	}
}

// Close destroys the native port carried by ext and its peer
func (m *Manager) Close(ext port.External) error {
	return m.host.Close(ext.Handle())
}

// release runs when the host destroys a port, before its handle can be reused
func (m *Manager) release(ext port.External) {
	w, ok := m.registry.Evict(ext)
	if !ok {
		return
	}

	if dropped := w.Drain(); len(dropped) > 0 {
		m.logger.Debug("Dropped undelivered references",
			zap.Stringer("handle", ext.Handle()),
			zap.Int("count", len(dropped)),
		)
	}
}

// External extracts the port carried by v
func External(v any) (port.External, error) {
	ext, ok := port.AsExternal(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotExternal, v)
	}
	return ext, nil
}
