package messaging

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/s2"

	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/port"
)

// Frame header byte
const (
	codecJSON byte = 0x00
	codecS2   byte = 0x01
)

// refKey marks a placeholder object standing in for a parked reference
const refKey = "$ref"

// envelope is the frame body queued in the native inbox
type envelope struct {
	ID      string `json:"id"`
	SentAt  int64  `json:"sent_at"`
	Refs    int    `json:"refs"`
	Payload any    `json:"payload"`
}

func encodeEnvelope(env *envelope, compressThreshold int) ([]byte, error) {
	body, err := sonic.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	if compressThreshold > 0 && len(body) > compressThreshold {
		return append([]byte{codecS2}, s2.Encode(nil, body)...), nil
	}
	return append([]byte{codecJSON}, body...), nil
}

func decodeEnvelope(frame []byte) (*envelope, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrMalformedMessage)
	}

	body := frame[1:]
	switch frame[0] {
	case codecJSON:
	case codecS2:
		decoded, err := s2.Decode(nil, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		body = decoded
	default:
		return nil, fmt.Errorf("%w: unknown codec 0x%02x", ErrMalformedMessage, frame[0])
	}

	var env envelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if env.Refs < 0 {
		return nil, fmt.Errorf("%w: negative reference count", ErrMalformedMessage)
	}
	return &env, nil
}

// refEncoder copies a payload, replacing every *Ref with a placeholder.
// Refs are only found inside maps and slices produced by goja or built by
// hand; structs are encoded as-is.
type refEncoder struct {
	park  func(value any) port.RefID
	count int
}

func (e *refEncoder) encode(v any) (any, error) {
	switch t := v.(type) {
	case *Ref:
		if t == nil {
			return nil, nil
		}
		e.count++
		return map[string]any{refKey: uint64(e.park(t.Value))}, nil

	case map[string]any:
		if _, reserved := t[refKey]; reserved {
			return nil, fmt.Errorf("%w: object key %q is reserved", ErrMalformedMessage, refKey)
		}
		out := make(map[string]any, len(t))
		for k, item := range t {
			encoded, err := e.encode(item)
			if err != nil {
				return nil, err
			}
			out[k] = encoded
		}
		return out, nil

	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			encoded, err := e.encode(item)
			if err != nil {
				return nil, err
			}
			out[i] = encoded
		}
		return out, nil

	default:
		return v, nil
	}
}

// refResolver swaps placeholders in a decoded payload for the parked values.
// The payload is freshly decoded, so it is rewritten in place.
type refResolver struct {
	wrapper *port.Wrapper
	count   int
}

func (r *refResolver) resolve(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if raw, ok := t[refKey]; ok && len(t) == 1 {
			return r.take(raw)
		}
		for k, item := range t {
			resolved, err := r.resolve(item)
			if err != nil {
				return nil, err
			}
			t[k] = resolved
		}
		return t, nil

	case []any:
		for i, item := range t {
			resolved, err := r.resolve(item)
			if err != nil {
				return nil, err
			}
			t[i] = resolved
		}
		return t, nil

	default:
		return v, nil
	}
}

func (r *refResolver) take(raw any) (any, error) {
	n, ok := raw.(float64)
	if !ok || n < 1 || n != float64(uint64(n)) {
		return nil, fmt.Errorf("%w: bad reference id %v", ErrMalformedMessage, raw)
	}

	refID := port.RefID(n)
	value, ok := r.wrapper.Take(refID)
	if !ok {
		return nil, fmt.Errorf("%w: id %d on %s", ErrMissingReference, refID, r.wrapper.Handle())
	}
	r.count++
	return value, nil
}
