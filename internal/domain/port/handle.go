package port

import "fmt"

// Handle identifies a native message port. Stable while the native port
// lives; the host may hand the same value out again after the port is
// destroyed.
type Handle uint64

// String formats the handle like a native pointer
func (h Handle) String() string {
	return fmt.Sprintf("%#x", uint64(h))
}

// External is an object that carries a native handle into managed code.
type External interface {
	Handle() Handle
}

// Pointer is the plain External handed out by the native host.
type Pointer Handle

// Handle returns the native handle
func (p Pointer) Handle() Handle {
	return Handle(p)
}

// AsExternal reports whether v carries a native handle.
func AsExternal(v any) (External, bool) {
	ext, ok := v.(External)
	if !ok || ext == nil {
		return nil, false
	}
	return ext, true
}
