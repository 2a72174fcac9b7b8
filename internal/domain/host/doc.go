// Package host simulates the native side that owns message ports.
//
// Ports come in entangled pairs. A message posted on one end is queued in the
// inbox of the other end. Handles are plain 64-bit values allocated from a
// counter with a free list, so the value of a destroyed port is handed out
// again, the same way a native allocator reuses addresses.
//
// Lifecycle:
//   - NewChannel allocates two entangled ports
//   - Close closes a port together with its peer
//   - Close listeners run for every closed port before its handle returns to
//     the free list; managed code hooks registry disposal in here
//
// Example Usage:
//
//	h := host.New(host.DefaultConfig())
//	h.OnClose(func(ext port.External) { ports.Dispose(ext) })
//	a, b := h.NewChannel()
//	_ = h.Post(a.Handle(), []byte("hello"))
//	data, ok, _ := h.Receive(b.Handle())
package host
