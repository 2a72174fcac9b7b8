// Package port tracks the managed-side view of native message ports.
//
// The native host owns every message port and identifies it to managed code by
// an opaque 64-bit handle. Managed code keeps exactly one Wrapper per live
// handle; the Wrapper parks managed references that travel inside messages so
// the native queue only ever carries placeholders.
//
// Components:
//   - Registry: handle -> Wrapper table with lookup, get-or-create and dispose
//   - Wrapper: parked managed references for one port
//   - External: anything that carries a native handle into managed code
//
// Concurrency:
//   - GetOrCreate constructs at most one Wrapper per handle, even when many
//     goroutines race on first contact; every racer gets the installed value
//   - Calls for different handles only contend inside sync.Map
//   - A GetOrCreate that has returned is visible to every later Lookup
//
// Lifetime:
//   - Entries are removed only by Dispose, which the native side triggers when
//     it destroys a port. Nothing is reclaimed by finalizers
//   - Dispose must run before the native side reuses a handle value; the
//     registry does not detect reuse on its own
//
// Example Usage:
//
//	ports := port.NewRegistry().WithMetrics(metrics).WithLogger(logger)
//	w := ports.GetOrCreate(ext)      // first contact from a native callback
//	same := ports.Lookup(ext.Handle()) // once the wrapper is known to exist
//	ports.Dispose(ext)               // native side destroyed the port
package port
