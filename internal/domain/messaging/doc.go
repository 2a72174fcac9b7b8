// Package messaging carries managed values across native message ports.
//
// Plain data is JSON-encoded into the native inbox. Values wrapped with
// NewRef stay in managed memory: the sender parks them on the receiving
// port's Wrapper and the frame carries only a placeholder, which the receiver
// swaps back for the original value.
//
// Frame layout:
//
//	[codec byte][body]
//	codec 0x00: body is the JSON envelope
//	codec 0x01: body is the s2-compressed JSON envelope
//
// Ordering with respect to the port registry:
//   - Wrappers are created while the host guarantees both ports are open, so
//     a port's close listeners always run after the last wrapper creation
//   - The receiver only looks its wrapper up when the frame carries
//     references, which means the sender already created it
//   - On close the wrapper is evicted and its undelivered values dropped
//     before the host frees the handle
package messaging
