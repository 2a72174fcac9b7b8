// Package http exposes the port host, registry and worker pool over a gin
// admin API.
//
// Routes:
//
//	GET    /                         service banner
//	GET    /health                   host, registry and worker stats
//	POST   /channels                 open a port pair
//	GET    /ports                    registered wrappers
//	GET    /ports/:handle            one port (hex or decimal handle)
//	DELETE /ports/:handle            close a port and its peer
//	POST   /ports/:handle/messages   {"payload": ...} to the peer
//	GET    /ports/:handle/messages   next message, 204 when empty, ?wait=2s long-polls
//	GET    /ports/:handle/stream     websocket of received messages
//	POST   /workers/execute          {"script": ..., "timeout_ms": ...}
//	GET    /metrics                  prometheus exposition
//	GET    /metrics/json             metrics snapshot
//
// Error mapping: unknown handle 404, closed port 410, full inbox 429,
// malformed payload 400, worker pool unavailable 503.
package http
