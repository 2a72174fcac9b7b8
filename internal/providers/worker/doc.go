/*
Package worker runs untrusted JavaScript that exchanges messages over native
ports.

# Overview

Each Runtime is an isolated goja VM. Scripts cannot reach the filesystem,
the network or Node.js globals; timers are no-ops and every execution is
bounded by a timeout and the caller's context.

# Script API

	channel()            // {port1, port2}, two entangled native ports
	port.postMessage(v)  // send v to the peer port
	port.receive()       // next message, or null when the inbox is empty
	port.close()         // destroy the port and its peer
	port.handle          // native handle as a hex string
	ref(v)               // send v by reference instead of by copy

Values wrapped with ref() never leave the VM: they are parked on the
receiving port and receive() returns the very same object.

	const ch = channel();
	const state = {count: 1};
	ch.port1.postMessage({state: ref(state)});
	ch.port2.receive().state === state; // true

Ports belong to the execution that opened them and are closed when it ends,
so parked JavaScript values never outlive their VM.

# Pooling

Pool keeps a fixed set of runtimes. Release resets the VM before the runtime
is handed out again.
*/
package worker
