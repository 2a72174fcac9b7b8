// Package providers holds the execution backends that drive ports from
// outside the HTTP API. The worker subpackage runs sandboxed scripts whose
// channels go through the same messaging bridge as API clients.
package providers
