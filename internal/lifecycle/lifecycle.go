// Package lifecycle holds process-wide drain state shared by the server entrypoint and /health.
package lifecycle

import "sync/atomic"

var shuttingDown atomic.Bool

// SetShuttingDown marks the process as draining. Set on SIGTERM/SIGINT before the server
// stops accepting connections so load balancers see /health turn 503 first.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}
