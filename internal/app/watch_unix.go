//go:build !windows

package app

import (
	"os"
	"syscall"
)

// shutdownSignals end a foreground or daemon watch gracefully.
var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// terminate asks the daemon to shut down; it removes its own PID file.
func terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

// processExists reports whether pid is alive. Signal 0 probes without
// delivering anything.
func processExists(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
