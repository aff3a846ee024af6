//go:build windows

package app

import "os"

// shutdownSignals end a foreground watch gracefully.
var shutdownSignals = []os.Signal{os.Interrupt}

// terminate kills the daemon. Windows has no SIGTERM, so the daemon gets
// no chance to clean up.
func terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

// processExists reports whether pid is alive. FindProcess always succeeds
// on Windows, so a nil signal is sent as the probe.
func processExists(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(os.Signal(nil)) == nil
}
