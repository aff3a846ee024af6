package watcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// notifyTitle prefixes every desktop notification.
const notifyTitle = "devinsight"

// Notify sends a desktop notification for the given alert. On macOS it uses
// osascript, on Linux it tries notify-send. If neither is available, it falls
// back to printing to stderr.
func Notify(alert Alert) error {
	switch runtime.GOOS {
	case "darwin":
		return notifyMacOS(alert)
	case "linux":
		return notifyLinux(alert)
	default:
		return notifyFallback(os.Stderr, alert)
	}
}

func notifyMacOS(alert Alert) error {
	script := fmt.Sprintf(
		`display notification %q with title %q subtitle %q`,
		alert.Message, notifyTitle, alert.Title,
	)
	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		return notifyFallback(os.Stderr, alert)
	}
	return nil
}

func notifyLinux(alert Alert) error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return notifyFallback(os.Stderr, alert)
	}
	urgency := "normal"
	if alert.Level == "critical" {
		urgency = "critical"
	}
	title := fmt.Sprintf("%s: %s", notifyTitle, alert.Title)
	if err := exec.Command("notify-send", "-u", urgency, title, alert.Message).Run(); err != nil {
		return notifyFallback(os.Stderr, alert)
	}
	return nil
}

// notifyFallback writes the alert as one line to w.
func notifyFallback(w io.Writer, alert Alert) error {
	_, err := fmt.Fprintf(w, "[%s] %s: %s\n", alert.Level, alert.Title, alert.Message)
	return err
}

// Printer returns an alert callback that writes one line per alert to w.
func Printer(w io.Writer) func(Alert) {
	return func(a Alert) {
		_ = notifyFallback(w, a)
	}
}
