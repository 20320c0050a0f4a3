// Package timeutil provides time formatting helpers for CLI output.
package timeutil

import (
	"fmt"
	"time"
)

// FormatTime renders t in the local timezone, asctime style.
func FormatTime(t time.Time) string {
	return t.Local().Format(time.ANSIC)
}

// FormatUptime converts a Go duration string, as reported by the status
// endpoint (e.g. "72h30m15s"), into day/hour/minute/second form. The
// input is returned unchanged when it does not parse.
func FormatUptime(uptime string) string {
	d, err := time.ParseDuration(uptime)
	if err != nil {
		return uptime
	}

	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60
	seconds := int(d/time.Second) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
