//go:build windows

package commands

import "errors"

// Daemonization relies on setsid, which Windows does not have. Windows
// users run the server with --foreground under a service manager
// instead.
func startDaemon() error {
	return errors.New("background mode needs setsid; run with --foreground on Windows")
}
