//go:build !windows

package commands

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// startDaemon re-executes the binary with --foreground in a new
// session and leaves it running in the background.
func startDaemon() error {
	stateDir := GetDefaultStateDir()
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", stateDir, err)
	}

	pidPath := pidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}
	if pid, ok := runningPid(pidPath); ok {
		return fmt.Errorf("blobpool is already running (PID %d); stop it first with 'blobpool stop'", pid)
	}
	// A stale PID file from a crashed run would confuse status.
	_ = os.Remove(pidPath)

	logPath := logFile
	if logPath == "" {
		logPath = GetDefaultLogFile()
	}
	out, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}
	defer out.Close()

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}

	args := []string{"start", "--foreground", "--pid-file", pidPath}
	if cfg := GetConfigFile(); cfg != "" {
		args = append(args, "--config", cfg)
	}

	child := exec.Command(self, args...)
	child.Stdout = out
	child.Stderr = out
	// Setsid detaches the child from this terminal so it survives the
	// parent exiting.
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := child.Start(); err != nil {
		return fmt.Errorf("failed to launch background server: %w", err)
	}

	fmt.Printf("Server running in the background (PID %d)\n", child.Process.Pid)
	fmt.Printf("  pid file: %s\n", pidPath)
	fmt.Printf("  log file: %s\n", logPath)
	fmt.Println()
	fmt.Println("Follow it with 'blobpool logs -f', stop it with 'blobpool stop'.")
	return nil
}
