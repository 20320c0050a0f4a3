package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// readPidFile returns the PID recorded at path.
func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed PID file %s: %q", path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// writePidFile records pid at path for stop and status to find.
func writePidFile(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644)
}

// processAlive reports whether pid exists and accepts signals. Windows
// cannot deliver the null signal, so it always reports false there;
// daemon management is unix-only anyway.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// waitForExit polls until pid is gone or limit passes. It reports
// whether the process exited in time.
func waitForExit(pid int, limit time.Duration) bool {
	deadline := time.Now().Add(limit)
	for processAlive(pid) {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
	return true
}

// runningPid reads the PID file at path and reports the recorded
// process if it is still alive.
func runningPid(path string) (int, bool) {
	pid, err := readPidFile(path)
	if err != nil || !processAlive(pid) {
		return 0, false
	}
	return pid, true
}
