//go:build !windows

package commands

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// stopProcess delivers the shutdown signal: SIGTERM for a graceful
// drain, SIGKILL when force is set.
func stopProcess(proc *os.Process, pid int, force bool) error {
	sig := unix.SIGTERM
	if force {
		sig = unix.SIGKILL
	}

	fmt.Printf("Sending %s to process %d...\n", unix.SignalName(sig), pid)
	switch err := proc.Signal(sig); {
	case errors.Is(err, os.ErrProcessDone):
		return errProcessDone
	case err != nil:
		return fmt.Errorf("failed to signal process %d: %w", pid, err)
	}
	return nil
}
