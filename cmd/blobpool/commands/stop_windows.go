//go:build windows

package commands

import (
	"errors"
	"fmt"
	"os"
)

// stopProcess terminates the server on Windows. There is no SIGTERM
// analogue, so graceful mode sends os.Interrupt and force mode kills
// the process outright.
func stopProcess(proc *os.Process, pid int, force bool) error {
	var err error
	if force {
		fmt.Printf("Stopping process %d (kill)...\n", pid)
		err = proc.Kill()
	} else {
		fmt.Printf("Stopping process %d (interrupt)...\n", pid)
		err = proc.Signal(os.Interrupt)
	}

	switch {
	case errors.Is(err, os.ErrProcessDone):
		return errProcessDone
	case err != nil:
		return fmt.Errorf("failed to stop process %d: %w", pid, err)
	}
	return nil
}
