package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	stopPidFile string
	stopForce   bool
	stopWait    time.Duration
)

// errProcessDone signals that the target process already exited.
var errProcessDone = errors.New("process already finished")

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the blobpool server",
	Long: `Stop a running blobpool server.

The server is located through its PID file and asked to shut down with
SIGTERM, which lets it sync open containers and drain in-flight writes.
--force skips the graceful path and delivers SIGKILL instead.

Stop returns as soon as the signal is delivered. Pass --wait to block
until the process is actually gone.

Examples:
  # Stop via the default PID file
  blobpool stop

  # Stop using an explicit PID file
  blobpool stop --pid-file /var/run/blobpool.pid

  # Force stop (SIGKILL)
  blobpool stop --force

  # Block until the server has exited, up to 30 seconds
  blobpool stop --wait 30s`,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().StringVar(&stopPidFile, "pid-file", "", "PID file of the server to stop (default: $XDG_STATE_HOME/blobpool/blobpool.pid)")
	stopCmd.Flags().BoolVarP(&stopForce, "force", "f", false, "Kill the server with SIGKILL instead of letting it drain")
	stopCmd.Flags().DurationVar(&stopWait, "wait", 0, "Wait up to this long for the process to exit (0 returns immediately)")
}

func runStop(cmd *cobra.Command, args []string) error {
	pidPath := stopPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	pid, err := readPidFile(pidPath)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("no PID file at %s; the server does not appear to be running", pidPath)
	case err != nil:
		return err
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to look up process %d: %w", pid, err)
	}

	switch err := stopProcess(proc, pid, stopForce); {
	case errors.Is(err, errProcessDone):
		_ = os.Remove(pidPath)
		fmt.Println("Server had already exited; removed the stale PID file")
		return nil
	case err != nil:
		return err
	}

	if stopWait > 0 {
		if !waitForExit(pid, stopWait) {
			return fmt.Errorf("server (pid %d) still running after %s", pid, stopWait)
		}
		_ = os.Remove(pidPath)
		fmt.Println("Server exited")
		return nil
	}

	if stopForce {
		// SIGKILL gives the server no chance to clean up after itself.
		_ = os.Remove(pidPath)
		fmt.Println("Server killed")
		return nil
	}
	fmt.Println("Shutdown requested; the server drains and exits on its own")
	return nil
}
