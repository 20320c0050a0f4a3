package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/blobpool/blobpool/internal/logger"
	"github.com/blobpool/blobpool/pkg/config"
)

// InitLogger wires the process-wide structured logger to the logging
// section of the loaded configuration.
func InitLogger(cfg *config.Config) error {
	err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// GetDefaultStateDir returns the directory for runtime state such as
// the PID file and the daemon log. On unix this follows the XDG state
// convention, on Windows it lives under %LOCALAPPDATA%.
func GetDefaultStateDir() string {
	base := stateBaseDir()
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "blobpool")
}

func stateBaseDir() string {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, "AppData", "Local")
	}

	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state")
}

// GetDefaultPidFile is where the backgrounded server drops its PID
// unless --pid-file says otherwise.
func GetDefaultPidFile() string {
	return filepath.Join(GetDefaultStateDir(), "blobpool.pid")
}

// GetDefaultLogFile is where a daemonized server writes its log unless
// --log-file says otherwise.
func GetDefaultLogFile() string {
	return filepath.Join(GetDefaultStateDir(), "blobpool.log")
}
