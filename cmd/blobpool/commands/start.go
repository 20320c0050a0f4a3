package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blobpool/blobpool/internal/logger"
	"github.com/blobpool/blobpool/internal/telemetry"
	"github.com/blobpool/blobpool/pkg/api"
	"github.com/blobpool/blobpool/pkg/config"
	"github.com/spf13/cobra"

	// Blank import: its init installs the metric constructors.
	_ "github.com/blobpool/blobpool/pkg/metrics/prometheus"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the blobpool server",
	Long: `Start the blobpool server with the specified configuration.

The process detaches and runs in the background unless --foreground is
given; stay in the foreground when debugging or running under a process
supervisor. Without --config the file at
$XDG_CONFIG_HOME/blobpool/config.yaml is used.

Examples:
  # Start detached (the default)
  blobpool start

  # Stay in the foreground
  blobpool start --foreground

  # Start with a specific config file
  blobpool start --config /etc/blobpool/config.yaml

  # Override settings through the environment
  BLOBPOOL_LOGGING_LEVEL=DEBUG blobpool start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Stay in the foreground instead of detaching")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Where to record the server PID (default: $XDG_STATE_HOME/blobpool/blobpool.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Where the detached server writes its log (default: $XDG_STATE_HOME/blobpool/blobpool.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// The context is canceled on SIGINT/SIGTERM and threaded through
	// every long-running component.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownObservability, err := initObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownObservability()

	fmt.Println("Blobpool - Blob allocation manager")
	logger.Info("Logging configured", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", configSource(GetConfigFile()))

	metricsResult := config.InitializeMetrics(cfg)

	// Open the blob store (allocates the initial blob pool on first run)
	st, err := config.InitializeStore(ctx, cfg, metricsResult)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("Store close error", "error", err)
		}
	}()
	logger.Info("Store ready",
		"store_id", st.StoreID(),
		"path", cfg.Store.Path,
		"max_blob_size", cfg.Store.MaxBlobSize.String())

	archiver, err := config.InitializeArchiver(ctx, cfg, st, metricsResult)
	if err != nil {
		return err
	}
	if archiver == nil {
		logger.Info("Archival disabled")
	}

	if metricsResult.Server != nil {
		logger.Info("Serving Prometheus metrics", "port", cfg.Metrics.Port)
		go func() {
			if err := metricsResult.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error", "error", err)
			}
		}()
	} else {
		logger.Info("Metrics disabled")
	}

	var apiServer *api.Server
	apiDone := make(chan error, 1)
	if cfg.API.IsEnabled() {
		// The archiver satisfies api.Archiver; a typed nil would not
		// compare equal to nil inside the handler, so only assign when set.
		var arc api.Archiver
		if archiver != nil {
			arc = archiver
		}
		apiServer = api.NewServer(cfg.API, st, arc)
		logger.Info("API server configured", "port", apiServer.Port())

		go func() {
			apiDone <- apiServer.Start(ctx)
		}()
	} else {
		logger.Warn("API server disabled, only metrics and signals are served")
	}

	if pidFile != "" {
		if err := writePidFile(pidFile, os.Getpid()); err != nil {
			return fmt.Errorf("failed to write PID file %s: %w", pidFile, err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	logger.Info("Running. Ctrl+C to stop.")

	select {
	case <-ctx.Done():
		// A second signal from here on kills the process outright.
		stop()
		logger.Info("Shutdown signal received, draining")

		if apiServer != nil {
			select {
			case err := <-apiDone:
				if err != nil {
					logger.Error("Shutdown failed", "error", err)
					return err
				}
			case <-time.After(cfg.ShutdownTimeout):
				return fmt.Errorf("graceful shutdown timed out after %s", cfg.ShutdownTimeout)
			}
		}
		logger.Info("Shutdown complete")

	case err := <-apiDone:
		if err != nil {
			logger.Error("Server failed", "error", err)
			return err
		}
		logger.Info("Server exited")
	}

	return nil
}

// initObservability brings up tracing and profiling as configured and
// returns a function that flushes both.
func initObservability(ctx context.Context, cfg *config.Config) (func(), error) {
	tracingShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "blobpool",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "blobpool",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		if shutdownErr := tracingShutdown(ctx); shutdownErr != nil {
			logger.Error("Telemetry shutdown error", "error", shutdownErr)
		}
		return nil, fmt.Errorf("failed to initialize profiling: %w", err)
	}

	if telemetry.IsEnabled() {
		logger.Info("Tracing enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Tracing disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Continuous profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Continuous profiling disabled")
	}

	// Flush in reverse order of initialization.
	return func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("Profiling shutdown error", "error", err)
		}
		if err := tracingShutdown(ctx); err != nil {
			logger.Error("Telemetry shutdown error", "error", err)
		}
	}, nil
}

// configSource describes where the effective config came from.
func configSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "built-in defaults"
}
