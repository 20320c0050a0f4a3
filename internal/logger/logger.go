// Package logger provides the process-wide structured logger.
//
// It wraps log/slog with a tint handler for human-readable text output
// (colored when the destination is a terminal) and a JSON handler for
// machine consumption. The package-level functions log through a single
// reconfigurable logger so every component shares level and format
// settings.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Config selects the level, format and destination for the process
// logger. It mirrors the logging section of the server configuration.
type Config struct {
	Level  string // DEBUG, INFO, WARN or ERROR
	Format string // "text" or "json"
	Output string // "stdout", "stderr" or a file path
}

var (
	mu       sync.RWMutex
	output   io.Writer = os.Stdout
	useColor bool
	format   = "text"
	levelVar = new(slog.LevelVar)
	slogger  *slog.Logger
)

var levelNames = map[string]slog.Level{
	"DEBUG": slog.LevelDebug,
	"INFO":  slog.LevelInfo,
	"WARN":  slog.LevelWarn,
	"ERROR": slog.LevelError,
}

func init() {
	useColor = isatty.IsTerminal(os.Stdout.Fd())
	levelVar.Set(slog.LevelInfo)

	mu.Lock()
	reconfigureLocked()
	mu.Unlock()
}

// reconfigureLocked rebuilds the slog handler from current settings.
// Callers must hold mu.
func reconfigureLocked() {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{
			Level: levelVar,
		})
	} else {
		handler = tint.NewHandler(output, &tint.Options{
			Level:      levelVar,
			TimeFormat: "15:04:05.000", // time.TimeOnly plus milliseconds
			NoColor:    !useColor,
		})
	}
	slogger = slog.New(handler)
}

// resolveOutput maps an output name to a writer and whether color makes
// sense on it. Anything that is not stdout or stderr is treated as a
// file path and opened for append.
func resolveOutput(name string) (io.Writer, bool, error) {
	switch strings.ToLower(name) {
	case "stdout", "":
		return os.Stdout, isatty.IsTerminal(os.Stdout.Fd()), nil
	case "stderr":
		return os.Stderr, isatty.IsTerminal(os.Stderr.Fd()), nil
	default:
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, false, fmt.Errorf("failed to open log file %q: %w", name, err)
		}
		return f, false, nil
	}
}

// setFormatLocked stores the format if it names a known one; anything
// else keeps the current setting. Callers must hold mu.
func setFormatLocked(f string) {
	switch strings.ToLower(f) {
	case "text":
		format = "text"
	case "json":
		format = "json"
	}
}

// Init points the logger at the configured destination and applies level
// and format. An empty Output means stdout; an empty Level or Format
// keeps the current setting.
func Init(cfg Config) error {
	out, color, err := resolveOutput(cfg.Output)
	if err != nil {
		return err
	}

	mu.Lock()
	output = out
	useColor = color
	setFormatLocked(cfg.Format)
	reconfigureLocked()
	mu.Unlock()

	if cfg.Level != "" {
		SetLevel(cfg.Level)
	}
	return nil
}

// InitWithWriter sends log output to an arbitrary writer. Tests use it
// to capture what gets logged.
func InitWithWriter(w io.Writer, level, logFormat string, enableColor bool) {
	mu.Lock()
	output = w
	useColor = enableColor
	setFormatLocked(logFormat)
	reconfigureLocked()
	mu.Unlock()

	if level != "" {
		SetLevel(level)
	}
}

// SetLevel adjusts the minimum level at runtime. The level var is shared
// with every handler built so far, so no rebuild is needed. Unknown
// level names are ignored.
func SetLevel(level string) {
	if lv, ok := levelNames[strings.ToUpper(level)]; ok {
		levelVar.Set(lv)
	}
}

// SetFormat switches between text and json output at runtime. Unknown
// formats are ignored.
func SetFormat(logFormat string) {
	mu.Lock()
	setFormatLocked(logFormat)
	reconfigureLocked()
	mu.Unlock()
}

// getLogger snapshots the current logger under the read lock.
func getLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// Debug logs at DEBUG level. Args alternate keys and values as in slog:
// Debug("blob sealed", "blob_id", 4).
func Debug(msg string, args ...any) { getLogger().Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { getLogger().Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { getLogger().Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { getLogger().Error(msg, args...) }

// With returns a child logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return getLogger().With(args...)
}

// Duration converts the time since start into fractional milliseconds
// for use as a log field.
func Duration(start time.Time) float64 {
	return time.Since(start).Seconds() * 1000
}
