package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/blobpool/blobpool/pkg/config"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var (
	logsFollow bool
	logsLines  int
	logsSince  string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Tail the server log",
	Long: `Display and optionally follow the blobpool server logs.

The log file comes from 'logging.output' in the configuration. When the
server logs to stdout or stderr there is no file to read and this
command says so.

Examples:
  # Print the last 100 lines (the default)
  blobpool logs

  # Only the last 50 lines
  blobpool logs -n 50

  # Keep following new lines
  blobpool logs -f

  # Only lines newer than a timestamp
  blobpool logs --since "2024-01-15T10:00:00Z"

  # Follow, starting from the last 20 lines
  blobpool logs -f -n 20`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Stream new lines as they are written")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "How many trailing lines to print")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Drop lines older than this RFC3339 timestamp")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logPath := cfg.Logging.Output
	if logPath == "stdout" || logPath == "stderr" {
		return fmt.Errorf("server is configured to log to %s, not a file\nConfigure 'logging.output' in config to a file path to use this command", logPath)
	}
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s\nThe server may not have started yet or is logging elsewhere", logPath)
	}

	var since time.Time
	if logsSince != "" {
		since, err = time.Parse(time.RFC3339, logsSince)
		if err != nil {
			return fmt.Errorf("--since must be an RFC3339 timestamp: %w", err)
		}
	}

	if logsFollow {
		return followLogs(logPath, logsLines, since)
	}
	return printTail(os.Stdout, logPath, logsLines, since)
}

// printTail writes the last n qualifying lines of the log file to w.
func printTail(w io.Writer, path string, n int, since time.Time) error {
	if n <= 0 {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	// A ring of the last n lines keeps memory flat however large the
	// log has grown.
	ring := make([]string, n)
	total := 0

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if !since.IsZero() {
			if t := lineTime(line); !t.IsZero() && t.Before(since) {
				continue
			}
		}
		ring[total%n] = line
		total++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	start := 0
	if total > n {
		start = total - n
	}
	for i := start; i < total; i++ {
		fmt.Fprintln(w, ring[i%n])
	}
	return nil
}

// followLogs prints the tail of the log file and then streams new
// entries until interrupted.
func followLogs(path string, n int, since time.Time) error {
	if err := printTail(os.Stdout, path, n, since); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	// Only new entries from here on; printTail covered the rest.
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to the log file end: %w", err)
	}
	reader := bufio.NewReader(f)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Following %s (Ctrl+C to stop)...\n", path)

	var pending strings.Builder
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) {
				drainLines(reader, &pending)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("log watcher failed: %w", err)
		}
	}
}

// drainLines prints complete lines from r, holding back a trailing
// partial line until its newline arrives in a later write.
func drainLines(r *bufio.Reader, pending *strings.Builder) {
	for {
		chunk, err := r.ReadString('\n')
		pending.WriteString(chunk)
		if err != nil {
			return
		}
		fmt.Print(pending.String())
		pending.Reset()
	}
}

// lineTime extracts the timestamp from a log line. JSON lines carry a
// "time" field; text lines lead with an RFC3339 timestamp, possibly
// prefixed with "time=".
func lineTime(line string) time.Time {
	if strings.HasPrefix(line, "{") {
		var entry struct {
			Time time.Time `json:"time"`
		}
		if json.Unmarshal([]byte(line), &entry) == nil {
			return entry.Time
		}
		return time.Time{}
	}

	field := line
	if i := strings.IndexByte(field, ' '); i >= 0 {
		field = field[:i]
	}
	field = strings.TrimPrefix(field, "time=")
	if t, err := time.Parse(time.RFC3339Nano, field); err == nil {
		return t
	}
	return time.Time{}
}
