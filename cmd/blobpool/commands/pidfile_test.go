//go:build !windows

package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadPidFile_Missing(t *testing.T) {
	_, err := readPidFile(filepath.Join(t.TempDir(), "missing.pid"))
	if !os.IsNotExist(err) {
		t.Errorf("readPidFile() for missing file: got %v, want IsNotExist", err)
	}
}

func TestReadPidFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pid")
	if err := os.WriteFile(path, []byte("not-a-pid\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := readPidFile(path); err == nil {
		t.Error("readPidFile() for malformed content: got nil error, want parse failure")
	}
}

func TestReadPidFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blobpool.pid")
	if err := writePidFile(path, 12345); err != nil {
		t.Fatal(err)
	}

	pid, err := readPidFile(path)
	if err != nil {
		t.Fatalf("readPidFile() after writePidFile(): %v", err)
	}
	if pid != 12345 {
		t.Errorf("readPidFile() = %d, want 12345", pid)
	}
}

func TestReadPidFile_TrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blobpool.pid")
	if err := os.WriteFile(path, []byte("4242\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pid, err := readPidFile(path)
	if err != nil {
		t.Fatalf("readPidFile(): %v", err)
	}
	if pid != 4242 {
		t.Errorf("readPidFile() = %d, want 4242", pid)
	}
}

func TestProcessAlive(t *testing.T) {
	if !processAlive(os.Getpid()) {
		t.Error("processAlive() for current process: got false, want true")
	}
	// PID just below the kernel maximum, vanishingly unlikely to exist.
	if processAlive(1<<22 - 1) {
		t.Error("processAlive() for implausible PID: got true, want false")
	}
}

func TestRunningPid(t *testing.T) {
	dir := t.TempDir()

	if _, ok := runningPid(filepath.Join(dir, "missing.pid")); ok {
		t.Error("runningPid() for missing file: got ok=true, want false")
	}

	dead := filepath.Join(dir, "dead.pid")
	if err := writePidFile(dead, 1<<22-1); err != nil {
		t.Fatal(err)
	}
	if _, ok := runningPid(dead); ok {
		t.Error("runningPid() for dead process: got ok=true, want false")
	}

	live := filepath.Join(dir, "live.pid")
	if err := writePidFile(live, os.Getpid()); err != nil {
		t.Fatal(err)
	}
	pid, ok := runningPid(live)
	if !ok {
		t.Fatal("runningPid() for current process: got ok=false, want true")
	}
	if pid != os.Getpid() {
		t.Errorf("runningPid() = %d, want %d", pid, os.Getpid())
	}
}
