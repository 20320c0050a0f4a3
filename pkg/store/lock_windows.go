//go:build windows

package store

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// dirLock holds an exclusive byte-range lock on the store's LOCK file via
// LockFileEx, mirroring the flock semantics of the Unix build.
type dirLock struct {
	f *os.File
}

// acquireDirLock locks path without blocking. A held lock surfaces as
// ErrStoreLocked.
func acquireDirLock(path string) (*dirLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	ol := new(windows.Overlapped)
	err = windows.LockFileEx(windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, 1, 0, ol)
	if err != nil {
		_ = f.Close()
		if err == windows.ERROR_LOCK_VIOLATION {
			return nil, ErrStoreLocked
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	return &dirLock{f: f}, nil
}

// release unlocks and closes the descriptor.
func (l *dirLock) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	ol := new(windows.Overlapped)
	_ = windows.UnlockFileEx(windows.Handle(l.f.Fd()), 0, 1, 0, ol)
	err := l.f.Close()
	l.f = nil
	return err
}
