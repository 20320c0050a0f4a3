//go:build !windows

package store

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// dirLock holds an exclusive advisory lock on the store's LOCK file. flock
// excludes other processes and other descriptors within this process, so a
// double Open of the same directory fails either way. The lock dies with
// the descriptor, which means a crashed process never leaves a stale lock
// behind.
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

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrStoreLocked
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	return &dirLock{f: f}, nil
}

// release drops the lock by closing the descriptor.
func (l *dirLock) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
