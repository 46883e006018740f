// Package rexlock provides the single OS advisory-lock helper shared by the
// audit ledger and the Bates registry to serialize writers across processes.
package rexlock

import (
	"fmt"
	"os"
	"syscall"
)

// FileLock holds an exclusive, non-blocking advisory lock (flock(2)) on an
// open file descriptor. It is POSIX-only, matching the host platforms this
// engine targets.
type FileLock struct {
	f *os.File
}

// Acquire opens (creating if necessary) path and takes an exclusive
// advisory lock on it. It returns an error immediately if another process
// already holds the lock, rather than blocking — a second writer to the
// same root is a configuration error, not something to wait out.
func Acquire(path string) (*FileLock, error) {
	return AcquireFile(path, os.O_CREATE|os.O_RDWR, 0o644)
}

// AcquireFile opens path with the given flags/perm and takes an exclusive
// advisory lock on the resulting descriptor, returning the open *os.File
// so the caller can read/write/append through the same locked handle —
// the audit ledger appends to it directly; the Bates registry lock uses a
// dedicated sidecar file and only needs the lock itself.
func AcquireFile(path string, flag int, perm os.FileMode) (*FileLock, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring exclusive lock on %s: %w", path, err)
	}
	return &FileLock{f: f}, nil
}

// File returns the underlying locked file handle.
func (l *FileLock) File() *os.File { return l.f }

// Release unlocks and closes the underlying file descriptor.
func (l *FileLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	return l.f.Close()
}
