//go:build unix

package platform

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// InstanceLock is an exclusive advisory lock on a file.
type InstanceLock struct {
	file *os.File
}

// AcquireLock takes the instance lock at path without blocking.
func AcquireLock(path string) (*InstanceLock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	fmt.Fprintf(file, "%d\n", os.Getpid())
	return &InstanceLock{file: file}, nil
}

// Release drops the lock.
func (l *InstanceLock) Release() error {
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.file.Close()
		return fmt.Errorf("failed to unlock: %w", err)
	}
	return l.file.Close()
}
