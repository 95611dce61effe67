package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// FileLock guards the manifest against overlapping certfetch invocations
// using a cross-platform flock.
type FileLock struct {
	lock *flock.Flock
}

// NewFileLock creates a lock guarding the file at path. The lock file
// itself lives alongside it at path + ".lock".
func NewFileLock(path string) *FileLock {
	return &FileLock{
		lock: flock.New(path + ".lock"),
	}
}

// Lock acquires the lock, retrying at a 100ms interval until it is held
// or the context is cancelled. A second certfetch run blocks here only
// for the duration of a manifest update.
func (l *FileLock) Lock(ctx context.Context) error {
	locked, err := l.lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock: timeout")
	}
	return nil
}

// Unlock releases the lock. The .lock file is left behind; clean removes it.
func (l *FileLock) Unlock() error {
	return l.lock.Unlock()
}
