package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock is an advisory single-writer lock placed next to the store file
type Lock struct {
	flock *flock.Flock
}

// NewLock returns a lock guarding the store located at storePath
func NewLock(storePath string) *Lock {
	return &Lock{
		flock: flock.New(storePath + ".lock"),
	}
}

// Path returns the lock file path
func (l *Lock) Path() string {
	return l.flock.Path()
}

// Lock acquires the lock without blocking. ErrStoreLocked is returned
// when another process already holds it.
func (l *Lock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.flock.Path()), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	locked, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock store: %w", err)
	}
	if !locked {
		return ErrStoreLocked
	}

	return nil
}

// Locked reports whether this process holds the lock
func (l *Lock) Locked() bool {
	return l.flock.Locked()
}

// Unlock releases the lock. The lock file stays in place so every process
// contends on the same inode. It is a no-op if this process does not hold
// the lock.
func (l *Lock) Unlock() error {
	if !l.flock.Locked() {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock store: %w", err)
	}
	return nil
}
