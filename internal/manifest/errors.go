package manifest

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwantia/photosync/internal/remote"
)

var (
	ErrInvalidHash = errors.New("content hash is not a valid hex digest")

	errStoreWrite = errors.New("manifest store write failed")
)

// IntegrityError reports content whose recomputed hash differs from the expected one
type IntegrityError struct {
	ID       string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %s: expected %s, got %s", e.ID, e.Expected, e.Actual)
}

// isFatal reports errors that must stop a run instead of failing a single item
func isFatal(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, remote.ErrSessionExpired) ||
		errors.Is(err, remote.ErrSessionMissing) ||
		errors.Is(err, errStoreWrite) ||
		errors.Is(err, context.Canceled)
}
