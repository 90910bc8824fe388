package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrSessionMissing = errors.New("remote: session file missing")
	ErrSessionExpired = errors.New("remote: session expired or unauthorized")
)

const (
	CodeNotFound        = "E_NOT_FOUND"        // item no longer exists remotely
	CodeRateLimited     = "E_RATE_LIMITED"     // rate limit exceeded
	CodeInternalError   = "E_INTERNAL_ERROR"   // remote server error
	CodeNetworkError    = "E_NETWORK"          // transport failure or timeout
	CodeInvalidResponse = "E_INVALID_RESPONSE" // unexpected payload
	CodeUnknownError    = "E_UNKNOWN_ERR"      // unknown error
)

// RetrievalError is returned when a single item could not be fetched.
// Retryable errors may succeed when repeated later.
type RetrievalError struct {
	ID         string
	Code       string
	StatusCode int
	Message    string
	Retryable  bool
	Err        error
}

func (e *RetrievalError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("retrieval of %s failed: %s (status %d) - %s", e.ID, e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("retrieval of %s failed: %s - %s", e.ID, e.Code, e.Message)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// PartitionError reports a partition whose scan failed. Iteration continues
// with the next partition.
type PartitionError struct {
	Partition string
	Err       error
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("partition %q failed: %v", e.Partition, e.Err)
}

func (e *PartitionError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a retrieval failure worth repeating
func IsRetryable(err error) bool {
	var re *RetrievalError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

func classifyStatus(status int) (string, bool) {
	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		return CodeNotFound, false
	case status == http.StatusTooManyRequests:
		return CodeRateLimited, true
	case status >= 500:
		return CodeInternalError, true
	default:
		return CodeUnknownError, false
	}
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
