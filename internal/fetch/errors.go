package fetch

import (
	"errors"
	"fmt"

	"github.com/transfermap/transfermap/internal/model"
)

// Class categorizes a fetch failure for the retry decision and the run
// summary taxonomy.
type Class int

const (
	// ClassTransient marks retryable failures: timeouts, connection
	// resets, 5xx responses.
	ClassTransient Class = iota

	// ClassRateLimited marks an upstream 429. Retried like a transient
	// failure, but the backoff honors Retry-After.
	ClassRateLimited

	// ClassFatal marks non-retryable failures: malformed URLs and 4xx
	// responses other than 429.
	ClassFatal
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassRateLimited:
		return "rate_limited"
	case ClassFatal:
		return "fatal"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// Reason maps the class onto the run summary taxonomy.
func (c Class) Reason() model.Reason {
	switch c {
	case ClassRateLimited:
		return model.ReasonRateLimited
	case ClassFatal:
		return model.ReasonNetworkFatal
	default:
		return model.ReasonNetworkTransient
	}
}

// Error is a classified, structured fetch failure. It is returned after
// retries are exhausted (transient) or immediately (fatal), never thrown
// away: the orchestrator buckets it into the summary by Reason.
type Error struct {
	// Class is the failure category.
	Class Class

	// URL is the request URL.
	URL string

	// StatusCode is the last HTTP status received, 0 if no response.
	StatusCode int

	// Attempts is how many attempts were issued before giving up.
	Attempts int

	// ArtifactPath is where the last response body was saved, empty if
	// no artifact was written.
	ArtifactPath string

	// Err is the underlying error from the last attempt.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s failed (%s, status=%d, attempts=%d): %v",
		e.URL, e.Class, e.StatusCode, e.Attempts, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts a *Error from an error chain. Returns nil if err does
// not wrap one.
func AsError(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}
