package core

import (
	"errors"
	"fmt"
)

// ErrRateLimited marks an explicit 429-equivalent from an upstream service.
// It is treated as an immediate tier failure and never retried.
var ErrRateLimited = errors.New("rate limited by upstream")

// ErrInvalidResponse marks a payload that could not be parsed into the
// expected shape. Logged and treated as a tier/call failure.
var ErrInvalidResponse = errors.New("invalid response shape")

// ErrConfiguration marks missing required external-service configuration.
// Fatal at startup for the affected dependency.
var ErrConfiguration = errors.New("missing configuration")

// TransientError wraps a network/timeout/5xx failure that was retried and
// still failed. Callers degrade to a fallback tier or cached data.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient fetch failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a TransientError.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
