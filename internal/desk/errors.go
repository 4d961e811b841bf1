package desk

import (
	"errors"
	"fmt"
)

// TransportError is a failed exchange with the backend: unreachable, timed
// out or answered 5xx. Status is 0 when no response arrived.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("desk: %s: backend answered %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("desk: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether sending the same request again may succeed.
func (e *TransportError) Retryable() bool {
	return e.Status == 0 || e.Status >= 500 || e.Status == 429
}

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// MigrationReport is the outcome of a batch push. A report with failures is
// an expected result, not an error.
type MigrationReport struct {
	Attempted int      `json:"attempted"`
	Succeeded []string `json:"succeeded"`
	Failed    []string `json:"failed"`
}

func (r MigrationReport) Complete() bool { return len(r.Failed) == 0 }
