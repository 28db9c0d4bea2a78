package predictor

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed prediction call
type Kind int

const (
	// KindTransport covers dial, timeout, cancellation and rate-limiter failures
	KindTransport Kind = iota + 1
	// KindStatus is a non-2xx answer from the service
	KindStatus
	// KindMalformed is a 2xx answer whose body is not a usable prediction
	KindMalformed
)

// String returns the kind name used in logs and JSON
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// Error is returned by Client.Predict for every failure after input validation
type Error struct {
	Kind       Kind
	StatusCode int    // Set for KindStatus, and for KindMalformed when known
	Message    string // Service-provided message, if any
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Kind == KindStatus && e.Message != "":
		return fmt.Sprintf("prediction service error: status %d (%s): %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	case e.Kind == KindStatus:
		return fmt.Sprintf("prediction service error: status %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return fmt.Sprintf("prediction %s error: %v", e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("prediction %s error: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("prediction %s error", e.Kind)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of err, or 0 when err is not an *Error
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
