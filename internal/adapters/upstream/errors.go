package upstream

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks any failed collaborator call. Callers degrade to
	// an empty section when they see it.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrCircuitOpen is returned without calling the collaborator while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrStatus is a non-2xx response.
	ErrStatus = errors.New("unexpected status")
	// ErrDecode is a body that is not a JSON array of objects, including null.
	ErrDecode = errors.New("invalid response body")
)

// StatusError is a non-2xx response. It matches ErrStatus.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("%s: %d", ErrStatus, e.Code) }

// Is matches ErrStatus.
func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// ClientFault reports a 4xx, which the caller's own request caused.
func (e *StatusError) ClientFault() bool { return e.Code >= 400 && e.Code < 500 }

// tripsBreaker reports whether err says the collaborator is unhealthy.
// A rejected token or a caller that went away does not.
func tripsBreaker(err error) bool {
	var se *StatusError
	if errors.As(err, &se) && se.ClientFault() {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
