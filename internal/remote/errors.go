package remote

import (
	"errors"
	"fmt"

	"github.com/zettelhub/hub/internal/shared/types"
)

// Error is a classified remote call failure.
type Error struct {
	Kind   types.FailureKind
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Reason)
}

// NewApplicationError wraps a non-success status reported by the
// service. Reason is the service's own human-readable message and is
// surfaced to the user verbatim.
func NewApplicationError(reason string) *Error {
	return &Error{Kind: types.FailureApplication, Reason: reason}
}

// NewTransportError wraps a connectivity-level failure.
func NewTransportError(reason string) *Error {
	return &Error{Kind: types.FailureTransport, Reason: reason}
}

// Classify returns the failure kind of err. Anything that is not a
// *remote.Error counts as transport: the caller got no usable answer
// from the service.
func Classify(err error) types.FailureKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return types.FailureTransport
}

// ReasonOf returns the human-readable reason of err.
func ReasonOf(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Reason
	}
	return err.Error()
}
