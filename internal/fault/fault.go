package fault

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

// An error classified under a sentinel kind.
type Error struct {
	kind   error // Sentinel the error is classified under.
	cause  error // Underlying error as returned by the failing call.
	traced error // Cause wrapped by eris, carrying the stack at classification.
}

// Classifies err under kind. Returns nil if err is nil.
func Wrap(kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		kind:   kind,
		cause:  err,
		traced: eris.Wrap(err, kind.Error()),
	}
}

// Classifies a formatted message under kind.
//
// The format follows [fmt.Errorf], so a %w verb keeps the wrapped error
// reachable through [errors.Is].
func Wrapf(kind error, format string, args ...any) error {
	cause := fmt.Errorf(format, args...)
	return &Error{
		kind:   kind,
		cause:  cause,
		traced: eris.Wrap(cause, kind.Error()),
	}
}

// Returns "kind: cause".
func (e *Error) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

// Returns the kind and the cause, in that order.
func (e *Error) Unwrap() []error {
	return []error{e.kind, e.cause}
}

// Returns the sentinel the error is classified under.
func (e *Error) Kind() error {
	return e.kind
}

// Renders err for display.
//
// With trace set, the outermost classified error is printed with the stack
// captured when it was wrapped. Otherwise the plain message is returned.
func Format(err error, trace bool) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if trace && errors.As(err, &fe) {
		return err.Error() + "\n" + eris.ToString(fe.traced, true)
	}
	return err.Error()
}
