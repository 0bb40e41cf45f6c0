// api/errors.go
// License: Apache-2.0
//
// Portable outcome taxonomy for the socket layer. Every native failure is
// translated into one of the codes below at the boundary; no raw OS error
// escapes except wrapped inside *Error for inspection with errors.As.

package api

import (
	"errors"
	"fmt"
)

// Code classifies the outcome of a socket operation.
type Code int

const (
	CodeOK Code = iota
	// CodeWouldBlock is transient: the caller may retry the operation.
	CodeWouldBlock
	// CodeConnRefused is a refused connection attempt.
	CodeConnRefused
	// CodeBindFailed means the requested address was not available;
	// retryable with another address or port.
	CodeBindFailed
	// CodeOSError is an opaque native failure. The wrapped error carries
	// the best-effort human-readable message.
	CodeOSError
	// CodeNotImplemented marks a feature or family unsupported on this
	// platform.
	CodeNotImplemented
	// CodeTimeout is reported when a bounded retry budget is exhausted.
	CodeTimeout
	// CodeBadArgument is a violated caller contract; Error.Arg names the
	// offending argument.
	CodeBadArgument
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeWouldBlock:
		return "would block"
	case CodeConnRefused:
		return "connection refused"
	case CodeBindFailed:
		return "address not available"
	case CodeOSError:
		return "os error"
	case CodeNotImplemented:
		return "not implemented"
	case CodeTimeout:
		return "timeout"
	case CodeBadArgument:
		return "bad argument"
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error is the structured error returned by every socket operation.
type Error struct {
	Code Code
	// Op is the failing operation, e.g. "connect".
	Op string
	// Arg is the 1-based index of the offending argument for
	// CodeBadArgument, zero otherwise.
	Arg int
	// Err is the underlying native error, if any. Its message is
	// diagnostic only and never affects control flow.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Code == CodeBadArgument:
		return fmt.Sprintf("%s: bad argument %d", e.Op, e.Arg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// BadArg builds a CodeBadArgument error for the 1-based argument index.
func BadArg(op string, arg int) *Error {
	return &Error{Code: CodeBadArgument, Op: op, Arg: arg}
}

// CodeOf extracts the portable code from err. A nil error is CodeOK and a
// non-nil error outside the taxonomy collapses to CodeOSError.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeOSError
}

// IsWouldBlock reports whether err is the transient retryable outcome.
func IsWouldBlock(err error) bool { return CodeOf(err) == CodeWouldBlock }

// IsTimeout reports whether err is a retry-budget exhaustion.
func IsTimeout(err error) bool { return CodeOf(err) == CodeTimeout }

// IsNotImplemented reports whether err marks an unsupported feature.
func IsNotImplemented(err error) bool { return CodeOf(err) == CodeNotImplemented }
