// socket/errors_unix.go
// License: Apache-2.0
//
// Context-sensitive translation of native error codes into the portable
// taxonomy. Interpretation depends on the calling operation: the same
// errno means different things during connect and during bind.

//go:build linux

package socket

import (
	"golang.org/x/sys/unix"

	"github.com/portabus/sockport/api"
)

func osError(op string, err error) *api.Error {
	return &api.Error{Code: api.CodeOSError, Op: op, Err: err}
}

func wouldBlock(op string) *api.Error {
	return &api.Error{Code: api.CodeWouldBlock, Op: op}
}

func notImplemented(op string) *api.Error {
	return &api.Error{Code: api.CodeNotImplemented, Op: op}
}

// isAgain matches the transient would-block errno. EAGAIN and EWOULDBLOCK
// are the same value on Linux.
func isAgain(err error) bool {
	return err == unix.EAGAIN
}

// connectError interprets a failed connect. In-progress and would-block
// conditions are one retryable outcome; an already-established connection
// is success.
func connectError(err error) error {
	switch err {
	case unix.EINPROGRESS, unix.EAGAIN, unix.EALREADY:
		return wouldBlock("connect")
	case unix.ECONNREFUSED:
		return &api.Error{Code: api.CodeConnRefused, Op: "connect", Err: err}
	case unix.EISCONN:
		return nil
	}
	return osError("connect", err)
}

// bindError reports address-unavailable as the distinct retryable bind
// outcome; everything else is opaque.
func bindError(err error) error {
	if err == unix.EADDRNOTAVAIL {
		return &api.Error{Code: api.CodeBindFailed, Op: "bind", Err: err}
	}
	return osError("bind", err)
}
