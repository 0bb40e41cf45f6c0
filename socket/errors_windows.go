// socket/errors_windows.go
// License: Apache-2.0
//
// Winsock error translation, interpreted per calling context.

//go:build windows

package socket

import (
	"golang.org/x/sys/windows"

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

func isAgain(err error) bool {
	return err == windows.WSAEWOULDBLOCK
}

func connectError(err error) error {
	switch err {
	case windows.WSAEWOULDBLOCK, windows.WSAEALREADY:
		return wouldBlock("connect")
	case windows.WSAECONNREFUSED:
		return &api.Error{Code: api.CodeConnRefused, Op: "connect", Err: err}
	case windows.WSAEISCONN:
		return nil
	}
	return osError("connect", err)
}

func bindError(err error) error {
	if err == windows.WSAEADDRNOTAVAIL {
		return &api.Error{Code: api.CodeBindFailed, Op: "bind", Err: err}
	}
	return osError("bind", err)
}
