// socket/sock_windows.go
// License: Apache-2.0
//
// Core descriptor lifecycle operations for Windows.

//go:build windows

package socket

import (
	"golang.org/x/sys/windows"

	"github.com/portabus/sockport/api"
	"github.com/portabus/sockport/control"
)

// MaxListenBacklog is the largest backlog Listen will pass through.
const MaxListenBacklog = windows.SOMAXCONN

// Open creates a socket of the given family and type. Path-name sockets
// have no support on this layer; the family is rejected with no native
// call.
func Open(family api.AddressFamily, typ api.SocketType) (api.Fd, error) {
	if family != api.AFInet && family != api.AFInet6 {
		return api.InvalidFd, notImplemented("socket")
	}
	winsockCheck()
	h, err := windows.WSASocket(int32(nativeFamily(family)), int32(nativeType(typ)), 0,
		nil, 0, windows.WSA_FLAG_OVERLAPPED)
	if err != nil {
		return api.InvalidFd, osError("socket", err)
	}
	return api.Fd(h), nil
}

// Connect attaches fd to the remote endpoint and switches it to
// non-blocking mode on success, regardless of its prior mode.
func Connect(fd api.Fd, remote api.Endpoint) error {
	sa, err := toSockaddr(remote, 0)
	if err != nil {
		return err
	}
	if err := windows.Connect(windows.Handle(fd), sa); err != nil {
		return connectError(err)
	}
	mode := uint32(1)
	if err := ioctlSocket(windows.Handle(fd), fionbio, &mode); err != nil {
		return osError("connect", err)
	}
	return nil
}

// Bind attaches fd to the local endpoint; address-not-available is the
// distinct retryable bind outcome.
func Bind(fd api.Fd, local api.Endpoint, scopeID uint32) error {
	sa, err := toSockaddr(local, scopeID)
	if err != nil {
		return err
	}
	if err := windows.Bind(windows.Handle(fd), sa); err != nil {
		return bindError(err)
	}
	return nil
}

// Listen marks fd as a passive socket.
func Listen(fd api.Fd, backlog int) error {
	if err := windows.Listen(windows.Handle(fd), backlog); err != nil {
		return osError("listen", err)
	}
	return nil
}

// Accept takes the next connection off fd's backlog, forcing the new
// handle non-blocking; if that fails the handle is closed, never leaked.
func Accept(fd api.Fd) (api.Fd, api.Endpoint, error) {
	h, sa, err := rawAccept(windows.Handle(fd))
	if err != nil {
		if isAgain(err) {
			return api.InvalidFd, api.Endpoint{}, wouldBlock("accept")
		}
		return api.InvalidFd, api.Endpoint{}, osError("accept", err)
	}
	remote, _ := fromSockaddr(sa)
	mode := uint32(1)
	if err := ioctlSocket(h, fionbio, &mode); err != nil {
		_ = windows.Closesocket(h)
		return api.InvalidFd, api.Endpoint{}, osError("accept", err)
	}
	return api.Fd(h), remote, nil
}

// Shutdown closes one or both directions of the connection.
func Shutdown(fd api.Fd, how api.ShutdownHow) error {
	var native int
	switch how {
	case api.ShutNone:
		return nil
	case api.ShutRead:
		native = windows.SHUT_RD
	case api.ShutWrite:
		native = windows.SHUT_WR
	case api.ShutBoth:
		native = windows.SHUT_RDWR
	default:
		return api.BadArg("shutdown", 2)
	}
	if err := windows.Shutdown(windows.Handle(fd), native); err != nil {
		return osError("shutdown", err)
	}
	return nil
}

// Close releases fd; a failure is logged, never raised.
func Close(fd api.Fd) {
	if err := windows.Closesocket(windows.Handle(fd)); err != nil {
		control.Errorf("close(fd=%d): %v", fd, err)
	}
}

// Duplicate produces a new handle to the same socket through the native
// duplication facility.
func Duplicate(fd api.Fd) (api.Fd, error) {
	var info windows.WSAProtocolInfo
	if err := duplicateSocket(windows.Handle(fd), uint32(windows.GetCurrentProcessId()), &info); err != nil {
		return api.InvalidFd, osError("dup", err)
	}
	h, err := windows.WSASocket(info.AddressFamily, info.SocketType, info.Protocol,
		&info, 0, windows.WSA_FLAG_OVERLAPPED)
	if err != nil {
		return api.InvalidFd, osError("dup", err)
	}
	return api.Fd(h), nil
}

// GetLocalAddress resolves the endpoint fd is bound to.
func GetLocalAddress(fd api.Fd) (api.Endpoint, error) {
	sa, err := windows.Getsockname(windows.Handle(fd))
	if err != nil {
		return api.Endpoint{}, osError("getsockname", err)
	}
	return fromSockaddr(sa)
}

// SetBlocking switches fd between blocking and non-blocking mode.
func SetBlocking(fd api.Fd, blocking bool) error {
	mode := uint32(1)
	if blocking {
		mode = 0
	}
	if err := ioctlSocket(windows.Handle(fd), fionbio, &mode); err != nil {
		return osError("setblocking", err)
	}
	return nil
}
