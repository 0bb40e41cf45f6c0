// socket/sock_unix.go
// License: Apache-2.0
//
// Core descriptor lifecycle operations for Linux.

//go:build linux

package socket

import (
	"golang.org/x/sys/unix"

	"github.com/portabus/sockport/api"
	"github.com/portabus/sockport/control"
)

// MaxListenBacklog is the largest backlog Listen will pass through.
const MaxListenBacklog = unix.SOMAXCONN

// Open creates a socket of the given family and type. Families without
// support on this layer are rejected up front, with no native call.
func Open(family api.AddressFamily, typ api.SocketType) (api.Fd, error) {
	if family != api.AFInet && family != api.AFInet6 {
		return api.InvalidFd, notImplemented("socket")
	}
	fd, err := unix.Socket(nativeFamily(family), nativeType(typ), 0)
	if err != nil {
		return api.InvalidFd, osError("socket", err)
	}
	return api.Fd(fd), nil
}

// Connect attaches fd to the remote endpoint. On success the descriptor
// is switched to non-blocking mode regardless of its prior mode. An
// in-progress or would-block condition is retryable; a connection that is
// already established is success.
func Connect(fd api.Fd, remote api.Endpoint) error {
	sa, err := toSockaddr(remote, 0)
	if err != nil {
		return err
	}
	if err := unix.Connect(int(fd), sa); err != nil {
		return connectError(err)
	}
	if err := unix.SetNonblock(int(fd), true); err != nil {
		return osError("connect", err)
	}
	return nil
}

// Bind attaches fd to the local endpoint. Address-not-available is
// reported as the distinct bind outcome so callers can retry with another
// address or port.
func Bind(fd api.Fd, local api.Endpoint, scopeID uint32) error {
	sa, err := toSockaddr(local, scopeID)
	if err != nil {
		return err
	}
	if err := unix.Bind(int(fd), sa); err != nil {
		return bindError(err)
	}
	return nil
}

// Listen marks fd as a passive socket.
func Listen(fd api.Fd, backlog int) error {
	if err := unix.Listen(int(fd), backlog); err != nil {
		return osError("listen", err)
	}
	return nil
}

// Accept takes the next connection off fd's backlog. An empty backlog on
// a non-blocking listener yields would-block with an invalid descriptor.
// The accepted descriptor is forced non-blocking before return; if that
// fails it is closed rather than leaked to the caller.
func Accept(fd api.Fd) (api.Fd, api.Endpoint, error) {
	nfd, sa, err := unix.Accept(int(fd))
	if err != nil {
		if isAgain(err) {
			return api.InvalidFd, api.Endpoint{}, wouldBlock("accept")
		}
		return api.InvalidFd, api.Endpoint{}, osError("accept", err)
	}
	// An unknown peer family leaves the endpoint zero, port 0.
	remote, _ := fromSockaddr(sa)
	if err := unix.SetNonblock(nfd, true); err != nil {
		_ = unix.Close(nfd)
		return api.InvalidFd, api.Endpoint{}, osError("accept", err)
	}
	return api.Fd(nfd), remote, nil
}

// Shutdown closes one or both directions of the connection.
func Shutdown(fd api.Fd, how api.ShutdownHow) error {
	var native int
	switch how {
	case api.ShutNone:
		return nil
	case api.ShutRead:
		native = unix.SHUT_RD
	case api.ShutWrite:
		native = unix.SHUT_WR
	case api.ShutBoth:
		native = unix.SHUT_RDWR
	default:
		return api.BadArg("shutdown", 2)
	}
	if err := unix.Shutdown(int(fd), native); err != nil {
		return osError("shutdown", err)
	}
	return nil
}

// Close releases fd. It must always be safely callable on a possibly
// broken descriptor: a failure is logged and never raised, since a
// teardown path has no meaningful recovery.
func Close(fd api.Fd) {
	if err := unix.Close(int(fd)); err != nil {
		control.Errorf("close(fd=%d): %v", fd, err)
	}
}

// Duplicate returns a new descriptor referring to the same underlying
// socket, usable by another owner.
func Duplicate(fd api.Fd) (api.Fd, error) {
	nfd, err := unix.Dup(int(fd))
	if err != nil {
		return api.InvalidFd, osError("dup", err)
	}
	return api.Fd(nfd), nil
}

// GetLocalAddress resolves the endpoint fd is bound to.
func GetLocalAddress(fd api.Fd) (api.Endpoint, error) {
	sa, err := unix.Getsockname(int(fd))
	if err != nil {
		return api.Endpoint{}, osError("getsockname", err)
	}
	return fromSockaddr(sa)
}

// SetBlocking switches fd between blocking and non-blocking mode.
func SetBlocking(fd api.Fd, blocking bool) error {
	if err := unix.SetNonblock(int(fd), !blocking); err != nil {
		return osError("setblocking", err)
	}
	return nil
}
