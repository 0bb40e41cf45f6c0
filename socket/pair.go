// socket/pair.go
// License: Apache-2.0
//
// Loopback pair synthesis. No native local pair primitive is assumed
// available, so a connected stream pair is built from bind/listen/connect/
// accept on the loopback address.

package socket

import (
	"net/netip"

	"github.com/portabus/sockport/api"
)

var loopback4 = netip.AddrFrom4([4]byte{127, 0, 0, 1})

// Pair returns two mutually connected, blocking stream descriptors on the
// local host. On failure, descriptors already handed to the caller through
// the returned array are the caller's to close; the factory does not
// retroactively close them.
func Pair() ([2]api.Fd, error) {
	fds := [2]api.Fd{api.InvalidFd, api.InvalidFd}

	a, err := Open(api.AFInet, api.Stream)
	if err != nil {
		return fds, err
	}
	fds[0] = a

	b, err := Open(api.AFInet, api.Stream)
	if err != nil {
		Close(a)
		fds[0] = api.InvalidFd
		return fds, err
	}
	fds[1] = b

	if err := Bind(a, api.Endpoint{Addr: loopback4}, 0); err != nil {
		return fds, err
	}
	if err := Listen(a, 1); err != nil {
		return fds, err
	}

	// An ephemeral port was requested; read back the one we got.
	local, err := GetLocalAddress(a)
	if err != nil {
		return fds, err
	}

	if err := Connect(b, api.Endpoint{Addr: loopback4, Port: local.Port}); err != nil {
		return fds, err
	}

	// The connecting side is non-blocking after Connect, so the handshake
	// may still be settling when Accept first looks at the backlog.
	var conn api.Fd
	err = retryWouldBlock("accept", func() error {
		c, _, err := Accept(a)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return fds, err
	}
	// The listener's job is done; the accepted side replaces it.
	Close(a)
	fds[0] = conn

	if err := SetBlocking(fds[0], true); err != nil {
		return fds, err
	}
	if err := SetBlocking(fds[1], true); err != nil {
		return fds, err
	}
	return fds, nil
}
