// socket/addr_unix.go
// License: Apache-2.0
//
// Bidirectional translation between portable endpoints and native socket
// address encodings. Translation is purely numeric; it never triggers
// name resolution.

//go:build linux

package socket

import (
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/portabus/sockport/api"
)

// toSockaddr encodes an endpoint into the native address structure for
// its family. The scope id is only meaningful for v6 endpoints.
func toSockaddr(ep api.Endpoint, scopeID uint32) (unix.Sockaddr, error) {
	switch ep.Family() {
	case api.AFInet:
		sa := &unix.SockaddrInet4{Port: int(ep.Port)}
		sa.Addr = ep.Addr.Unmap().As4()
		return sa, nil
	case api.AFInet6:
		sa := &unix.SockaddrInet6{Port: int(ep.Port), ZoneId: scopeID}
		sa.Addr = ep.Addr.As16()
		return sa, nil
	}
	return nil, api.BadArg("sockaddr", 1)
}

// fromSockaddr decodes a native address. The v6 interface scope is
// dropped: scope is not load-bearing elsewhere in this layer. On
// multi-homed hosts this can silently select the wrong interface for
// link-local traffic.
func fromSockaddr(sa unix.Sockaddr) (api.Endpoint, error) {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return api.Endpoint{Addr: netip.AddrFrom4(sa.Addr), Port: uint16(sa.Port)}, nil
	case *unix.SockaddrInet6:
		return api.Endpoint{Addr: netip.AddrFrom16(sa.Addr), Port: uint16(sa.Port)}, nil
	}
	return api.Endpoint{}, osError("sockaddr", unix.EAFNOSUPPORT)
}

func nativeFamily(f api.AddressFamily) int {
	switch f {
	case api.AFInet:
		return unix.AF_INET
	case api.AFInet6:
		return unix.AF_INET6
	}
	return unix.AF_UNSPEC
}

func nativeType(t api.SocketType) int {
	if t == api.Datagram {
		return unix.SOCK_DGRAM
	}
	return unix.SOCK_STREAM
}
