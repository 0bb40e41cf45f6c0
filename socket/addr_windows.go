// socket/addr_windows.go
// License: Apache-2.0

//go:build windows

package socket

import (
	"net/netip"
	"syscall"

	"golang.org/x/sys/windows"

	"github.com/portabus/sockport/api"
)

func toSockaddr(ep api.Endpoint, scopeID uint32) (windows.Sockaddr, error) {
	switch ep.Family() {
	case api.AFInet:
		sa := &windows.SockaddrInet4{Port: int(ep.Port)}
		sa.Addr = ep.Addr.Unmap().As4()
		return sa, nil
	case api.AFInet6:
		sa := &windows.SockaddrInet6{Port: int(ep.Port), ZoneId: scopeID}
		sa.Addr = ep.Addr.As16()
		return sa, nil
	}
	return nil, api.BadArg("sockaddr", 1)
}

// fromSockaddr drops the v6 interface scope; scope is not load-bearing in
// this layer. On multi-homed hosts this can silently select the wrong
// interface for link-local traffic.
func fromSockaddr(sa interface{}) (api.Endpoint, error) {
	switch sa := sa.(type) {
	case *windows.SockaddrInet4:
		return api.Endpoint{Addr: netip.AddrFrom4(sa.Addr), Port: uint16(sa.Port)}, nil
	case *windows.SockaddrInet6:
		return api.Endpoint{Addr: netip.AddrFrom16(sa.Addr), Port: uint16(sa.Port)}, nil
	case *syscall.SockaddrInet4:
		return api.Endpoint{Addr: netip.AddrFrom4(sa.Addr), Port: uint16(sa.Port)}, nil
	case *syscall.SockaddrInet6:
		return api.Endpoint{Addr: netip.AddrFrom16(sa.Addr), Port: uint16(sa.Port)}, nil
	}
	return api.Endpoint{}, osError("sockaddr", windows.WSAEAFNOSUPPORT)
}

func nativeFamily(f api.AddressFamily) int {
	switch f {
	case api.AFInet:
		return windows.AF_INET
	case api.AFInet6:
		return windows.AF_INET6
	}
	return windows.AF_UNSPEC
}

func nativeType(t api.SocketType) int {
	if t == api.Datagram {
		return windows.SOCK_DGRAM
	}
	return windows.SOCK_STREAM
}
