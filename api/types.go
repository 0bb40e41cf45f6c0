// api/types.go
// License: Apache-2.0
//
// Portable value types shared by every package: socket descriptors,
// address families and the endpoint representation used across the
// socket layer.

package api

import "net/netip"

// Fd is an opaque OS socket descriptor. On unix platforms it holds a file
// descriptor, on Windows a SOCKET handle. A descriptor is valid only
// between Open/Accept/Duplicate and Close.
type Fd uintptr

// InvalidFd is the sentinel for an absent or failed descriptor.
const InvalidFd = ^Fd(0)

// Valid reports whether fd is not the invalid sentinel.
func (fd Fd) Valid() bool { return fd != InvalidFd }

// AddressFamily selects the protocol family of a socket. The family of a
// descriptor is fixed at creation; every address operation on it must use
// the same family.
type AddressFamily int

const (
	AFUnspec AddressFamily = iota
	AFInet
	AFInet6
	// AFUnix is declared for completeness; path-name sockets are not
	// implemented by this layer and Open rejects the family up front.
	AFUnix
)

func (f AddressFamily) String() string {
	switch f {
	case AFInet:
		return "inet"
	case AFInet6:
		return "inet6"
	case AFUnix:
		return "unix"
	}
	return "unspec"
}

// SocketType selects stream or datagram semantics.
type SocketType int

const (
	Stream SocketType = iota
	Datagram
)

// ShutdownHow selects which direction of a connection to shut down.
type ShutdownHow int

const (
	ShutNone ShutdownHow = iota
	ShutRead
	ShutWrite
	ShutBoth
)

// Endpoint is an immutable network address and port. The optional
// interface-scope id travels as a separate argument where an operation
// needs one, matching the native calling convention.
type Endpoint struct {
	Addr netip.Addr
	Port uint16
}

// Family derives the address family from the endpoint's address.
func (e Endpoint) Family() AddressFamily {
	switch {
	case e.Addr.Is4() || e.Addr.Is4In6():
		return AFInet
	case e.Addr.Is6():
		return AFInet6
	}
	return AFUnspec
}

// IsValid reports whether the endpoint carries a usable address.
func (e Endpoint) IsValid() bool { return e.Addr.IsValid() }

func (e Endpoint) String() string {
	return netip.AddrPortFrom(e.Addr, e.Port).String()
}

// AncillaryInfo is the per-packet metadata produced by the ancillary
// receive path. Remote and Local stay nil and IfIndex stays at -1 when the
// OS delivered no matching interface-info record with the datagram; that
// is a partial success, not a failure.
type AncillaryInfo struct {
	// N is the payload length received.
	N int
	// Remote is the datagram's source endpoint, if known.
	Remote *Endpoint
	// Local is the destination endpoint the datagram was actually
	// delivered to, which on a wildcard-bound socket differs from the
	// bound address.
	Local *Endpoint
	// IfIndex is the receiving interface index, -1 if absent.
	IfIndex int32
}
