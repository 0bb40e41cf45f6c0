// socket/options_windows.go
// License: Apache-2.0
//
// Socket option surface for Windows. Mirrors the posix file, with the
// Winsock-specific twists: exclusive binding is its own option rather
// than a SO_REUSEADDR behavior, and interface indexes ride inside the
// in_addr field of the v4 membership structs in network byte order.

//go:build windows

package socket

import (
	"encoding/binary"
	"net"
	"net/netip"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/portabus/sockport/api"
)

const (
	ipAddMembership  = 12
	ipDropMembership = 13
	ipv6JoinGroup    = 12
	ipv6LeaveGroup   = 13
)

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SetSndBuf requests a send buffer of bufSize bytes. The stack may round
// the effective size, but a larger request never yields a smaller
// effective size than a previously accepted smaller one.
func SetSndBuf(fd api.Fd, bufSize int) error {
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_SNDBUF, bufSize); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// GetSndBuf reports the effective send buffer size.
func GetSndBuf(fd api.Fd) (int, error) {
	v, err := windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_SNDBUF)
	if err != nil {
		return 0, osError("getsockopt", err)
	}
	return v, nil
}

// SetRcvBuf requests a receive buffer of bufSize bytes.
func SetRcvBuf(fd api.Fd, bufSize int) error {
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_RCVBUF, bufSize); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// GetRcvBuf reports the effective receive buffer size.
func GetRcvBuf(fd api.Fd) (int, error) {
	v, err := windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_RCVBUF)
	if err != nil {
		return 0, osError("getsockopt", err)
	}
	return v, nil
}

// SetLinger controls whether Close waits up to seconds for unsent data.
func SetLinger(fd api.Fd, onoff bool, seconds int) error {
	l := windows.Linger{Onoff: int32(boolToInt(onoff)), Linger: int32(seconds)}
	if err := windows.SetsockoptLinger(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_LINGER, &l); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// SetNagle enables or disables send coalescing.
func SetNagle(fd api.Fd, useNagle bool) error {
	nodelay := boolToInt(!useNagle)
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_TCP, windows.TCP_NODELAY, nodelay); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// GetNagle reports whether send coalescing is enabled.
func GetNagle(fd api.Fd) (bool, error) {
	v, err := windows.GetsockoptInt(windows.Handle(fd), windows.IPPROTO_TCP, windows.TCP_NODELAY)
	if err != nil {
		return false, osError("getsockopt", err)
	}
	return v == 0, nil
}

// SetReuseAddress guards the bound port against being taken over.
// Winsock's SO_REUSEADDR permits hijacking a port bound by another
// process, so port protection maps to exclusive binding instead: reuse
// off means exclusive on.
func SetReuseAddress(fd api.Fd, reuse bool) error {
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, soExclusiveAddrUse, boolToInt(!reuse)); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// SetReusePort permits rebinding the port while it is in use; on Winsock
// that is what SO_REUSEADDR does.
func SetReusePort(fd api.Fd, reuse bool) error {
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, boolToInt(reuse)); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// SetBroadcast permits sending to broadcast addresses.
func SetBroadcast(fd api.Fd, broadcast bool) error {
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, boolToInt(broadcast)); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// assertOptionArgs guards the internal-only multicast and ancillary entry
// points against completely bogus parameters.
func assertOptionArgs(op string, fd api.Fd, family api.AddressFamily) {
	if !fd.Valid() {
		panic(op + ": invalid descriptor")
	}
	if family != api.AFInet && family != api.AFInet6 {
		panic(op + ": family must be inet or inet6")
	}
}

// parseGroup parses the textual multicast group for the given family.
func parseGroup(op, group string, family api.AddressFamily) (netip.Addr, error) {
	addr, err := netip.ParseAddr(group)
	if err != nil {
		return netip.Addr{}, osError(op, err)
	}
	if ep := (api.Endpoint{Addr: addr}); ep.Family() != family {
		return netip.Addr{}, osError(op, windows.WSAEAFNOSUPPORT)
	}
	return addr, nil
}

// ifaceAddr4 encodes an interface index the way the v4 membership
// options expect it: inside the in_addr field, network byte order.
func ifaceAddr4(index int) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(index))
	return b
}

func setsockoptRaw(fd api.Fd, level, opt int32, p unsafe.Pointer, n uintptr) error {
	if err := windows.Setsockopt(windows.Handle(fd), level, opt, (*byte)(p), int32(n)); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

type groupOp int

const (
	groupJoin groupOp = iota
	groupLeave
)

// There is no way to get the address family from an unbound socket, and
// it is not unreasonable to join a group before binding, so the caller
// provides the family explicitly.
func multicastGroupOp(fd api.Fd, family api.AddressFamily, group, iface string, op groupOp) error {
	assertOptionArgs("multicast", fd, family)
	if group == "" {
		panic("multicast: empty group")
	}
	if iface == "" {
		panic("multicast: empty interface")
	}

	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return osError("setsockopt", err)
	}
	addr, err := parseGroup("setsockopt", group, family)
	if err != nil {
		return err
	}

	if family == api.AFInet {
		mreq := windows.IPMreq{Interface: ifaceAddr4(ifi.Index)}
		mreq.Multiaddr = addr.Unmap().As4()
		opt := int32(ipAddMembership)
		if op == groupLeave {
			opt = ipDropMembership
		}
		return setsockoptRaw(fd, windows.IPPROTO_IP, opt, unsafe.Pointer(&mreq), unsafe.Sizeof(mreq))
	}

	mreq := windows.IPv6Mreq{Interface: uint32(ifi.Index)}
	mreq.Multiaddr = addr.As16()
	opt := int32(ipv6JoinGroup)
	if op == groupLeave {
		opt = ipv6LeaveGroup
	}
	return setsockoptRaw(fd, windows.IPPROTO_IPV6, opt, unsafe.Pointer(&mreq), unsafe.Sizeof(mreq))
}

// JoinMulticastGroup adds fd to the multicast group on the named
// interface.
func JoinMulticastGroup(fd api.Fd, family api.AddressFamily, group, iface string) error {
	return multicastGroupOp(fd, family, group, iface, groupJoin)
}

// LeaveMulticastGroup drops a membership added by JoinMulticastGroup.
// Leaving an already-left membership reports an opaque native failure.
func LeaveMulticastGroup(fd api.Fd, family api.AddressFamily, group, iface string) error {
	return multicastGroupOp(fd, family, group, iface, groupLeave)
}

// SetMulticastInterface selects the outgoing interface for multicast
// sends on fd.
func SetMulticastInterface(fd api.Fd, family api.AddressFamily, iface string) error {
	assertOptionArgs("multicast_if", fd, family)
	if iface == "" {
		panic("multicast_if: empty interface")
	}
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return osError("setsockopt", err)
	}
	if family == api.AFInet {
		addr := ifaceAddr4(ifi.Index)
		return setsockoptRaw(fd, windows.IPPROTO_IP, ipMulticastIf, unsafe.Pointer(&addr), unsafe.Sizeof(addr))
	}
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_IPV6, ipv6McastIf, ifi.Index); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// SetMulticastHops bounds how far multicast sends propagate: the TTL for
// v4, the hop count for v6.
func SetMulticastHops(fd api.Fd, family api.AddressFamily, hops uint32) error {
	assertOptionArgs("multicast_hops", fd, family)
	if family == api.AFInet {
		if err := windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_IP, ipMulticastTTL, int(hops)); err != nil {
			return osError("setsockopt", err)
		}
		return nil
	}
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_IPV6, ipv6McastHops, int(hops)); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// SetRecvPktAncillaryData enables delivery of per-packet interface
// metadata, feeding RecvWithAncillaryData.
func SetRecvPktAncillaryData(fd api.Fd, family api.AddressFamily, recv bool) error {
	assertOptionArgs("pktinfo", fd, family)
	if family == api.AFInet {
		if err := windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_IP, ipPktinfo, boolToInt(recv)); err != nil {
			return osError("setsockopt", err)
		}
		return nil
	}
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_IPV6, ipv6Pktinfo, boolToInt(recv)); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// SetRecvIPv6Only restricts a v6 socket to v6 traffic.
func SetRecvIPv6Only(fd api.Fd, v6only bool) error {
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_IPV6, windows.IPV6_V6ONLY, boolToInt(v6only)); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}
