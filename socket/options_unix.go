// socket/options_unix.go
// License: Apache-2.0
//
// Socket option surface. Every entry point returns the portable outcome;
// the multicast and ancillary-data operations additionally assert
// programmer-error preconditions, since they are internal-only call sites
// never exposed to untrusted input.

//go:build linux

package socket

import (
	"net"
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/portabus/sockport/api"
)

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SetSndBuf requests a send buffer of bufSize bytes. The kernel may round
// the effective size, but a larger request never yields a smaller
// effective size than a previously accepted smaller one.
func SetSndBuf(fd api.Fd, bufSize int) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, bufSize); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// GetSndBuf reports the effective send buffer size.
func GetSndBuf(fd api.Fd) (int, error) {
	v, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF)
	if err != nil {
		return 0, osError("getsockopt", err)
	}
	return v, nil
}

// SetRcvBuf requests a receive buffer of bufSize bytes.
func SetRcvBuf(fd api.Fd, bufSize int) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, bufSize); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// GetRcvBuf reports the effective receive buffer size.
func GetRcvBuf(fd api.Fd) (int, error) {
	v, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF)
	if err != nil {
		return 0, osError("getsockopt", err)
	}
	return v, nil
}

// SetLinger controls whether Close waits up to seconds for unsent data.
func SetLinger(fd api.Fd, onoff bool, seconds int) error {
	l := unix.Linger{Onoff: int32(boolToInt(onoff)), Linger: int32(seconds)}
	if err := unix.SetsockoptLinger(int(fd), unix.SOL_SOCKET, unix.SO_LINGER, &l); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// SetNagle enables or disables send coalescing.
func SetNagle(fd api.Fd, useNagle bool) error {
	nodelay := boolToInt(!useNagle)
	if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, nodelay); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// GetNagle reports whether send coalescing is enabled.
func GetNagle(fd api.Fd) (bool, error) {
	v, err := unix.GetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY)
	if err != nil {
		return false, osError("getsockopt", err)
	}
	return v == 0, nil
}

// SetReuseAddress guards the bound port against being taken over. On
// posix systems classic SO_REUSEADDR already has exclusive-bind
// semantics against foreign users; Windows needs a separate facility.
func SetReuseAddress(fd api.Fd, reuse bool) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, boolToInt(reuse)); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// SetReusePort permits rebinding the port while it is in use.
func SetReusePort(fd api.Fd, reuse bool) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, boolToInt(reuse)); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// SetBroadcast permits sending to broadcast addresses.
func SetBroadcast(fd api.Fd, broadcast bool) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, boolToInt(broadcast)); err != nil {
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
		return netip.Addr{}, osError(op, unix.EAFNOSUPPORT)
	}
	return addr, nil
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
		// Memberships bind the group to an interface; the index form is
		// the reliable way to name the interface.
		mreq := unix.IPMreqn{Ifindex: int32(ifi.Index)}
		mreq.Multiaddr = addr.Unmap().As4()
		opt := unix.IP_ADD_MEMBERSHIP
		if op == groupLeave {
			opt = unix.IP_DROP_MEMBERSHIP
		}
		if err := unix.SetsockoptIPMreqn(int(fd), unix.IPPROTO_IP, opt, &mreq); err != nil {
			return osError("setsockopt", err)
		}
		return nil
	}

	mreq := unix.IPv6Mreq{Interface: uint32(ifi.Index)}
	mreq.Multiaddr = addr.As16()
	opt := unix.IPV6_JOIN_GROUP
	if op == groupLeave {
		opt = unix.IPV6_LEAVE_GROUP
	}
	if err := unix.SetsockoptIPv6Mreq(int(fd), unix.IPPROTO_IPV6, opt, &mreq); err != nil {
		return osError("setsockopt", err)
	}
	return nil
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
		mreq := unix.IPMreqn{Ifindex: int32(ifi.Index)}
		if err := unix.SetsockoptIPMreqn(int(fd), unix.IPPROTO_IP, unix.IP_MULTICAST_IF, &mreq); err != nil {
			return osError("setsockopt", err)
		}
		return nil
	}
	if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_MULTICAST_IF, ifi.Index); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// SetMulticastHops bounds how far multicast sends propagate: the TTL for
// v4, the hop count for v6.
func SetMulticastHops(fd api.Fd, family api.AddressFamily, hops uint32) error {
	assertOptionArgs("multicast_hops", fd, family)
	if family == api.AFInet {
		if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_MULTICAST_TTL, int(hops)); err != nil {
			return osError("setsockopt", err)
		}
		return nil
	}
	if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_MULTICAST_HOPS, int(hops)); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// SetRecvPktAncillaryData enables delivery of per-packet interface
// metadata, feeding RecvWithAncillaryData.
func SetRecvPktAncillaryData(fd api.Fd, family api.AddressFamily, recv bool) error {
	assertOptionArgs("pktinfo", fd, family)
	if family == api.AFInet {
		if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_PKTINFO, boolToInt(recv)); err != nil {
			return osError("setsockopt", err)
		}
		return nil
	}
	if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_RECVPKTINFO, boolToInt(recv)); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

// SetRecvIPv6Only restricts a v6 socket to v6 traffic.
func SetRecvIPv6Only(fd api.Fd, v6only bool) error {
	if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, boolToInt(v6only)); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}
