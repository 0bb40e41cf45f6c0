// socket/data_unix.go
// License: Apache-2.0
//
// Byte transfer through the non-blocking primitives, including the
// ancillary-metadata receive path.

//go:build linux

package socket

import (
	"net/netip"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/portabus/sockport/api"
	"github.com/portabus/sockport/control"
)

// Send writes buf to a connected descriptor. Would-block leaves the sent
// count at 0 for the caller to retry; any other native failure is opaque.
func Send(fd api.Fd, buf []byte) (int, error) {
	control.IncrementPerfCounter(control.PerfSend)
	n, err := unix.Write(int(fd), buf)
	if err != nil {
		if isAgain(err) {
			return 0, wouldBlock("send")
		}
		return 0, osError("send", err)
	}
	return n, nil
}

// Recv reads up to len(buf) bytes from a connected descriptor.
func Recv(fd api.Fd, buf []byte) (int, error) {
	control.IncrementPerfCounter(control.PerfRecv)
	n, err := unix.Read(int(fd), buf)
	if err != nil {
		if isAgain(err) {
			return 0, wouldBlock("recv")
		}
		return 0, osError("recv", err)
	}
	return n, nil
}

// SendTo writes a datagram to the remote endpoint.
func SendTo(fd api.Fd, remote api.Endpoint, scopeID uint32, buf []byte, flags SendFlags) (int, error) {
	control.IncrementPerfCounter(control.PerfSendTo)
	sa, err := toSockaddr(remote, scopeID)
	if err != nil {
		return 0, err
	}
	native := 0
	if flags == MsgDontRoute {
		native = unix.MSG_DONTROUTE
	}
	if err := unix.Sendto(int(fd), buf, native, sa); err != nil {
		if isAgain(err) {
			return 0, wouldBlock("sendto")
		}
		return 0, osError("sendto", err)
	}
	// A datagram send is all or nothing.
	return len(buf), nil
}

// RecvFrom reads a datagram and reports its source endpoint.
func RecvFrom(fd api.Fd, buf []byte) (int, api.Endpoint, error) {
	control.IncrementPerfCounter(control.PerfRecvFrom)
	n, sa, err := unix.Recvfrom(int(fd), buf, 0)
	if err != nil {
		if isAgain(err) {
			return 0, api.Endpoint{}, wouldBlock("recvfrom")
		}
		return 0, api.Endpoint{}, osError("recvfrom", err)
	}
	remote, err := fromSockaddr(sa)
	if err != nil {
		return n, api.Endpoint{}, err
	}
	return n, remote, nil
}

// ancillarySpace is the control buffer handed to recvmsg; generous enough
// for the pktinfo record plus whatever unrelated records the OS attaches.
const ancillarySpace = 1024

// RecvWithAncillaryData reads one datagram together with its per-packet
// interface metadata. The socket's own bound address is resolved first to
// know which family's record to look for; a socket with an unknown local
// family cannot be served. Exactly the record matching that family is
// recognized and unrelated record kinds are ignored. When no matching
// record arrives the endpoints stay nil and the interface index stays at
// -1 — partial success, not failure. Requires the ancillary-data option
// (SetRecvPktAncillaryData) to have been enabled on fd.
func RecvWithAncillaryData(fd api.Fd, buf []byte) (api.AncillaryInfo, error) {
	control.IncrementPerfCounter(control.PerfRecvAncillary)
	info := api.AncillaryInfo{IfIndex: -1}

	local, err := GetLocalAddress(fd)
	if err != nil {
		return info, err
	}
	family := local.Family()
	if family != api.AFInet && family != api.AFInet6 {
		return info, osError("recvmsg", unix.EAFNOSUPPORT)
	}

	oob := make([]byte, ancillarySpace)
	n, oobn, _, from, err := unix.Recvmsg(int(fd), buf, oob, 0)
	if err != nil {
		return info, osError("recvmsg", err)
	}
	info.N = n

	msgs, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		// Undecodable control data is treated like an absent record.
		return info, nil
	}
	for _, m := range msgs {
		switch {
		case family == api.AFInet &&
			m.Header.Level == unix.IPPROTO_IP && m.Header.Type == unix.IP_PKTINFO &&
			len(m.Data) >= unix.SizeofInet4Pktinfo:
			pi := (*unix.Inet4Pktinfo)(unsafe.Pointer(&m.Data[0]))
			info.IfIndex = pi.Ifindex
			dst := api.Endpoint{Addr: netip.AddrFrom4(pi.Addr), Port: local.Port}
			info.Local = &dst
			if remote, err := fromSockaddr(from); err == nil {
				info.Remote = &remote
			}
			return info, nil

		case family == api.AFInet6 &&
			m.Header.Level == unix.IPPROTO_IPV6 && m.Header.Type == unix.IPV6_PKTINFO &&
			len(m.Data) >= unix.SizeofInet6Pktinfo:
			pi := (*unix.Inet6Pktinfo)(unsafe.Pointer(&m.Data[0]))
			info.IfIndex = int32(pi.Ifindex)
			dst := api.Endpoint{Addr: netip.AddrFrom16(pi.Addr), Port: local.Port}
			info.Local = &dst
			if remote, err := fromSockaddr(from); err == nil {
				info.Remote = &remote
			}
			return info, nil
		}
	}
	return info, nil
}
