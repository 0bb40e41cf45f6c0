// socket/data_windows.go
// License: Apache-2.0
//
// Byte transfer for Windows, including the WSARecvMsg ancillary receive.

//go:build windows

package socket

import (
	"net/netip"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/portabus/sockport/api"
	"github.com/portabus/sockport/control"
)

// Send writes buf to a connected handle; would-block leaves the count 0.
func Send(fd api.Fd, buf []byte) (int, error) {
	control.IncrementPerfCounter(control.PerfSend)
	n, err := rawSend(windows.Handle(fd), buf, 0)
	if err != nil {
		if isAgain(err) {
			return 0, wouldBlock("send")
		}
		return 0, osError("send", err)
	}
	return n, nil
}

// Recv reads up to len(buf) bytes from a connected handle.
func Recv(fd api.Fd, buf []byte) (int, error) {
	control.IncrementPerfCounter(control.PerfRecv)
	n, err := rawRecv(windows.Handle(fd), buf, 0)
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
		native = windows.MSG_DONTROUTE
	}
	if err := windows.Sendto(windows.Handle(fd), buf, native, sa); err != nil {
		if isAgain(err) {
			return 0, wouldBlock("sendto")
		}
		return 0, osError("sendto", err)
	}
	return len(buf), nil
}

// RecvFrom reads a datagram and reports its source endpoint.
func RecvFrom(fd api.Fd, buf []byte) (int, api.Endpoint, error) {
	control.IncrementPerfCounter(control.PerfRecvFrom)
	n, sa, err := windows.Recvfrom(windows.Handle(fd), buf, 0)
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

// Control-message header as laid out by Winsock; records are aligned to
// pointer size.
type wsaCmsghdr struct {
	Len   uintptr
	Level int32
	Type  int32
}

type inPktinfo struct {
	Addr    [4]byte
	Ifindex uint32
}

type in6Pktinfo struct {
	Addr    [16]byte
	Ifindex uint32
}

const cmsgHdrLen = unsafe.Sizeof(wsaCmsghdr{})

func cmsgAlign(n uintptr) uintptr {
	align := unsafe.Sizeof(uintptr(0))
	return (n + align - 1) &^ (align - 1)
}

const ancillarySpace = 1024

// RecvWithAncillaryData reads one datagram together with its per-packet
// interface metadata through the WSARecvMsg extension. The bound address
// is resolved first to know which family's record to look for; records of
// any other kind are ignored, and an absent record is partial success.
func RecvWithAncillaryData(fd api.Fd, buf []byte) (api.AncillaryInfo, error) {
	control.IncrementPerfCounter(control.PerfRecvAncillary)
	info := api.AncillaryInfo{IfIndex: -1}

	local, err := GetLocalAddress(fd)
	if err != nil {
		return info, err
	}
	family := local.Family()
	if family != api.AFInet && family != api.AFInet6 {
		return info, osError("recvmsg", windows.WSAEAFNOSUPPORT)
	}

	var src syscall.RawSockaddrAny
	cbuf := make([]byte, ancillarySpace)
	iov := windows.WSABuf{Len: uint32(len(buf))}
	if len(buf) > 0 {
		iov.Buf = &buf[0]
	}
	msg := windows.WSAMsg{
		Name:        &src,
		Namelen:     int32(unsafe.Sizeof(src)),
		Buffers:     &iov,
		BufferCount: 1,
		Control:     windows.WSABuf{Len: uint32(len(cbuf)), Buf: &cbuf[0]},
	}

	var recvd uint32
	if err := wsaRecvMsg(windows.Handle(fd), &msg, &recvd); err != nil {
		return info, osError("recvmsg", err)
	}
	info.N = int(recvd)

	ctrl := cbuf[:msg.Control.Len]
	for off := uintptr(0); off+cmsgHdrLen <= uintptr(len(ctrl)); {
		h := (*wsaCmsghdr)(unsafe.Pointer(&ctrl[off]))
		if h.Len < cmsgHdrLen || off+h.Len > uintptr(len(ctrl)) {
			break
		}
		data := ctrl[off+cmsgAlign(cmsgHdrLen) : off+h.Len]
		switch {
		case family == api.AFInet && h.Level == windows.IPPROTO_IP && h.Type == ipPktinfo &&
			len(data) >= int(unsafe.Sizeof(inPktinfo{})):
			pi := (*inPktinfo)(unsafe.Pointer(&data[0]))
			info.IfIndex = int32(pi.Ifindex)
			dst := api.Endpoint{Addr: netip.AddrFrom4(pi.Addr), Port: local.Port}
			info.Local = &dst
			if remote, err := src.Sockaddr(); err == nil {
				if ep, err := fromSockaddr(remote); err == nil {
					info.Remote = &ep
				}
			}
			return info, nil

		case family == api.AFInet6 && h.Level == windows.IPPROTO_IPV6 && h.Type == ipv6Pktinfo &&
			len(data) >= int(unsafe.Sizeof(in6Pktinfo{})):
			pi := (*in6Pktinfo)(unsafe.Pointer(&data[0]))
			info.IfIndex = int32(pi.Ifindex)
			dst := api.Endpoint{Addr: netip.AddrFrom16(pi.Addr), Port: local.Port}
			info.Local = &dst
			if remote, err := src.Sockaddr(); err == nil {
				if ep, err := fromSockaddr(remote); err == nil {
					info.Remote = &ep
				}
			}
			return info, nil
		}
		off += cmsgAlign(h.Len)
	}
	return info, nil
}
