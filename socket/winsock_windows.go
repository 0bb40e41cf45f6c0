// socket/winsock_windows.go
// License: Apache-2.0
//
// Winsock plumbing: one-time startup, the handful of ws2_32 entry points
// the x/sys/windows package does not wrap, and the WSARecvMsg extension
// function pointer, resolved once under sync.Once.

//go:build windows

package socket

import (
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	msgOOB          = 0x1
	fionbio         = 0x8004667e
	siocAtMark      = 0x40047307
	sioGetExtension = 0xc8000006 // SIO_GET_EXTENSION_FUNCTION_POINTER

	ipPktinfo      = 19 // IP_PKTINFO
	ipv6Pktinfo    = 19 // IPV6_PKTINFO
	ipMulticastIf  = 9  // IP_MULTICAST_IF
	ipMulticastTTL = 10 // IP_MULTICAST_TTL
	ipv6McastIf    = 9  // IPV6_MULTICAST_IF
	ipv6McastHops  = 10 // IPV6_MULTICAST_HOPS

	// SO_EXCLUSIVEADDRUSE is defined as the complement of SO_REUSEADDR.
	soExclusiveAddrUse = ^windows.SO_REUSEADDR

	socketError = -1
)

var (
	ws2_32         = windows.NewLazySystemDLL("ws2_32.dll")
	procAccept     = ws2_32.NewProc("accept")
	procRecv       = ws2_32.NewProc("recv")
	procSend       = ws2_32.NewProc("send")
	procIoctl      = ws2_32.NewProc("ioctlsocket")
	procDuplicate  = ws2_32.NewProc("WSADuplicateSocketW")
	wsaStartupOnce sync.Once
)

// winsockCheck performs one-time Winsock startup. Failures surface on the
// first native call instead.
func winsockCheck() {
	wsaStartupOnce.Do(func() {
		var data windows.WSAData
		_ = windows.WSAStartup(uint32(0x202), &data)
	})
}

func rawAccept(s windows.Handle) (windows.Handle, syscall.Sockaddr, error) {
	winsockCheck()
	var rsa syscall.RawSockaddrAny
	rsaLen := int32(unsafe.Sizeof(rsa))
	h, _, _ := procAccept.Call(uintptr(s), uintptr(unsafe.Pointer(&rsa)), uintptr(unsafe.Pointer(&rsaLen)))
	if windows.Handle(h) == windows.InvalidHandle {
		return windows.InvalidHandle, nil, windows.WSAGetLastError()
	}
	sa, _ := rsa.Sockaddr()
	return windows.Handle(h), sa, nil
}

func rawRecv(s windows.Handle, p []byte, flags int32) (int, error) {
	winsockCheck()
	var buf *byte
	if len(p) > 0 {
		buf = &p[0]
	}
	n, _, _ := procRecv.Call(uintptr(s), uintptr(unsafe.Pointer(buf)), uintptr(len(p)), uintptr(flags))
	if int32(n) == socketError {
		return 0, windows.WSAGetLastError()
	}
	return int(int32(n)), nil
}

func rawSend(s windows.Handle, p []byte, flags int32) (int, error) {
	winsockCheck()
	var buf *byte
	if len(p) > 0 {
		buf = &p[0]
	}
	n, _, _ := procSend.Call(uintptr(s), uintptr(unsafe.Pointer(buf)), uintptr(len(p)), uintptr(flags))
	if int32(n) == socketError {
		return 0, windows.WSAGetLastError()
	}
	return int(int32(n)), nil
}

func ioctlSocket(s windows.Handle, cmd uint32, arg *uint32) error {
	winsockCheck()
	r, _, _ := procIoctl.Call(uintptr(s), uintptr(cmd), uintptr(unsafe.Pointer(arg)))
	if int32(r) == socketError {
		return windows.WSAGetLastError()
	}
	return nil
}

func duplicateSocket(s windows.Handle, pid uint32, info *windows.WSAProtocolInfo) error {
	winsockCheck()
	r, _, _ := procDuplicate.Call(uintptr(s), uintptr(pid), uintptr(unsafe.Pointer(info)))
	if int32(r) == socketError {
		return windows.WSAGetLastError()
	}
	return nil
}

// WSARecvMsg is not exported by ws2_32; it is fetched through an ioctl as
// an extension function pointer.
var (
	recvMsgOnce sync.Once
	recvMsgPtr  uintptr
	recvMsgErr  error
)

var wsaidWSARecvMsg = windows.GUID{
	Data1: 0xf689d7c8,
	Data2: 0x6f1f,
	Data3: 0x436b,
	Data4: [8]byte{0x8a, 0x53, 0xe5, 0x4f, 0xe3, 0x51, 0xc3, 0x22},
}

func loadWSARecvMsg(s windows.Handle) (uintptr, error) {
	recvMsgOnce.Do(func() {
		var returned uint32
		recvMsgErr = windows.WSAIoctl(s, sioGetExtension,
			(*byte)(unsafe.Pointer(&wsaidWSARecvMsg)), uint32(unsafe.Sizeof(wsaidWSARecvMsg)),
			(*byte)(unsafe.Pointer(&recvMsgPtr)), uint32(unsafe.Sizeof(recvMsgPtr)),
			&returned, nil, 0)
	})
	return recvMsgPtr, recvMsgErr
}

func wsaRecvMsg(s windows.Handle, msg *windows.WSAMsg, recvd *uint32) error {
	fn, err := loadWSARecvMsg(s)
	if err != nil {
		return err
	}
	r, _, _ := syscall.SyscallN(fn,
		uintptr(s),
		uintptr(unsafe.Pointer(msg)),
		uintptr(unsafe.Pointer(recvd)),
		0, 0)
	if int32(r) == socketError {
		return windows.WSAGetLastError()
	}
	return nil
}
