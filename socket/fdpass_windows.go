// socket/fdpass_windows.go
// License: Apache-2.0
//
// Descriptor transfer for Windows: the out-of-band count byte followed
// by one WSAPROTOCOL_INFO duplication token per handle, each produced by
// WSADuplicateSocket against the receiving process and reconstructed
// there with WSASocket. The token block tags its platform of origin and
// a foreign tag is rejected.

//go:build windows

package socket

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/portabus/sockport/api"
	"github.com/portabus/sockport/control"
)

const (
	fdTokenTagWin   = 0x57494e53 // "WINS"
	protocolInfoLen = int(unsafe.Sizeof(windows.WSAProtocolInfo{}))
	fdTokenSize     = 4 + protocolInfoLen
)

func encodeFdToken(dst []byte, info *windows.WSAProtocolInfo) {
	binary.BigEndian.PutUint32(dst[0:4], fdTokenTagWin)
	src := (*[protocolInfoLen]byte)(unsafe.Pointer(info))
	copy(dst[4:], src[:])
}

func decodeFdToken(src []byte) (*windows.WSAProtocolInfo, error) {
	if binary.BigEndian.Uint32(src[0:4]) != fdTokenTagWin {
		return nil, &api.Error{Code: api.CodeNotImplemented, Op: "recvfds", Err: errForeignToken}
	}
	var info windows.WSAProtocolInfo
	dst := (*[protocolInfoLen]byte)(unsafe.Pointer(&info))
	copy(dst[:], src[4:])
	return &info, nil
}

// SendWithFds moves 1..MaxTransferFds open handles to the peer process
// along with a payload. pid names the receiving process; every handle is
// duplicated into that process before its token goes on the wire. The
// returned count covers the payload only.
func SendWithFds(fd api.Fd, buf []byte, fds []api.Fd, pid int) (int, error) {
	control.IncrementPerfCounter(control.PerfSendFds)
	if len(fds) == 0 || len(fds) > MaxTransferFds {
		return 0, api.BadArg("sendfds", 3)
	}

	// The handle count rides as out-of-band priority data.
	oob := []byte{byte(len(fds))}
	if _, err := rawSend(windows.Handle(fd), oob, msgOOB); err != nil {
		if isAgain(err) {
			return 0, wouldBlock("sendfds")
		}
		return 0, osError("sendfds", err)
	}

	block := make([]byte, fdTokenSize)
	for _, h := range fds {
		var info windows.WSAProtocolInfo
		if err := duplicateSocket(windows.Handle(h), uint32(pid), &info); err != nil {
			return 0, osError("sendfds", err)
		}
		encodeFdToken(block, &info)
		if err := sendAll(fd, block, "sendfds"); err != nil {
			return 0, err
		}
	}
	return Send(fd, buf)
}

// RecvWithFds mirrors SendWithFds: it reads the out-of-band count byte
// when priority data is pending, reconstructs that many handles from
// their in-band tokens, then performs the ordinary payload receive.
// maxFds caps how many handles the caller is prepared to accept; a
// received count of zero or beyond the cap is rejected before any token
// byte is consumed.
func RecvWithFds(fd api.Fd, buf []byte, maxFds int) (int, []api.Fd, error) {
	control.IncrementPerfCounter(control.PerfRecvFds)
	if maxFds <= 0 {
		return 0, nil, api.BadArg("recvfds", 3)
	}
	if maxFds > MaxTransferFds {
		maxFds = MaxTransferFds
	}

	// SIOCATMARK answers FALSE while out-of-band data is still queued
	// ahead of the read pointer, so a zero result means the count byte
	// is waiting.
	var marked uint32
	if err := ioctlSocket(windows.Handle(fd), siocAtMark, &marked); err != nil {
		return 0, nil, osError("recvfds", err)
	}

	var fds []api.Fd
	if marked == 0 {
		var cnt [1]byte
		if _, err := rawRecv(windows.Handle(fd), cnt[:], msgOOB); err != nil {
			if isAgain(err) {
				return 0, nil, wouldBlock("recvfds")
			}
			return 0, nil, osError("recvfds", err)
		}
		count := int(cnt[0])
		if count == 0 || count > maxFds {
			return 0, nil, osError("recvfds", errHandleCount)
		}

		block := make([]byte, fdTokenSize)
		for i := 0; i < count; i++ {
			if err := recvAll(fd, block, "recvfds"); err != nil {
				closeAll(fds)
				return 0, nil, err
			}
			info, err := decodeFdToken(block)
			if err != nil {
				closeAll(fds)
				return 0, nil, err
			}
			h, err := windows.WSASocket(info.AddressFamily, info.SocketType, info.Protocol,
				info, 0, windows.WSA_FLAG_OVERLAPPED)
			if err != nil {
				closeAll(fds)
				return 0, nil, osError("recvfds", err)
			}
			fds = append(fds, api.Fd(h))
		}
	}

	n, err := Recv(fd, buf)
	return n, fds, err
}
