// socket/fdpass_unix.go
// License: Apache-2.0
//
// Descriptor transfer across a connected stream without SCM_RIGHTS: one
// out-of-band priority byte carries the descriptor count, then one
// fixed-size duplication token per descriptor travels in-band, then the
// application payload follows. Both ends must share the same platform
// ABI; the token block tags its platform of origin and a foreign tag is
// rejected.
//
// On Linux the token names the origin process and descriptor, and the
// receiver reconstructs a local descriptor through pidfd_getfd, the
// kernel facility with the same grant-to-target semantics as a native
// handle duplication.

//go:build linux

package socket

import (
	"encoding/binary"
	"os"

	"golang.org/x/sys/unix"

	"github.com/portabus/sockport/api"
	"github.com/portabus/sockport/control"
)

// Duplication-token block layout, fixed and known identically to both
// ends of the stream.
const (
	fdTokenSize     = 16
	fdTokenTagLinux = 0x4c4e5558 // "LNUX"
)

func encodeFdToken(dst []byte, fd api.Fd) {
	binary.BigEndian.PutUint32(dst[0:4], fdTokenTagLinux)
	binary.BigEndian.PutUint32(dst[4:8], uint32(os.Getpid()))
	binary.BigEndian.PutUint32(dst[8:12], uint32(fd))
	binary.BigEndian.PutUint32(dst[12:16], 0)
}

func decodeFdToken(src []byte) (pid, fd int, err error) {
	if binary.BigEndian.Uint32(src[0:4]) != fdTokenTagLinux {
		return 0, 0, &api.Error{Code: api.CodeNotImplemented, Op: "recvfds", Err: errForeignToken}
	}
	pid = int(binary.BigEndian.Uint32(src[4:8]))
	fd = int(binary.BigEndian.Uint32(src[8:12]))
	return pid, fd, nil
}

// openFdToken reconstructs a local descriptor from a decoded token.
func openFdToken(pid, fd int) (api.Fd, error) {
	if pid == os.Getpid() {
		nfd, err := unix.Dup(fd)
		if err != nil {
			return api.InvalidFd, osError("recvfds", err)
		}
		return api.Fd(nfd), nil
	}
	pidfd, err := unix.PidfdOpen(pid, 0)
	if err != nil {
		return api.InvalidFd, osError("recvfds", err)
	}
	defer unix.Close(pidfd)
	nfd, err := unix.PidfdGetfd(pidfd, fd, 0)
	if err != nil {
		return api.InvalidFd, osError("recvfds", err)
	}
	return api.Fd(nfd), nil
}

// SendWithFds moves 1..MaxTransferFds open descriptors to the peer
// process along with a payload. pid names the receiving process; the
// Linux token does not need it, but the signature is platform-stable.
// The sender must keep every transferred descriptor open until the
// receiver has reconstructed it: the token names the descriptor in the
// sender's table, and pidfd_getfd fails once it is closed. The returned
// count covers the payload only.
func SendWithFds(fd api.Fd, buf []byte, fds []api.Fd, pid int) (int, error) {
	control.IncrementPerfCounter(control.PerfSendFds)
	if len(fds) == 0 || len(fds) > MaxTransferFds {
		return 0, api.BadArg("sendfds", 3)
	}
	_ = pid

	// The descriptor count rides as out-of-band priority data.
	oob := []byte{byte(len(fds))}
	if err := unix.Sendto(int(fd), oob, unix.MSG_OOB, nil); err != nil {
		if isAgain(err) {
			return 0, wouldBlock("sendfds")
		}
		return 0, osError("sendfds", err)
	}

	block := make([]byte, fdTokenSize)
	for _, h := range fds {
		encodeFdToken(block, h)
		if err := sendAll(fd, block, "sendfds"); err != nil {
			return 0, err
		}
	}
	return Send(fd, buf)
}

// RecvWithFds mirrors SendWithFds: it reads the out-of-band count byte if
// the stream is at the priority mark, reconstructs that many descriptors
// from their in-band tokens, then performs the ordinary payload receive.
// maxFds caps how many descriptors the caller is prepared to accept; a
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

	atMark, err := unix.IoctlGetInt(int(fd), unix.SIOCATMARK)
	if err != nil {
		return 0, nil, osError("recvfds", err)
	}

	var fds []api.Fd
	if atMark != 0 {
		var cnt [1]byte
		if _, _, err := unix.Recvfrom(int(fd), cnt[:], unix.MSG_OOB); err != nil {
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
			pid, rfd, err := decodeFdToken(block)
			if err != nil {
				closeAll(fds)
				return 0, nil, err
			}
			nfd, err := openFdToken(pid, rfd)
			if err != nil {
				closeAll(fds)
				return 0, nil, err
			}
			fds = append(fds, nfd)
		}
	}

	n, err := Recv(fd, buf)
	return n, fds, err
}
