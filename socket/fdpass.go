// socket/fdpass.go
// License: Apache-2.0
//
// Platform-independent pieces of the descriptor transfer protocol.

package socket

import (
	"errors"

	"github.com/portabus/sockport/api"
)

var (
	errForeignToken = errors.New("duplication token from a foreign platform")
	errHandleCount  = errors.New("descriptor count outside [1, max]")
	errPeerClosed   = errors.New("connection closed inside a token block")
)

// sendAll pushes the whole block through the non-blocking send, waiting
// out would-block under the transfer policy. Once any byte is on the wire
// the write is never rolled back: budget exhaustion mid-block
// desynchronizes the stream and is fatal for the connection.
func sendAll(fd api.Fd, p []byte, op string) error {
	off := 0
	return retryWouldBlock(op, func() error {
		for off < len(p) {
			n, err := Send(fd, p[off:])
			off += n
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// recvAll mirrors sendAll on the read side. A zero-byte read inside an
// incomplete block is stream EOF: the peer closed mid-token, the stream
// can never resynchronize, and the condition is permanent, not
// retryable.
func recvAll(fd api.Fd, p []byte, op string) error {
	off := 0
	return retryWouldBlock(op, func() error {
		for off < len(p) {
			n, err := Recv(fd, p[off:])
			off += n
			if err != nil {
				return err
			}
			if n == 0 {
				return &api.Error{Code: api.CodeOSError, Op: op, Err: errPeerClosed}
			}
		}
		return nil
	})
}

func closeAll(fds []api.Fd) {
	for _, fd := range fds {
		Close(fd)
	}
}
