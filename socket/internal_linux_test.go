// socket/internal_linux_test.go
// License: Apache-2.0

//go:build linux

package socket

import (
	"errors"
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/portabus/sockport/api"
)

func TestSockaddrRoundTrip(t *testing.T) {
	eps := []api.Endpoint{
		{Addr: netip.MustParseAddr("127.0.0.1"), Port: 80},
		{Addr: netip.MustParseAddr("192.0.2.17"), Port: 65535},
		{Addr: netip.MustParseAddr("::1"), Port: 1},
		{Addr: netip.MustParseAddr("2001:db8::dead:beef"), Port: 4242},
	}
	for _, ep := range eps {
		sa, err := toSockaddr(ep, 0)
		require.NoError(t, err, ep.String())
		got, err := fromSockaddr(sa)
		require.NoError(t, err, ep.String())
		require.Equal(t, ep, got)
	}
}

func TestSockaddrRejectsUnspec(t *testing.T) {
	_, err := toSockaddr(api.Endpoint{}, 0)
	require.Equal(t, api.CodeBadArgument, api.CodeOf(err))
}

func TestFdTokenRoundTrip(t *testing.T) {
	block := make([]byte, fdTokenSize)
	encodeFdToken(block, api.Fd(42))

	pid, fd, err := decodeFdToken(block)
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), pid)
	require.Equal(t, 42, fd)
}

func TestFdTokenForeignTag(t *testing.T) {
	block := make([]byte, fdTokenSize)
	encodeFdToken(block, api.Fd(3))
	block[0] ^= 0xff

	_, _, err := decodeFdToken(block)
	require.True(t, api.IsNotImplemented(err))
}

func TestRecvWithFdsPeerClosedMidToken(t *testing.T) {
	fds, err := Pair()
	require.NoError(t, err)
	defer Close(fds[1])

	// A count byte announcing one descriptor, but only half of its token
	// before the sender goes away.
	require.NoError(t, unix.Sendto(int(fds[0]), []byte{1}, unix.MSG_OOB, nil))
	_, err = Send(fds[0], make([]byte, fdTokenSize/2))
	require.NoError(t, err)
	Close(fds[0])

	time.Sleep(200 * time.Millisecond)

	done := make(chan struct{})
	var got []api.Fd
	go func() {
		defer close(done)
		_, got, err = RecvWithFds(fds[1], make([]byte, 8), 4)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RecvWithFds did not return after the peer closed mid-token")
	}
	require.Equal(t, api.CodeOSError, api.CodeOf(err))
	require.ErrorIs(t, err, errPeerClosed)
	require.Empty(t, got)
}

func TestRetryWouldBlockTimeout(t *testing.T) {
	old := CurrentTransferPolicy()
	defer SetTransferPolicy(old)
	SetTransferPolicy(TransferPolicy{Attempts: 3, Delay: time.Microsecond})

	calls := 0
	err := retryWouldBlock("recvfds", func() error {
		calls++
		return wouldBlock("recvfds")
	})
	require.True(t, api.IsTimeout(err))
	require.Equal(t, 3, calls)
}

func TestRetryWouldBlockPermanent(t *testing.T) {
	old := CurrentTransferPolicy()
	defer SetTransferPolicy(old)
	SetTransferPolicy(TransferPolicy{Attempts: 5, Delay: time.Microsecond})

	boom := errors.New("native failure")
	calls := 0
	err := retryWouldBlock("sendfds", func() error {
		calls++
		return osError("sendfds", boom)
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestRetryWouldBlockEventualSuccess(t *testing.T) {
	old := CurrentTransferPolicy()
	defer SetTransferPolicy(old)
	SetTransferPolicy(TransferPolicy{Attempts: 10, Delay: time.Microsecond})

	calls := 0
	err := retryWouldBlock("sendfds", func() error {
		calls++
		if calls < 3 {
			return wouldBlock("sendfds")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}
