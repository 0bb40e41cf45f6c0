// socket/socket_linux_test.go
// License: Apache-2.0
//
// Kernel-backed tests over the loopback interface.

//go:build linux

package socket_test

import (
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/portabus/sockport/api"
	"github.com/portabus/sockport/socket"
)

var loopback = netip.MustParseAddr("127.0.0.1")

func openUDP(t *testing.T) api.Fd {
	t.Helper()
	fd, err := socket.Open(api.AFInet, api.Datagram)
	require.NoError(t, err)
	t.Cleanup(func() { socket.Close(fd) })
	return fd
}

func openTCP(t *testing.T) api.Fd {
	t.Helper()
	fd, err := socket.Open(api.AFInet, api.Stream)
	require.NoError(t, err)
	t.Cleanup(func() { socket.Close(fd) })
	return fd
}

func TestOpenRejectsUnixFamily(t *testing.T) {
	fd, err := socket.Open(api.AFUnix, api.Stream)
	require.True(t, api.IsNotImplemented(err))
	require.Equal(t, api.InvalidFd, fd)
}

func TestPairRoundTrip(t *testing.T) {
	fds, err := socket.Pair()
	require.NoError(t, err)
	defer socket.Close(fds[0])
	defer socket.Close(fds[1])

	payload := []byte("ping over the pair")
	n, err := socket.Send(fds[0], payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	buf := make([]byte, 64)
	n, err = socket.Recv(fds[1], buf)
	require.NoError(t, err)
	require.Equal(t, payload, buf[:n])

	// The other direction works too.
	_, err = socket.Send(fds[1], []byte("pong"))
	require.NoError(t, err)
	n, err = socket.Recv(fds[0], buf)
	require.NoError(t, err)
	require.Equal(t, "pong", string(buf[:n]))
}

func TestAcceptEmptyBacklogWouldBlock(t *testing.T) {
	fd := openTCP(t)
	require.NoError(t, socket.Bind(fd, api.Endpoint{Addr: loopback}, 0))
	require.NoError(t, socket.Listen(fd, 1))
	require.NoError(t, socket.SetBlocking(fd, false))

	nfd, _, err := socket.Accept(fd)
	require.True(t, api.IsWouldBlock(err))
	require.Equal(t, api.InvalidFd, nfd)
}

func TestShutdownWriteSignalsEOF(t *testing.T) {
	fds, err := socket.Pair()
	require.NoError(t, err)
	defer socket.Close(fds[0])
	defer socket.Close(fds[1])

	require.NoError(t, socket.Shutdown(fds[0], api.ShutWrite))

	buf := make([]byte, 8)
	n, err := socket.Recv(fds[1], buf)
	require.NoError(t, err)
	require.Zero(t, n)

	// ShutNone is an argument-validation no-op.
	require.NoError(t, socket.Shutdown(fds[1], api.ShutNone))
}

func TestDuplicateSharesSocket(t *testing.T) {
	fds, err := socket.Pair()
	require.NoError(t, err)
	defer socket.Close(fds[0])
	defer socket.Close(fds[1])

	dup, err := socket.Duplicate(fds[0])
	require.NoError(t, err)
	defer socket.Close(dup)

	_, err = socket.Send(dup, []byte("via dup"))
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, err := socket.Recv(fds[1], buf)
	require.NoError(t, err)
	require.Equal(t, "via dup", string(buf[:n]))
}

func TestGetLocalAddress(t *testing.T) {
	fd := openTCP(t)
	require.NoError(t, socket.Bind(fd, api.Endpoint{Addr: loopback}, 0))

	local, err := socket.GetLocalAddress(fd)
	require.NoError(t, err)
	require.Equal(t, loopback, local.Addr)
	require.NotZero(t, local.Port)
}

func TestBindUnavailableAddress(t *testing.T) {
	fd := openTCP(t)
	err := socket.Bind(fd, api.Endpoint{Addr: netip.MustParseAddr("192.0.2.1")}, 0)
	require.Equal(t, api.CodeBindFailed, api.CodeOf(err))
}

func TestDatagramRoundTrip(t *testing.T) {
	recvFd := openUDP(t)
	require.NoError(t, socket.Bind(recvFd, api.Endpoint{Addr: loopback}, 0))
	local, err := socket.GetLocalAddress(recvFd)
	require.NoError(t, err)

	sendFd := openUDP(t)
	payload := []byte("datagram payload")
	n, err := socket.SendTo(sendFd, api.Endpoint{Addr: loopback, Port: local.Port}, 0, payload, socket.MsgNone)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	sender, err := socket.GetLocalAddress(sendFd)
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, remote, err := socket.RecvFrom(recvFd, buf)
	require.NoError(t, err)
	require.Equal(t, payload, buf[:n])
	require.Equal(t, sender.Port, remote.Port)
	require.Equal(t, loopback, remote.Addr)
}

func TestRecvWithAncillaryData(t *testing.T) {
	recvFd := openUDP(t)
	require.NoError(t, socket.Bind(recvFd, api.Endpoint{Addr: loopback}, 0))
	require.NoError(t, socket.SetRecvPktAncillaryData(recvFd, api.AFInet, true))
	local, err := socket.GetLocalAddress(recvFd)
	require.NoError(t, err)

	sendFd := openUDP(t)
	payload := []byte("with metadata")
	_, err = socket.SendTo(sendFd, api.Endpoint{Addr: loopback, Port: local.Port}, 0, payload, socket.MsgNone)
	require.NoError(t, err)

	buf := make([]byte, 64)
	info, err := socket.RecvWithAncillaryData(recvFd, buf)
	require.NoError(t, err)
	require.Equal(t, len(payload), info.N)
	require.NotNil(t, info.Local)
	require.Equal(t, loopback, info.Local.Addr)
	require.Equal(t, local.Port, info.Local.Port)
	require.NotNil(t, info.Remote)
	require.Equal(t, loopback, info.Remote.Addr)
	require.Positive(t, info.IfIndex)
}

func TestSendWithFdsArgValidation(t *testing.T) {
	fds, err := socket.Pair()
	require.NoError(t, err)
	defer socket.Close(fds[0])
	defer socket.Close(fds[1])

	_, err = socket.SendWithFds(fds[0], []byte("x"), nil, os.Getpid())
	require.Equal(t, api.CodeBadArgument, api.CodeOf(err))

	tooMany := make([]api.Fd, socket.MaxTransferFds+1)
	for i := range tooMany {
		tooMany[i] = fds[1]
	}
	_, err = socket.SendWithFds(fds[0], []byte("x"), tooMany, os.Getpid())
	require.Equal(t, api.CodeBadArgument, api.CodeOf(err))

	_, _, err = socket.RecvWithFds(fds[1], make([]byte, 8), 0)
	require.Equal(t, api.CodeBadArgument, api.CodeOf(err))
}

func TestDescriptorTransfer(t *testing.T) {
	fds, err := socket.Pair()
	require.NoError(t, err)
	defer socket.Close(fds[0])
	defer socket.Close(fds[1])

	// Five descriptors to move, all within this process.
	var moved []api.Fd
	for i := 0; i < 5; i++ {
		fd, err := socket.Open(api.AFInet, api.Datagram)
		require.NoError(t, err)
		defer socket.Close(fd)
		moved = append(moved, fd)
	}

	payload := []byte("PING")
	n, err := socket.SendWithFds(fds[0], payload, moved, os.Getpid())
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	// Let the out-of-band byte land before the receiver checks the mark.
	time.Sleep(300 * time.Millisecond)

	buf := make([]byte, 16)
	n, got, err := socket.RecvWithFds(fds[1], buf, socket.MaxTransferFds)
	require.NoError(t, err)
	require.Equal(t, payload, buf[:n])
	require.Len(t, got, 5)
	for _, fd := range got {
		require.True(t, fd.Valid())
		_, err := socket.GetLocalAddress(fd)
		require.NoError(t, err)
		socket.Close(fd)
	}
}

func TestRecvWithFdsNoUrgentData(t *testing.T) {
	fds, err := socket.Pair()
	require.NoError(t, err)
	defer socket.Close(fds[0])
	defer socket.Close(fds[1])

	// A plain send carries no urgent byte; the receive degrades to an
	// ordinary payload read with no descriptors.
	_, err = socket.Send(fds[0], []byte("plain"))
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, got, err := socket.RecvWithFds(fds[1], buf, 4)
	require.NoError(t, err)
	require.Equal(t, "plain", string(buf[:n]))
	require.Empty(t, got)
}

func TestBufferSizes(t *testing.T) {
	fd := openTCP(t)

	require.NoError(t, socket.SetSndBuf(fd, 16*1024))
	small, err := socket.GetSndBuf(fd)
	require.NoError(t, err)
	require.GreaterOrEqual(t, small, 16*1024)

	require.NoError(t, socket.SetSndBuf(fd, 64*1024))
	large, err := socket.GetSndBuf(fd)
	require.NoError(t, err)
	require.GreaterOrEqual(t, large, small)

	require.NoError(t, socket.SetRcvBuf(fd, 32*1024))
	rcv, err := socket.GetRcvBuf(fd)
	require.NoError(t, err)
	require.GreaterOrEqual(t, rcv, 32*1024)
}

func TestNagle(t *testing.T) {
	fd := openTCP(t)

	require.NoError(t, socket.SetNagle(fd, false))
	on, err := socket.GetNagle(fd)
	require.NoError(t, err)
	require.False(t, on)

	require.NoError(t, socket.SetNagle(fd, true))
	on, err = socket.GetNagle(fd)
	require.NoError(t, err)
	require.True(t, on)
}

func TestMiscOptions(t *testing.T) {
	tcp := openTCP(t)
	require.NoError(t, socket.SetLinger(tcp, true, 1))
	require.NoError(t, socket.SetLinger(tcp, false, 0))
	require.NoError(t, socket.SetReuseAddress(tcp, true))
	require.NoError(t, socket.SetReusePort(tcp, true))

	udp := openUDP(t)
	require.NoError(t, socket.SetBroadcast(udp, true))
	require.NoError(t, socket.SetMulticastHops(udp, api.AFInet, 4))

	fd6, err := socket.Open(api.AFInet6, api.Datagram)
	require.NoError(t, err)
	defer socket.Close(fd6)
	require.NoError(t, socket.SetRecvIPv6Only(fd6, true))
	require.NoError(t, socket.SetRecvIPv6Only(fd6, false))
	require.NoError(t, socket.SetMulticastHops(fd6, api.AFInet6, 4))
}

func TestMulticastMembership(t *testing.T) {
	fd := openUDP(t)

	err := socket.JoinMulticastGroup(fd, api.AFInet, "224.0.0.251", "lo")
	if err != nil {
		t.Skipf("multicast unavailable in this environment: %v", err)
	}
	require.NoError(t, socket.LeaveMulticastGroup(fd, api.AFInet, "224.0.0.251", "lo"))

	// Leaving a membership that no longer exists surfaces a native error.
	require.Error(t, socket.LeaveMulticastGroup(fd, api.AFInet, "224.0.0.251", "lo"))

	require.NoError(t, socket.SetMulticastInterface(fd, api.AFInet, "lo"))
}

func TestMulticastAssertsOnBogusArgs(t *testing.T) {
	require.Panics(t, func() {
		_ = socket.JoinMulticastGroup(api.InvalidFd, api.AFInet, "224.0.0.1", "lo")
	})
	fd := openUDP(t)
	require.Panics(t, func() {
		_ = socket.JoinMulticastGroup(fd, api.AFUnix, "224.0.0.1", "lo")
	})
	require.Panics(t, func() {
		_ = socket.JoinMulticastGroup(fd, api.AFInet, "", "lo")
	})
}

func TestMulticastGroupFamilyMismatch(t *testing.T) {
	fd := openUDP(t)
	err := socket.JoinMulticastGroup(fd, api.AFInet, "ff02::fb", "lo")
	require.Equal(t, api.CodeOSError, api.CodeOf(err))
}
