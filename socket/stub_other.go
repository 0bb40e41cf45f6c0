// socket/stub_other.go
// License: Apache-2.0
//
// Stub surface for unsupported platforms: every operation reports
// not-implemented without touching the native stack.

//go:build !linux && !windows

package socket

import "github.com/portabus/sockport/api"

const MaxListenBacklog = 128

func notImplemented(op string) *api.Error {
	return &api.Error{Code: api.CodeNotImplemented, Op: op}
}

func Open(family api.AddressFamily, typ api.SocketType) (api.Fd, error) {
	return api.InvalidFd, notImplemented("socket")
}

func Connect(fd api.Fd, remote api.Endpoint) error { return notImplemented("connect") }

func Bind(fd api.Fd, local api.Endpoint, scopeID uint32) error { return notImplemented("bind") }

func Listen(fd api.Fd, backlog int) error { return notImplemented("listen") }

func Accept(fd api.Fd) (api.Fd, api.Endpoint, error) {
	return api.InvalidFd, api.Endpoint{}, notImplemented("accept")
}

func Shutdown(fd api.Fd, how api.ShutdownHow) error { return notImplemented("shutdown") }

func Close(fd api.Fd) {}

func Duplicate(fd api.Fd) (api.Fd, error) { return api.InvalidFd, notImplemented("dup") }

func GetLocalAddress(fd api.Fd) (api.Endpoint, error) {
	return api.Endpoint{}, notImplemented("getsockname")
}

func SetBlocking(fd api.Fd, blocking bool) error { return notImplemented("setblocking") }

func Send(fd api.Fd, buf []byte) (int, error) { return 0, notImplemented("send") }

func Recv(fd api.Fd, buf []byte) (int, error) { return 0, notImplemented("recv") }

func SendTo(fd api.Fd, remote api.Endpoint, scopeID uint32, buf []byte, flags SendFlags) (int, error) {
	return 0, notImplemented("sendto")
}

func RecvFrom(fd api.Fd, buf []byte) (int, api.Endpoint, error) {
	return 0, api.Endpoint{}, notImplemented("recvfrom")
}

func RecvWithAncillaryData(fd api.Fd, buf []byte) (api.AncillaryInfo, error) {
	return api.AncillaryInfo{IfIndex: -1}, notImplemented("recvmsg")
}

func SendWithFds(fd api.Fd, buf []byte, fds []api.Fd, pid int) (int, error) {
	return 0, notImplemented("sendfds")
}

func RecvWithFds(fd api.Fd, buf []byte, maxFds int) (int, []api.Fd, error) {
	return 0, nil, notImplemented("recvfds")
}

func SetSndBuf(fd api.Fd, bufSize int) error { return notImplemented("setsockopt") }

func GetSndBuf(fd api.Fd) (int, error) { return 0, notImplemented("getsockopt") }

func SetRcvBuf(fd api.Fd, bufSize int) error { return notImplemented("setsockopt") }

func GetRcvBuf(fd api.Fd) (int, error) { return 0, notImplemented("getsockopt") }

func SetLinger(fd api.Fd, onoff bool, seconds int) error { return notImplemented("setsockopt") }

func SetNagle(fd api.Fd, useNagle bool) error { return notImplemented("setsockopt") }

func GetNagle(fd api.Fd) (bool, error) { return false, notImplemented("getsockopt") }

func SetReuseAddress(fd api.Fd, reuse bool) error { return notImplemented("setsockopt") }

func SetReusePort(fd api.Fd, reuse bool) error { return notImplemented("setsockopt") }

func SetBroadcast(fd api.Fd, broadcast bool) error { return notImplemented("setsockopt") }

func JoinMulticastGroup(fd api.Fd, family api.AddressFamily, group, iface string) error {
	return notImplemented("setsockopt")
}

func LeaveMulticastGroup(fd api.Fd, family api.AddressFamily, group, iface string) error {
	return notImplemented("setsockopt")
}

func SetMulticastInterface(fd api.Fd, family api.AddressFamily, iface string) error {
	return notImplemented("setsockopt")
}

func SetMulticastHops(fd api.Fd, family api.AddressFamily, hops uint32) error {
	return notImplemented("setsockopt")
}

func SetRecvPktAncillaryData(fd api.Fd, family api.AddressFamily, recv bool) error {
	return notImplemented("setsockopt")
}

func SetRecvIPv6Only(fd api.Fd, v6only bool) error { return notImplemented("setsockopt") }
