// api/types_test.go
// License: Apache-2.0

package api_test

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portabus/sockport/api"
)

func TestFdValid(t *testing.T) {
	require.False(t, api.InvalidFd.Valid())
	require.True(t, api.Fd(0).Valid())
	require.True(t, api.Fd(7).Valid())
}

func TestEndpointFamily(t *testing.T) {
	v4 := api.Endpoint{Addr: netip.MustParseAddr("192.0.2.1")}
	require.Equal(t, api.AFInet, v4.Family())

	// A mapped v4 address is still a v4 endpoint.
	mapped := api.Endpoint{Addr: netip.MustParseAddr("::ffff:192.0.2.1")}
	require.Equal(t, api.AFInet, mapped.Family())

	v6 := api.Endpoint{Addr: netip.MustParseAddr("2001:db8::1")}
	require.Equal(t, api.AFInet6, v6.Family())

	var zero api.Endpoint
	require.Equal(t, api.AFUnspec, zero.Family())
	require.False(t, zero.IsValid())
}

func TestEndpointString(t *testing.T) {
	ep := api.Endpoint{Addr: netip.MustParseAddr("127.0.0.1"), Port: 9955}
	require.Equal(t, "127.0.0.1:9955", ep.String())
}

func TestAddressFamilyString(t *testing.T) {
	require.Equal(t, "inet", api.AFInet.String())
	require.Equal(t, "inet6", api.AFInet6.String())
	require.Equal(t, "unix", api.AFUnix.String())
	require.Equal(t, "unspec", api.AFUnspec.String())
	require.Equal(t, "unspec", api.AddressFamily(42).String())
}
