// socket/policy_test.go
// License: Apache-2.0

package socket_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/portabus/sockport/socket"
)

func TestTransferPolicyDefaults(t *testing.T) {
	p := socket.CurrentTransferPolicy()
	require.Equal(t, uint64(100), p.Attempts)
	require.Equal(t, time.Millisecond, p.Delay)
}

func TestSetTransferPolicyKeepsZeroFields(t *testing.T) {
	old := socket.CurrentTransferPolicy()
	defer socket.SetTransferPolicy(old)

	socket.SetTransferPolicy(socket.TransferPolicy{Attempts: 7})
	p := socket.CurrentTransferPolicy()
	require.Equal(t, uint64(7), p.Attempts)
	require.Equal(t, old.Delay, p.Delay)

	socket.SetTransferPolicy(socket.TransferPolicy{Delay: 5 * time.Millisecond})
	p = socket.CurrentTransferPolicy()
	require.Equal(t, uint64(7), p.Attempts)
	require.Equal(t, 5*time.Millisecond, p.Delay)
}
