// socket/socket.go
// License: Apache-2.0
//
// Portable constants and tunables shared by every platform implementation.

package socket

import (
	"sync"
	"time"

	"github.com/portabus/sockport/control"
)

// MaxTransferFds bounds the number of descriptors moved by a single
// SendWithFds/RecvWithFds exchange. Both ends must agree on the bound: the
// out-of-band count byte and the fixed token block layout are the whole
// wire contract.
const MaxTransferFds = 16

// SendFlags modifies SendTo behavior.
type SendFlags int

const (
	MsgNone SendFlags = iota
	// MsgDontRoute sends to directly connected hosts only.
	MsgDontRoute
)

// TransferPolicy bounds the in-band token retry loop of the descriptor
// transfer protocol. A partial token write or read that keeps reporting
// would-block is retried up to Attempts times, Delay apart; exhaustion
// surfaces as a timeout and desynchronizes the stream, which the caller
// must then close and recreate.
type TransferPolicy struct {
	Attempts uint64
	Delay    time.Duration
}

var (
	policyMu       sync.RWMutex
	transferPolicy = TransferPolicy{Attempts: 100, Delay: time.Millisecond}
)

// SetTransferPolicy replaces the retry budget for descriptor transfer.
// Zero-valued fields keep their defaults.
func SetTransferPolicy(p TransferPolicy) {
	policyMu.Lock()
	defer policyMu.Unlock()
	if p.Attempts > 0 {
		transferPolicy.Attempts = p.Attempts
	}
	if p.Delay > 0 {
		transferPolicy.Delay = p.Delay
	}
}

// CurrentTransferPolicy returns the active retry budget.
func CurrentTransferPolicy() TransferPolicy {
	policyMu.RLock()
	defer policyMu.RUnlock()
	return transferPolicy
}

func init() {
	control.Probes.RegisterProbe("transfer_policy", func() any {
		p := CurrentTransferPolicy()
		return map[string]any{"attempts": p.Attempts, "delay": p.Delay.String()}
	})
}
