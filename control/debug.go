// control/debug.go
// License: Apache-2.0
//
// Runtime debug handler and probe reflector for internal inspection.

package control

import (
	"sync"

	"github.com/portabus/sockport/api"
)

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates a probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: make(map[string]func() any),
	}
}

// RegisterProbe inserts a named debug hook.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState returns output of all probes.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any)
	for k, fn := range dp.probes {
		out[k] = fn()
	}
	return out
}

var _ api.Debug = (*DebugProbes)(nil)

// Probes is the process-wide registry. The socket layer registers its
// transfer policy and counter snapshot here; the sockdiag CLI dumps it.
var Probes = NewDebugProbes()

func init() {
	Probes.RegisterProbe("recent_events", func() any { return RecentEvents() })
	Probes.RegisterProbe("perf_counters", func() any {
		snap, err := PerfSnapshot()
		if err != nil {
			return err.Error()
		}
		return snap
	})
}
