// control/control_test.go
// License: Apache-2.0

package control_test

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portabus/sockport/control"
)

func TestPerfCounters(t *testing.T) {
	before, err := control.PerfSnapshot()
	require.NoError(t, err)

	control.IncrementPerfCounter(control.PerfSend)
	control.IncrementPerfCounter(control.PerfSend)
	control.IncrementPerfCounter(control.PerfRecvFds)

	after, err := control.PerfSnapshot()
	require.NoError(t, err)
	require.Equal(t, before[control.PerfSend]+2, after[control.PerfSend])
	require.Equal(t, before[control.PerfRecvFds]+1, after[control.PerfRecvFds])

	// Every instrumented operation has a series even when never hit.
	require.Contains(t, after, control.PerfRecvAncillary)
	require.Contains(t, after, control.PerfSendTo)
}

func TestRecentEventsRing(t *testing.T) {
	control.SetOutput(io.Discard)
	for i := 0; i < 100; i++ {
		control.Infof("ring event %d", i)
	}
	events := control.RecentEvents()
	require.Len(t, events, 64)
	require.Contains(t, events[len(events)-1], "ring event 99")
	require.Contains(t, events[0], "ring event 36")
}

func TestVerboseGate(t *testing.T) {
	control.SetOutput(io.Discard)
	control.SetVerbose(false)
	defer control.SetVerbose(false)

	control.Infof("marker")
	control.Debugf("suppressed record")
	events := control.RecentEvents()
	require.NotContains(t, events[len(events)-1], "suppressed record")

	control.SetVerbose(true)
	control.Debugf("visible record")
	events = control.RecentEvents()
	require.Contains(t, events[len(events)-1], "visible record")
}

func TestProbeRegistry(t *testing.T) {
	state := control.Probes.DumpState()
	require.Contains(t, state, "recent_events")
	require.Contains(t, state, "perf_counters")

	dp := control.NewDebugProbes()
	dp.RegisterProbe("answer", func() any { return 42 })
	require.Equal(t, map[string]any{"answer": 42}, dp.DumpState())
}

func ExampleRecentEvents() {
	control.SetOutput(io.Discard)
	control.Infof("example event")
	events := control.RecentEvents()
	fmt.Println(len(events) > 0)
	// Output: true
}
