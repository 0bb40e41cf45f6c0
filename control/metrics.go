// control/metrics.go
// License: Apache-2.0
//
// Performance counters for the socket layer. Counters are purely
// observational: they are incremented on entry to the hot operations and
// carry no correctness dependency.

package control

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Perf counter names, one per instrumented operation.
const (
	PerfSend          = "send"
	PerfSendTo        = "sendto"
	PerfRecv          = "recv"
	PerfRecvFrom      = "recvfrom"
	PerfRecvAncillary = "recv_ancillary"
	PerfSendFds       = "send_fds"
	PerfRecvFds       = "recv_fds"
)

var socketOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sockport",
	Subsystem: "socket",
	Name:      "operations_total",
	Help:      "Socket operations issued, by operation kind.",
}, []string{"op"})

func init() {
	// Pre-create the series so a snapshot lists every operation even
	// before the first call.
	for _, op := range []string{
		PerfSend, PerfSendTo, PerfRecv, PerfRecvFrom,
		PerfRecvAncillary, PerfSendFds, PerfRecvFds,
	} {
		socketOps.WithLabelValues(op)
	}
}

// IncrementPerfCounter bumps the counter for op.
func IncrementPerfCounter(op string) {
	socketOps.WithLabelValues(op).Inc()
}

// PerfSnapshot gathers the current counter values by operation kind.
func PerfSnapshot() (map[string]float64, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "sockport_socket_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "op" {
					out[l.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	return out, nil
}
