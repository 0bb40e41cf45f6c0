// control/log.go
// License: Apache-2.0
//
// Best-effort diagnostic sink for the socket layer. Logging never affects
// control flow: a formatting or write failure is silently dropped. The
// most recent records are retained in a bounded ring and exposed through
// the debug probe registry.

package control

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/eapache/queue"
	"github.com/valyala/bytebufferpool"
)

const recentEventCap = 64

var (
	logMu   sync.Mutex
	logger  = log.New(os.Stderr, "", log.LstdFlags)
	recent  = queue.New()
	verbose = false
)

// SetOutput redirects the diagnostic sink.
func SetOutput(w io.Writer) {
	logMu.Lock()
	logger.SetOutput(w)
	logMu.Unlock()
}

// SetVerbose enables debug-level records.
func SetVerbose(on bool) {
	logMu.Lock()
	verbose = on
	logMu.Unlock()
}

func emit(level, format string, args ...any) {
	b := bytebufferpool.Get()
	_, _ = b.WriteString("sockport ")
	_, _ = b.WriteString(level)
	_, _ = b.WriteString(": ")
	_, _ = fmt.Fprintf(b, format, args...)
	line := b.String()
	bytebufferpool.Put(b)

	logMu.Lock()
	logger.Print(line)
	recent.Add(line)
	for recent.Length() > recentEventCap {
		recent.Remove()
	}
	logMu.Unlock()
}

// Debugf records a debug-level event when verbose mode is on.
func Debugf(format string, args ...any) {
	logMu.Lock()
	on := verbose
	logMu.Unlock()
	if on {
		emit("debug", format, args...)
	}
}

// Infof records an informational event.
func Infof(format string, args ...any) { emit("info", format, args...) }

// Errorf records a failure. Callers use this on paths that must not raise,
// such as Close on a possibly-broken descriptor.
func Errorf(format string, args ...any) { emit("error", format, args...) }

// RecentEvents returns the retained records, oldest first.
func RecentEvents() []string {
	logMu.Lock()
	defer logMu.Unlock()
	out := make([]string, 0, recent.Length())
	for i := 0; i < recent.Length(); i++ {
		if s, ok := recent.Get(i).(string); ok {
			out = append(out, s)
		}
	}
	return out
}
