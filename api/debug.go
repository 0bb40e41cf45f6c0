// api/debug.go
// License: Apache-2.0

package api

// Debug exposes runtime introspection of the socket layer.
type Debug interface {
	// DumpState emits a snapshot of registered probes for diagnostics.
	DumpState() map[string]any

	// RegisterProbe dynamically registers a named debug probe.
	RegisterProbe(name string, fn func() any)
}
