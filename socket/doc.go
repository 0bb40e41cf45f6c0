// Package socket is a portable socket abstraction layer: it normalizes
// OS-level socket operations behind a single outcome taxonomy, extracts
// per-packet ancillary metadata from datagrams on wildcard-bound sockets,
// and transfers open socket descriptors between processes across a
// connected stream where the platform offers no native ancillary facility
// for handles.
//
// The layer is fully synchronous and non-blocking: would-block
// conditions are surfaced to the caller, which owns scheduling policy.
// The only internal retry is the bounded wait for a partial in-band
// duplication token during descriptor transfer.
//
// License: Apache-2.0
package socket
