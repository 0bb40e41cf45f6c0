// api/errors_test.go
// License: Apache-2.0

package api_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portabus/sockport/api"
)

func TestCodeOf(t *testing.T) {
	require.Equal(t, api.CodeOK, api.CodeOf(nil))

	wb := &api.Error{Code: api.CodeWouldBlock, Op: "send"}
	require.Equal(t, api.CodeWouldBlock, api.CodeOf(wb))

	// The code survives wrapping.
	wrapped := fmt.Errorf("outer: %w", wb)
	require.Equal(t, api.CodeWouldBlock, api.CodeOf(wrapped))
	require.True(t, api.IsWouldBlock(wrapped))

	// An error from outside the taxonomy collapses to the opaque code.
	require.Equal(t, api.CodeOSError, api.CodeOf(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	require.Equal(t, "sendfds: bad argument 3", api.BadArg("sendfds", 3).Error())

	e := &api.Error{Code: api.CodeOSError, Op: "connect", Err: errors.New("boom")}
	require.Equal(t, "connect: os error: boom", e.Error())
	require.Equal(t, "accept: would block",
		(&api.Error{Code: api.CodeWouldBlock, Op: "accept"}).Error())
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("native")
	e := &api.Error{Code: api.CodeOSError, Op: "bind", Err: inner}
	require.ErrorIs(t, e, inner)
}

func TestPredicates(t *testing.T) {
	require.True(t, api.IsTimeout(&api.Error{Code: api.CodeTimeout, Op: "recvfds"}))
	require.True(t, api.IsNotImplemented(&api.Error{Code: api.CodeNotImplemented, Op: "socket"}))
	require.False(t, api.IsTimeout(nil))
	require.False(t, api.IsWouldBlock(errors.New("plain")))
}

func TestBadArgFields(t *testing.T) {
	e := api.BadArg("recvfds", 2)
	require.Equal(t, api.CodeBadArgument, e.Code)
	require.Equal(t, "recvfds", e.Op)
	require.Equal(t, 2, e.Arg)
}
