// socket/retry.go
// License: Apache-2.0

package socket

import (
	"github.com/cenkalti/backoff/v4"

	"github.com/portabus/sockport/api"
)

// retryWouldBlock runs fn until it stops reporting would-block, sleeping
// the policy delay between attempts. Any other failure is permanent and
// returned unchanged; exhausting the attempt budget converts the last
// would-block into CodeTimeout. The loop never rolls back partial
// progress: fn owns its cursor, and bytes already consumed from the
// stream stay consumed.
func retryWouldBlock(op string, fn func() error) error {
	p := CurrentTransferPolicy()
	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), p.Attempts-1)
	err := backoff.Retry(func() error {
		err := fn()
		if err == nil || api.IsWouldBlock(err) {
			return err
		}
		return backoff.Permanent(err)
	}, bo)
	if api.IsWouldBlock(err) {
		return &api.Error{Code: api.CodeTimeout, Op: op}
	}
	return err
}
