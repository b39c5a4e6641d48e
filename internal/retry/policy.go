// internal/retry/policy.go
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tamzrod/devicecfg/internal/config"
)

// Policy is a fixed-delay retry budget.
// MaxRetries counts retries after the first attempt.
type Policy struct {
	Delay      time.Duration
	MaxRetries int
}

// FromConfig builds the policy the device uses for command acknowledgement.
func FromConfig(rc config.RetryConfig) Policy {
	return Policy{Delay: rc.Delay(), MaxRetries: rc.MaxRetries}
}

// Attempts is the total number of tries, first one included.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Permanent marks an error that must not be retried.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, the budget is spent, op returns a Permanent
// error, or ctx is done. The last error is returned unwrapped.
// notify, if non-nil, is called before each wait with the failed attempt number.
func (p Policy) Do(ctx context.Context, op func(attempt int) error, notify func(attempt int, err error, wait time.Duration)) error {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
	b = backoff.WithMaxRetries(b, uint64(p.Attempts()-1))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	err := backoff.RetryNotify(
		func() error {
			attempt++
			return op(attempt)
		},
		b,
		func(err error, wait time.Duration) {
			if notify != nil {
				notify(attempt, err, wait)
			}
		},
	)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}
