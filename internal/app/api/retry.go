package api

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
)

var errNotYet = errors.New("condition not met")

// retryFor calls do every delay until it succeeds or duration has elapsed. do receives
// the time left and the result reports whether it succeeded.
func retryFor(ctx context.Context, do func(timeLeft time.Duration) bool, delay, duration time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	start := time.Now()
	err := retry.Do(func() error {
		if !do(duration - time.Since(start)) {
			return errNotYet
		}
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	return err == nil
}
