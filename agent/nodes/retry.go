package routernode

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Retry bounds a retried step. Attempts counts retries after the first try.
type Retry struct {
	Attempts int
	Backoff  time.Duration
}

// do runs fn until it succeeds, returns an error retryable rejects, or attempts run
// out. exhausted reports whether the last error came from running out of attempts.
func (r Retry) do(ctx context.Context, step string, fn func() error, retryable func(error) bool) (bool, error) {
	var err error
	for attempt := 0; attempt <= r.Attempts; attempt++ {
		if attempt > 0 {
			zerolog.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).Msgf("%s failed, retrying", step)
			if serr := sleep(ctx, r.Backoff*time.Duration(attempt)); serr != nil {
				return false, serr
			}
		}

		err = fn()
		if err == nil {
			return false, nil
		}
		if ctx.Err() != nil || !retryable(err) {
			return false, err
		}
	}
	return true, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
