package artifact

import (
	"log/slog"
	"time"
)

// RetryPolicy wraps an operation with bounded retries and linear backoff
// (attempt number times BaseDelay). Retryable classifies which errors are
// worth retrying; nil retries everything, matching the launcher's historical
// behavior of retrying the whole download step on any failure.
type RetryPolicy struct {
	Retries   int
	BaseDelay time.Duration
	Retryable func(error) bool
	// Sleep is swappable for tests; nil uses time.Sleep.
	Sleep func(time.Duration)
}

// DefaultRetryPolicy mirrors the launcher's long-standing download settings.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Retries: 3, BaseDelay: 50 * time.Second}
}

// Do runs fn, retrying up to Retries times after the first failure and
// sleeping attempt*BaseDelay between tries. The last error is returned.
func (p RetryPolicy) Do(op string, fn func() error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt > p.Retries {
			return err
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		delay := time.Duration(attempt) * p.BaseDelay
		slog.Info("retrying after failure",
			"op", op, "attempt", attempt, "retries", p.Retries,
			"sleep", delay, "error", err)
		sleep(delay)
	}
}
