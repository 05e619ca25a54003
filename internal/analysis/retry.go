package analysis

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy describes the retry behavior for external model calls: a
// bounded number of retries with a fixed inter-attempt delay. Call volume is
// human-paced, so there is no jitter or backoff.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy is the production policy: 1 initial attempt plus 2
// retries, one second apart.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 2,
	Delay:      time.Second,
}

// Do executes op, retrying on failure until the policy is exhausted.
// Attempts are strictly sequential. On exhaustion it returns a *CallError
// identifying the operation and the last cause.
func (p RetryPolicy) Do(ctx context.Context, operation string, op func(context.Context) (string, error)) (string, error) {
	attempts := 0
	for {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}

		attempts++
		if attempts > p.MaxRetries {
			slog.Error("AI operation failed after all attempts", "operation", operation, "attempts", attempts, "error", err)
			return "", &CallError{Operation: operation, Attempts: attempts, Err: err}
		}

		slog.Warn("AI operation attempt failed, retrying", "operation", operation, "attempt", attempts, "delay", p.Delay, "error", err)
		time.Sleep(p.Delay)
	}
}
