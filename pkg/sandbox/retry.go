package sandbox

import (
	"context"
	"time"

	"github.com/loopforge/engine/pkg/models"
)

type executeFunc func(ctx context.Context, req *models.ExecutionRequest) (*models.ExecutionResult, error)

// backoffDuration returns the wait before retry attempt+1, per §8:
// "retry delay between attempts k and k+1 equals 2^(k-1) seconds".
func backoffDuration(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt-1)) * time.Second
}

// executeWithRetry implements §4.1's ExecuteWithRetry: invoke fn up to
// maxRetries times, stopping immediately on a non-retryable failure (so a
// non-retryable failure always returns after exactly one attempt, per §8),
// waiting an exponentially growing backoff between retryable failures.
func executeWithRetry(ctx context.Context, req *models.ExecutionRequest, maxRetries int, fn executeFunc) (*models.ExecutionResult, error) {
	var result *models.ExecutionResult
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err = fn(ctx, req)
		if err != nil {
			return result, err
		}
		result.RetryCount = attempt - 1

		if result.Success || result.HasNonRetryableError() || attempt == maxRetries {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(backoffDuration(attempt)):
		}
	}

	return result, nil
}
