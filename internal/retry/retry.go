package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/amishk599/jobflow/internal/model"
)

var _ model.ChunkFetcher = (*RetryFetcher)(nil)

// RetryFetcher is a decorator that retries transient failures with exponential
// backoff and jitter before delegating to the wrapped ChunkFetcher.
type RetryFetcher struct {
	inner      model.ChunkFetcher
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetryFetcher wraps a ChunkFetcher with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetryFetcher(inner model.ChunkFetcher, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryFetcher {
	return &RetryFetcher{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// FetchChunk attempts the fetch, retrying on transient errors. The last error
// is returned once retries are exhausted.
func (f *RetryFetcher) FetchChunk(ctx context.Context, start, size int) (model.Chunk, error) {
	chunk, err := f.inner.FetchChunk(ctx, start, size)
	if err == nil || !isRetryable(err) {
		return chunk, err
	}

	lastErr := err
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		delay := f.backoffDelay(attempt, lastErr)

		f.logger.Warn("retrying after transient error",
			"start", start,
			"attempt", attempt,
			"max_retries", f.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return model.Chunk{}, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		chunk, err = f.inner.FetchChunk(ctx, start, size)
		if err == nil || !isRetryable(err) {
			return chunk, err
		}
		lastErr = err
	}

	return model.Chunk{}, fmt.Errorf("giving up after %d retries: %w", f.maxRetries, lastErr)
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// A Retry-After duration on the error takes precedence.
func (f *RetryFetcher) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := f.baseDelay << (attempt - 1)
	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable returns true for 429, 5xx and non-HTTP (network) failures.
// Cancellation and other 4xx responses are final.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	return true
}
