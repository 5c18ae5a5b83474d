package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobflow/internal/model"
)

// HostLimiter spaces out requests to the same upstream host. Each key gets its
// own token bucket with a burst of one.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	minDelay time.Duration
}

// NewHostLimiter creates a limiter that allows one request per minDelay per key.
// A non-positive minDelay disables limiting.
func NewHostLimiter(minDelay time.Duration) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		minDelay: minDelay,
	}
}

func (h *HostLimiter) limiterFor(key string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[key]
	if !ok {
		limit := rate.Inf
		if h.minDelay > 0 {
			limit = rate.Every(h.minDelay)
		}
		l = rate.NewLimiter(limit, 1)
		h.limiters[key] = l
	}
	return l
}

// Wait blocks until a request to key is allowed or ctx is done.
func (h *HostLimiter) Wait(ctx context.Context, key string) error {
	if err := h.limiterFor(key).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", key, err)
	}
	return nil
}

var _ model.ChunkFetcher = (*RateLimitedFetcher)(nil)

// RateLimitedFetcher is a decorator that waits on the host limiter before
// delegating to the wrapped ChunkFetcher.
type RateLimitedFetcher struct {
	inner   model.ChunkFetcher
	limiter *HostLimiter
	key     string
}

// NewRateLimitedFetcher wraps a ChunkFetcher. Fetchers that hit the same host
// should share a limiter and key.
func NewRateLimitedFetcher(inner model.ChunkFetcher, limiter *HostLimiter, key string) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
		key:     key,
	}
}

// FetchChunk waits for the limiter, then delegates.
func (f *RateLimitedFetcher) FetchChunk(ctx context.Context, start, size int) (model.Chunk, error) {
	if err := f.limiter.Wait(ctx, f.key); err != nil {
		return model.Chunk{}, err
	}
	return f.inner.FetchChunk(ctx, start, size)
}
