package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jroeper/jobdigest/internal/model"
)

// SourceRateLimiter enforces a fixed cool-down between consecutive requests to
// the same source. This is a politeness policy toward public job boards, not
// adaptive backoff.
type SourceRateLimiter struct {
	mu        sync.Mutex
	lastCall  map[string]time.Time // key: source name
	cooldown  time.Duration
	overrides map[string]time.Duration // per-source overrides
}

// NewSourceRateLimiter creates a limiter enforcing cooldown between requests
// to the same source, with optional per-source overrides.
func NewSourceRateLimiter(cooldown time.Duration, overrides map[string]time.Duration) *SourceRateLimiter {
	return &SourceRateLimiter{
		lastCall:  make(map[string]time.Time),
		cooldown:  cooldown,
		overrides: overrides,
	}
}

// cooldownFor returns the configured cool-down for the given source.
func (r *SourceRateLimiter) cooldownFor(source string) time.Duration {
	if d, ok := r.overrides[source]; ok {
		return d
	}
	return r.cooldown
}

// Wait blocks until the cool-down since the last request to the given source
// has elapsed. Returns an error if the context is cancelled while waiting.
func (r *SourceRateLimiter) Wait(ctx context.Context, source string) error {
	r.mu.Lock()
	last, ok := r.lastCall[source]
	now := time.Now()

	if !ok {
		// First request for this source, no wait needed.
		r.lastCall[source] = now
		r.mu.Unlock()
		return nil
	}

	cooldown := r.cooldownFor(source)
	elapsed := now.Sub(last)
	if elapsed >= cooldown {
		r.lastCall[source] = now
		r.mu.Unlock()
		return nil
	}

	remaining := cooldown - elapsed
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", source, ctx.Err())
	case <-time.After(remaining):
	}

	r.mu.Lock()
	r.lastCall[source] = time.Now()
	r.mu.Unlock()

	return nil
}

// CooldownAdapter is a decorator that enforces the source cool-down before
// delegating to the wrapped SourceAdapter.
type CooldownAdapter struct {
	inner   model.SourceAdapter
	limiter *SourceRateLimiter
}

var _ model.SourceAdapter = (*CooldownAdapter)(nil)

// NewCooldownAdapter wraps a SourceAdapter with the cool-down policy. All
// adapters talking to the same backend should share the same limiter.
func NewCooldownAdapter(inner model.SourceAdapter, limiter *SourceRateLimiter) *CooldownAdapter {
	return &CooldownAdapter{inner: inner, limiter: limiter}
}

// Name delegates to the wrapped adapter.
func (a *CooldownAdapter) Name() string {
	return a.inner.Name()
}

// Fetch waits for the cool-down to allow a request, then delegates.
func (a *CooldownAdapter) Fetch(ctx context.Context) ([]model.Posting, error) {
	if err := a.limiter.Wait(ctx, a.inner.Name()); err != nil {
		return nil, err
	}
	return a.inner.Fetch(ctx)
}
