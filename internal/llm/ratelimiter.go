package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimitedProvider allows at most rpm completions per minute, refilling
// one slot every minute/rpm.
type RateLimitedProvider struct {
	provider Provider
	rpm      int
	interval time.Duration

	mu       sync.Mutex
	tokens   int
	lastFill time.Time
}

// NewRateLimitedProvider wraps provider with a token bucket of size rpm.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		rpm = 1
	}
	return &RateLimitedProvider{
		provider: provider,
		rpm:      rpm,
		interval: time.Minute / time.Duration(rpm),
		tokens:   rpm,
		lastFill: time.Now(),
	}
}

func (r *RateLimitedProvider) Name() string { return r.provider.Name() }

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}

// reserve takes a token if one is available, otherwise it returns how long
// until the next refill.
func (r *RateLimitedProvider) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if refill := int(now.Sub(r.lastFill) / r.interval); refill > 0 {
		r.tokens = min(r.rpm, r.tokens+refill)
		r.lastFill = r.lastFill.Add(time.Duration(refill) * r.interval)
	}
	if r.tokens > 0 {
		r.tokens--
		return 0
	}
	return r.interval - now.Sub(r.lastFill)
}

func (r *RateLimitedProvider) wait(ctx context.Context) error {
	for {
		d := r.reserve()
		if d <= 0 {
			return nil
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
