package oracle

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited delays calls to the wrapped client so a batch of files does
// not exceed the provider quota.
type RateLimited struct {
	next    Client
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a token bucket. A non-positive rate
// disables limiting and returns next unchanged.
func NewRateLimited(next Client, requestsPerSecond float64, burst int) Client {
	if requestsPerSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Generate waits for a token, then forwards the prompt.
func (r *RateLimited) Generate(ctx context.Context, p Prompt) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("Generate: rate limit: %w", err)
	}
	return r.next.Generate(ctx, p)
}
