package metadata

import (
	"context"

	"github.com/shelfmark/shelfmark-server/internal/ratelimit"
)

// RateLimited wraps a Lookup so every outbound catalog call waits on a keyed
// token bucket first. The key is the catalog source name, so limits apply
// per provider rather than globally.
type RateLimited struct {
	inner   Lookup
	limiter *ratelimit.KeyedRateLimiter
	key     string
}

// NewRateLimited decorates a Lookup with rate limiting under the given
// source key.
func NewRateLimited(inner Lookup, limiter *ratelimit.KeyedRateLimiter, key string) *RateLimited {
	return &RateLimited{inner: inner, limiter: limiter, key: key}
}

func (r *RateLimited) EnrichByISBN(ctx context.Context, isbn string) (*NormalizedMetadata, error) {
	if err := r.limiter.Wait(ctx, r.key); err != nil {
		return nil, err
	}
	return r.inner.EnrichByISBN(ctx, isbn)
}

func (r *RateLimited) SearchByTitle(ctx context.Context, title, author string) ([]*NormalizedMetadata, error) {
	if err := r.limiter.Wait(ctx, r.key); err != nil {
		return nil, err
	}
	return r.inner.SearchByTitle(ctx, title, author)
}
