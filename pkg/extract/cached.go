package extract

import (
	"context"

	"github.com/matzehuels/blockout/pkg/cache"
	"github.com/matzehuels/blockout/pkg/observability"
)

// Cached wraps an Extractor with a result cache. Prompts are keyed by their
// hash and the model name; the same prompt sent to a different model is a
// different entry.
type Cached struct {
	inner   Extractor
	cache   cache.Cache
	keyer   cache.Keyer
	refresh bool
}

// NewCached returns inner backed by c. A nil keyer uses the default keyer.
func NewCached(inner Extractor, c cache.Cache, keyer cache.Keyer) *Cached {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Cached{inner: inner, cache: c, keyer: keyer}
}

// Refresh makes the next lookups bypass the cache. Results are still stored.
func (c *Cached) Refresh(refresh bool) *Cached {
	c.refresh = refresh
	return c
}

// Extract returns a cached document or asks the inner extractor.
func (c *Cached) Extract(ctx context.Context, prompt, model string) ([]byte, error) {
	key := c.keyer.ExtractKey(cache.Hash([]byte(prompt)), cache.ExtractKeyOpts{Model: model})

	if !c.refresh {
		if data, ok, _ := c.cache.Get(ctx, key); ok {
			observability.Cache().OnCacheHit(ctx, "extract")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "extract")
	}

	data, err := c.inner.Extract(ctx, prompt, model)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, data, cache.TTLExtract); err == nil {
		observability.Cache().OnCacheSet(ctx, "extract", len(data))
	}
	return data, nil
}

var _ Extractor = (*Cached)(nil)
