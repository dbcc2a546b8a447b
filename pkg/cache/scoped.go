package cache

// ScopedKeyer prefixes every key of an inner Keyer. The HTTP service uses
// it to keep entries of separate deployments apart in a shared Redis.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// the DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) PlanKey(docHash string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(docHash, opts)
}

func (k *ScopedKeyer) ExtractKey(promptHash string, opts ExtractKeyOpts) string {
	return k.prefix + k.inner.ExtractKey(promptHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(planHash, opts)
}
