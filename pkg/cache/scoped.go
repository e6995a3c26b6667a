package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments or
// tenants can share one backend without key collisions.
//
//	staging := NewScopedKeyer(NewDefaultKeyer(), "staging:")
//	staging.URLKey("npm", "react") // "staging:url:npm:react"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey generates a prefixed key for registry response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// URLKey generates a prefixed key for repository URL caching.
func (k *ScopedKeyer) URLKey(ecosystem, name string) string {
	return k.prefix + k.inner.URLKey(ecosystem, name)
}
