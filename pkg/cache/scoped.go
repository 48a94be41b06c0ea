package cache

// ScopedKeyer wraps a Keyer with a prefix. Caches shared between rule
// services use the service address as the scope, since two services may
// compile the same rule differently.
//
//	k := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "rules.internal:5000:")
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
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ASTKey generates a prefixed key for compiled rule caching.
func (k *ScopedKeyer) ASTKey(rule string) string {
	return k.prefix + k.inner.ASTKey(rule)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(treeHash, opts)
}
