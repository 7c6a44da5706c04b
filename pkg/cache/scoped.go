package cache

// ScopedKeyer wraps a Keyer with a prefix so several orgs can share one
// backend without seeing each other's entries.
//
// Example usage:
//
//	orgKeyer := NewScopedKeyer(NewDefaultKeyer(), "org:00D5g000004XyZ:")
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

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// DescribeKey generates a prefixed key for describe caching.
func (k *ScopedKeyer) DescribeKey(version, entity string) string {
	return k.prefix + k.inner.DescribeKey(version, entity)
}

// VersionPrefix generates the prefixed describe prefix of a version.
func (k *ScopedKeyer) VersionPrefix(version string) string {
	return k.prefix + k.inner.VersionPrefix(version)
}

// DiagramKey generates a prefixed key for diagram caching.
func (k *ScopedKeyer) DiagramKey(root, version string, opts DiagramKeyOpts) string {
	return k.prefix + k.inner.DiagramKey(root, version, opts)
}
