package cache

// Keyer generates cache keys.
type Keyer interface {
	// RuleKey is the key under which a rule's last fingerprint is stored.
	RuleKey(label string) string
}

// DefaultKeyer generates readable, unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) RuleKey(label string) string {
	return "rule:" + label
}

// ScopedKeyer wraps a Keyer with a prefix so that several workspaces can
// share one cache directory without their keys colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), WorkspaceScope("/src/hello"))
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

// RuleKey generates a prefixed rule key.
func (k *ScopedKeyer) RuleKey(label string) string {
	return k.prefix + k.inner.RuleKey(label)
}

// WorkspaceScope derives a key prefix from a workspace root path.
func WorkspaceScope(root string) string {
	return "ws:" + Hash([]byte(root))[:12] + ":"
}
