// Package observability provides hooks for metrics, tracing, and logging.
//
// The build engine emits events through these hooks without depending on a
// specific observability backend. Consumers register implementations at
// startup; until they do, every hook is a no-op.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetBuildHooks(&myBuildHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Build().OnRuleStart(ctx, "//app:server", "library")
//	// ... build the rule ...
//	observability.Build().OnRuleComplete(ctx, "//app:server", "built", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Build Hooks
// =============================================================================

// BuildHooks receives events from the rule scheduler.
type BuildHooks interface {
	// OnRuleStart is called before a rule is checked against the cache.
	OnRuleStart(ctx context.Context, label, kind string)

	// OnRuleComplete is called once a rule finished. status is "built" or "cached".
	OnRuleComplete(ctx context.Context, label, status string, duration time.Duration, err error)
}

// =============================================================================
// Toolchain Hooks
// =============================================================================

// ToolchainHooks receives events from toolchain acquisition.
type ToolchainHooks interface {
	OnAcquireStart(ctx context.Context, toolchain string)
	OnAcquireComplete(ctx context.Context, toolchain string, downloaded bool, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopBuildHooks is a no-op implementation of BuildHooks.
type NoopBuildHooks struct{}

func (NoopBuildHooks) OnRuleStart(context.Context, string, string)                          {}
func (NoopBuildHooks) OnRuleComplete(context.Context, string, string, time.Duration, error) {}

// NoopToolchainHooks is a no-op implementation of ToolchainHooks.
type NoopToolchainHooks struct{}

func (NoopToolchainHooks) OnAcquireStart(context.Context, string) {}
func (NoopToolchainHooks) OnAcquireComplete(context.Context, string, bool, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	buildHooks     BuildHooks     = NoopBuildHooks{}
	toolchainHooks ToolchainHooks = NoopToolchainHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetBuildHooks registers custom build hooks.
// This should be called once at application startup before any build runs.
func SetBuildHooks(h BuildHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		buildHooks = h
	}
}

// SetToolchainHooks registers custom toolchain hooks.
func SetToolchainHooks(h ToolchainHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		toolchainHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Build returns the registered build hooks.
func Build() BuildHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return buildHooks
}

// Toolchain returns the registered toolchain hooks.
func Toolchain() ToolchainHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return toolchainHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	buildHooks = NoopBuildHooks{}
	toolchainHooks = NoopToolchainHooks{}
	cacheHooks = NoopCacheHooks{}
}
