package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	b := NoopBuildHooks{}
	b.OnRuleStart(ctx, "//app:server", "library")
	b.OnRuleComplete(ctx, "//app:server", "built", time.Second, nil)

	tc := NoopToolchainHooks{}
	tc.OnAcquireStart(ctx, "//toolchains:otp")
	tc.OnAcquireComplete(ctx, "//toolchains:otp", true, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "rule")
	c.OnCacheMiss(ctx, "rule")
	c.OnCacheSet(ctx, "rule", 64)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Build().(NoopBuildHooks); !ok {
		t.Error("Build() should return NoopBuildHooks by default")
	}
	if _, ok := Toolchain().(NoopToolchainHooks); !ok {
		t.Error("Toolchain() should return NoopToolchainHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customBuild := &testBuildHooks{}
	SetBuildHooks(customBuild)
	if Build() != customBuild {
		t.Error("SetBuildHooks should set custom hooks")
	}

	customToolchain := &testToolchainHooks{}
	SetToolchainHooks(customToolchain)
	if Toolchain() != customToolchain {
		t.Error("SetToolchainHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// nil is ignored
	SetBuildHooks(nil)
	if Build() != customBuild {
		t.Error("SetBuildHooks(nil) should keep existing hooks")
	}

	Reset()
	if _, ok := Build().(NoopBuildHooks); !ok {
		t.Error("Reset() should restore NoopBuildHooks")
	}
}

type testBuildHooks struct{ NoopBuildHooks }
type testToolchainHooks struct{ NoopToolchainHooks }
type testCacheHooks struct{ NoopCacheHooks }
