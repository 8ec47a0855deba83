// Package toolchain binds declared toolchains to their downloaded archives
// and invokes them.
//
// A [Toolchain] pairs a [rule.Toolchain] declaration with an
// [archive.Archive]. It can compile and run code only after the archive has
// been downloaded, checksum-verified and unpacked; [Toolchain.Ready] reports
// that state.
//
// The [Manager] is the process-wide registry of archives and toolchains.
// Workspace loading fills it, possibly from many goroutines at once, and the
// build reads from it afterwards. Archives must be registered before the
// toolchains that reference them:
//
//	mgr := toolchain.NewManager(toolchain.Options{WorkDir: root, CacheRoot: cacheDir})
//	mgr.RegisterArchive(otpArchive)
//	mgr.RegisterToolchain(otpDecl, cacheDir)
//	if err := mgr.Acquire(ctx, nil); err != nil { ... }
//	tc, ok := mgr.Get("//toolchains:otp")
package toolchain
