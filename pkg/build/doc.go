// Package build executes rule graphs.
//
// A [Context] is created once per invocation. It owns the output root, the
// record of declared outputs and the rule registry, and it resolves
// dependency closures. Rules see it through the [rule.Context] interface via
// [Context.For], which binds the rule whose toolchain [Context.Toolchain]
// should return.
//
// A [Runner] turns a set of target labels into a validated [dag.DAG] and
// builds it bottom-up, running independent rules in parallel. Each rule's
// inputs are fingerprinted; when the fingerprint matches the cached one and
// all declared outputs still exist, the rule is skipped.
package build
