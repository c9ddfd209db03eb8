// Package builder is the incremental build driver core. It wraps a freshly
// produced compile.Program, diffs it against the previous builder state to
// find the minimal set of files whose analysis or emit must be redone,
// exposes them through a resumable two-phase iterator, and caches semantic
// diagnostics per file so unchanged files skip re-analysis on rebuilds.
//
// The state is owned by a single caller; nothing here is goroutine-safe.
package builder
