// Package diag defines the diagnostic value types carried through the build
// driver. Diagnostics are data, not Go errors: the driver caches and returns
// them, it never fails on them.
package diag
