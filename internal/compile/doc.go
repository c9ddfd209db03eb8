// Package compile declares the contract between the incremental build driver
// and the underlying compiler. The driver never parses, type-checks, or emits
// anything itself; it consumes a Program snapshot through this interface.
package compile
