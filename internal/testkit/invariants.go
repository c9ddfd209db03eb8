package testkit

import (
	"fmt"

	"ripple/internal/builder"
	"ripple/internal/source"
)

// CheckSnapshot runs the cache and iteration invariants over a builder state
// snapshot:
//  1. a cached diagnostics entry implies the file is not a pending changed
//     root (the active batch root is the one sanctioned exception: its entry
//     is recomputed mid-batch, before the root leaves the changed set)
//  2. pending signatures exist only while a batch is active
//  3. an active batch cursor is not past the end of its files (a drained
//     batch stays active until the next iterator call flushes it)
func CheckSnapshot(s builder.Snapshot) error {
	changed := make(map[source.Path]struct{}, len(s.Changed))
	for _, p := range s.Changed {
		changed[p] = struct{}{}
	}
	for _, p := range s.CachedDiagnostics {
		if _, ok := changed[p]; !ok {
			continue
		}
		if s.BatchActive && p == s.BatchRoot {
			continue
		}
		return fmt.Errorf("changed file %q has cached diagnostics", p)
	}
	if !s.BatchActive && s.PendingSignatures > 0 {
		return fmt.Errorf("%d pending signatures without an active batch", s.PendingSignatures)
	}
	if s.BatchActive && s.BatchRemaining < 0 {
		return fmt.Errorf("active batch cursor past its files (%d remaining)", s.BatchRemaining)
	}
	if s.Bundled && len(s.CachedDiagnostics) > 0 {
		return fmt.Errorf("bundled state must not cache per-file diagnostics")
	}
	return nil
}

// CheckExhausted verifies the post-drain state: no changed roots, no batch,
// no pending signatures.
func CheckExhausted(s builder.Snapshot) error {
	if err := CheckSnapshot(s); err != nil {
		return err
	}
	if len(s.Changed) != 0 {
		return fmt.Errorf("changed set not empty after drain: %v", s.Changed)
	}
	if s.BatchActive {
		return fmt.Errorf("batch still active after drain")
	}
	if s.PendingSignatures != 0 {
		return fmt.Errorf("%d signatures still pending after drain", s.PendingSignatures)
	}
	return nil
}
