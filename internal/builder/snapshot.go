package builder

import (
	"maps"
	"slices"

	"ripple/internal/source"
)

// FileSnapshot is one file's identity as the state sees it.
type FileSnapshot struct {
	Path      source.Path
	Version   string
	Signature string
}

// Snapshot is a read-only view of the builder state for debugging and tests.
// It exposes no live references; mutating a snapshot changes nothing.
type Snapshot struct {
	Bundled bool
	// Files are sorted by path.
	Files []FileSnapshot
	// Changed lists the pending roots in iteration order.
	Changed []source.Path
	// CachedDiagnostics lists the files with a cache entry, sorted.
	CachedDiagnostics []source.Path
	BatchActive       bool
	BatchRoot         source.Path
	BatchRemaining    int
	PendingSignatures int
}

// Snapshot captures the current state.
func (b *Builder) Snapshot() Snapshot {
	s := b.state
	snap := Snapshot{
		Bundled: s.bundled,
		Changed: s.changed.paths(),
	}
	for _, p := range slices.Sorted(maps.Keys(s.graph.FileInfos)) {
		info := s.graph.FileInfos[p]
		snap.Files = append(snap.Files, FileSnapshot{
			Path:      p,
			Version:   info.Version,
			Signature: info.Signature,
		})
	}
	snap.CachedDiagnostics = slices.Sorted(maps.Keys(s.diagnostics))
	if bt := s.batch; bt != nil {
		snap.BatchActive = true
		snap.BatchRoot = bt.root
		snap.BatchRemaining = len(bt.files) - bt.index
		snap.PendingSignatures = len(bt.signatures)
	}
	return snap
}
