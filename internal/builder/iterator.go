package builder

import (
	"context"
	"fmt"

	"ripple/internal/builder/graph"
	"ripple/internal/compile"
	"ripple/internal/source"
)

// Affected identifies the next unit of work yielded by the iterator: a single
// source file, or the whole program when output is bundled.
type Affected struct {
	File  *compile.File // nil when Whole is set
	Whole bool
}

// affectedPath returns the canonical path of an affected file; empty for the
// whole program.
func (s *programState) affectedPath(a *Affected) source.Path {
	if a.Whole {
		return ""
	}
	return s.graph.PathOf(a.File)
}

// nextAffected yields the next unit that requires work, or nil when iteration
// is complete. The yield is tentative: the same unit is yielded again until
// the caller confirms it with doneWith, so a cancellation between the two
// leaves no trace beyond the eviction of the yielded file's cached
// diagnostics.
func (s *programState) nextAffected(ctx context.Context) (*Affected, error) {
	for {
		if b := s.batch; b != nil {
			for b.index < len(b.files) {
				f := b.files[b.index]
				p := s.graph.PathOf(f)
				if _, done := s.seen[p]; !done {
					// eviction at yield time: no stale entry may survive a
					// partially completed operation
					delete(s.diagnostics, p)
					b.yielded = true
					return &Affected{File: f}, nil
				}
				b.index++
			}
			// batch drained: the root is no longer changed and the pending
			// signatures become visible
			s.changed.remove(b.root)
			graph.UpdateSignaturesFromCache(s.graph, b.signatures)
			s.batch = nil
		}

		root, ok := s.changed.first()
		if !ok {
			return nil, nil
		}
		if s.bundled {
			return &Affected{Whole: true}, nil
		}

		signatures := make(map[source.Path]string)
		files, err := graph.FilesAffectedBy(ctx, s.graph, root, s.hash, signatures)
		if err != nil {
			return nil, err
		}
		s.batch = &affectedBatch{
			root:       root,
			files:      files,
			signatures: signatures,
		}
	}
}

// doneWith commits progress on the last yielded unit.
func (s *programState) doneWith(a *Affected) {
	if a.Whole {
		s.changed.clear()
		return
	}
	b := s.batch
	if b == nil || !b.yielded || b.index >= len(b.files) {
		panic("builder: doneWith without a yielded affected file")
	}
	p := s.graph.PathOf(a.File)
	if cur := s.graph.PathOf(b.files[b.index]); cur != p {
		panic(fmt.Sprintf("builder: doneWith(%q) does not match the yielded file %q", p, cur))
	}
	s.seen[p] = struct{}{}
	if p != b.root {
		// a changed file committed inside another root's batch leaves the
		// changed set: this batch already recomputed its signature, and no
		// changed file may keep a cached entry
		s.changed.remove(p)
	}
	b.index++
	b.yielded = false
}

// assertNotYielded guards reads that would let a cached result outlive a
// cancellation: the most recently yielded but uncommitted file must go
// through the iterator, not the ad-hoc query paths.
func (s *programState) assertNotYielded(p source.Path) {
	b := s.batch
	if b == nil || !b.yielded || b.index >= len(b.files) {
		return
	}
	if s.graph.PathOf(b.files[b.index]) == p {
		panic(fmt.Sprintf("builder: file %q is mid-iteration; commit it with doneWith first", p))
	}
}
