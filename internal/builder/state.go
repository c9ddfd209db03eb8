package builder

import (
	"fmt"

	"ripple/internal/builder/graph"
	"ripple/internal/compile"
	"ripple/internal/diag"
	"ripple/internal/source"
)

// Host supplies the environment the driver needs from its caller.
type Host struct {
	// CaseSensitivePaths selects the Path canonicalization policy.
	CaseSensitivePaths bool
	// Hash derives file versions and shape signatures.
	// Defaults to source.IdentityHash.
	Hash source.HashFn
	// WriteFile receives emitted outputs when no per-call writer is given.
	// Nil falls through to the program's own sink.
	WriteFile compile.WriteFile
}

func (h Host) hashFn() source.HashFn {
	if h.Hash != nil {
		return h.Hash
	}
	return source.IdentityHash
}

// affectedBatch is the batch-in-progress sub-object: the affected files of
// one changed root mid-iteration. A nil batch means the iterator is idle, so
// the illegal mixed states (files without a root, pending signatures without
// a batch) are unrepresentable.
type affectedBatch struct {
	root    source.Path
	files   []*compile.File
	index   int
	yielded bool // files[index] has been handed out but not committed
	// signatures are pending until the batch drains; until then every
	// queried signature reads the pre-batch value.
	signatures map[source.Path]string
}

// programState holds everything the driver knows about one program snapshot.
type programState struct {
	program   compile.Program
	graph     *graph.State
	hash      source.HashFn
	writeFile compile.WriteFile
	bundled   bool

	// changed holds the roots still pending affected-file expansion.
	changed *pathSet
	batch   *affectedBatch
	// seen holds every path committed in this state generation; a later
	// batch containing an already-processed file skips it instead of
	// redoing the work.
	seen map[source.Path]struct{}
	// diagnostics caches semantic diagnostics per file; nil in bundled mode.
	diagnostics map[source.Path][]diag.Diagnostic
}

// newProgramState is the diff engine: it builds a fresh state for prog and,
// when the old state is structurally compatible, carries forward its changed
// roots, shape signatures, and the diagnostics of files proven unchanged.
// The old program and old state are not retained.
func newProgramState(prog compile.Program, host Host, old *programState) *programState {
	hash := host.hashFn()
	canonical := source.NewCanonicalFn(host.CaseSensitivePaths)
	opts := prog.Options()

	reuse := old != nil && graph.CanReuseOldState(opts.TrackReferences, old.graph)
	var oldGraph *graph.State
	if reuse {
		oldGraph = old.graph
	}

	s := &programState{
		program:   prog,
		graph:     graph.Create(prog, canonical, hash, oldGraph),
		hash:      hash,
		writeFile: host.WriteFile,
		bundled:   opts.BundledOutput,
		changed:   newPathSet(),
		seen:      make(map[source.Path]struct{}),
	}
	if !s.bundled {
		s.diagnostics = make(map[source.Path][]diag.Diagnostic)
	}

	copyDiagnostics := reuse && s.diagnostics != nil && old.diagnostics != nil
	if reuse {
		old.assertConsistent()
		if copyDiagnostics {
			for _, p := range old.changed.paths() {
				if _, ok := old.diagnostics[p]; ok {
					panic(fmt.Sprintf("builder: changed file %q has cached diagnostics", p))
				}
			}
		}
		// переносим только корни, существующие в новой программе;
		// удалённые цели поймает правило про удалённые ссылки ниже
		for _, p := range old.changed.paths() {
			if _, ok := s.graph.FileInfos[p]; ok {
				s.changed.add(p)
			}
		}
	}

	for _, p := range s.graph.Paths() {
		if !reuse {
			s.changed.add(p)
			continue
		}
		oldInfo, existed := old.graph.FileInfos[p]
		switch {
		case !existed:
			s.changed.add(p)
		case oldInfo.Version != s.graph.FileInfos[p].Version:
			s.changed.add(p)
		case !graph.SameReferences(old.graph, s.graph, p):
			s.changed.add(p)
		case s.referenceTargetDeleted(old, p):
			// a cached result could otherwise survive into a program where
			// resolution now fails
			s.changed.add(p)
		default:
			if copyDiagnostics {
				if d, ok := old.diagnostics[p]; ok {
					s.diagnostics[p] = d
				}
			}
		}
	}
	return s
}

// referenceTargetDeleted reports whether any file referenced by p existed in
// the old program but is gone from the new one.
func (s *programState) referenceTargetDeleted(old *programState, p source.Path) bool {
	for ref := range s.graph.ReferencedMap[p] {
		if _, inOld := old.graph.FileInfos[ref]; !inOld {
			continue
		}
		if _, inNew := s.graph.FileInfos[ref]; !inNew {
			return true
		}
	}
	return false
}

// assertConsistent fails fast on iteration state that violates its own
// invariants; such a state is a programmer error, not recoverable input.
func (s *programState) assertConsistent() {
	b := s.batch
	if b == nil {
		return
	}
	if len(b.files) == 0 {
		panic("builder: active batch with no affected files")
	}
	if b.index < 0 || b.index > len(b.files) {
		panic(fmt.Sprintf("builder: affected cursor %d out of range [0,%d]", b.index, len(b.files)))
	}
	if !s.changed.has(b.root) {
		panic(fmt.Sprintf("builder: active batch root %q is not a changed file", b.root))
	}
}
