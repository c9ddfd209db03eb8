// Package graph is the reference-graph layer under the build driver: per-file
// content versions and shape signatures, the forward and reverse reference
// maps, and the affected-set expansion from a changed root.
package graph

import (
	"ripple/internal/compile"
	"ripple/internal/source"
)

// FileInfo tracks one file's content identity and shape signature.
// Signature stays empty until the file has been analyzed at least once in
// this state or an ancestor state.
type FileInfo struct {
	Version   string
	Signature string
}

// ReferencedSet holds the canonical paths one file references directly.
type ReferencedSet map[source.Path]struct{}

// State is the reference-graph snapshot for one program.
type State struct {
	Canonical source.CanonicalFn
	// FileInfos covers exactly the program's source files.
	FileInfos map[source.Path]*FileInfo
	// ReferencedMap is nil when the program does not track references; then
	// any change invalidates the whole program.
	ReferencedMap map[source.Path]ReferencedSet

	referencedBy map[source.Path]ReferencedSet
	files        map[source.Path]*compile.File
	order        []source.Path // program file order, canonicalized
}

// CanReuseOldState reports whether old may seed a new state: reference
// tracking must be on in both states or in neither.
func CanReuseOldState(tracksReferences bool, old *State) bool {
	if old == nil {
		return false
	}
	return (old.ReferencedMap != nil) == tracksReferences
}

// Create builds the graph snapshot for prog. When old is non-nil its shape
// signatures are carried forward per path; stale ones are recomputed later
// because a version mismatch marks the file changed.
func Create(prog compile.Program, canonical source.CanonicalFn, hash source.HashFn, old *State) *State {
	files := prog.SourceFiles()
	st := &State{
		Canonical: canonical,
		FileInfos: make(map[source.Path]*FileInfo, len(files)),
		files:     make(map[source.Path]*compile.File, len(files)),
		order:     make([]source.Path, 0, len(files)),
	}
	tracked := prog.Options().TrackReferences
	if tracked {
		st.ReferencedMap = make(map[source.Path]ReferencedSet, len(files))
		st.referencedBy = make(map[source.Path]ReferencedSet, len(files))
	}

	for _, f := range files {
		p := canonical(f.Name)
		version := f.Version
		if version == "" {
			version = hash(f.Text)
		}
		info := &FileInfo{Version: version}
		if old != nil {
			if oldInfo, ok := old.FileInfos[p]; ok {
				info.Signature = oldInfo.Signature
			}
		}
		st.FileInfos[p] = info
		st.files[p] = f
		st.order = append(st.order, p)

		if tracked {
			set := make(ReferencedSet, len(f.Refs))
			for _, r := range f.Refs {
				set[canonical(r)] = struct{}{}
			}
			st.ReferencedMap[p] = set
		}
	}

	if tracked {
		// обратный индекс для обхода затронутых файлов
		for from, set := range st.ReferencedMap {
			for to := range set {
				by := st.referencedBy[to]
				if by == nil {
					by = make(ReferencedSet)
					st.referencedBy[to] = by
				}
				by[from] = struct{}{}
			}
		}
	}
	return st
}

// File returns the program file for a canonical path, or nil.
func (s *State) File(path source.Path) *compile.File {
	return s.files[path]
}

// PathOf returns the canonical path of a program file.
func (s *State) PathOf(f *compile.File) source.Path {
	return s.Canonical(f.Name)
}

// Paths returns the canonical paths in program file order.
func (s *State) Paths() []source.Path {
	return s.order
}

// SameReferences reports whether path has the same reference-set membership
// in both states. Only key membership matters.
func SameReferences(old, next *State, path source.Path) bool {
	oldSet := old.ReferencedMap[path]
	newSet := next.ReferencedMap[path]
	if len(oldSet) != len(newSet) {
		return false
	}
	for p := range newSet {
		if _, ok := oldSet[p]; !ok {
			return false
		}
	}
	return true
}
