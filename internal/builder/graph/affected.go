package graph

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"ripple/internal/compile"
	"ripple/internal/source"
)

// FilesAffectedBy expands one changed root into the ordered sequence of files
// whose semantic analysis must be redone: the root itself plus, when the
// root's shape changed, every file reachable over reverse references through
// shape-changed files. Recomputed signatures go into out, never into
// FileInfos; the caller commits them with UpdateSignaturesFromCache once the
// batch fully drains.
func FilesAffectedBy(ctx context.Context, st *State, root source.Path, hash source.HashFn, out map[source.Path]string) ([]*compile.File, error) {
	rf := st.files[root]
	if rf == nil {
		panic(fmt.Sprintf("graph: affected root %q is not part of the program", root))
	}
	newSig := hash(rf.Shape)
	out[root] = newSig

	if st.ReferencedMap == nil {
		// без карты ссылок любое изменение затрагивает всю программу
		affected := make([]*compile.File, 0, len(st.order))
		for _, p := range st.order {
			affected = append(affected, st.files[p])
		}
		return affected, nil
	}

	affected := []*compile.File{rf}
	if newSig == st.FileInfos[root].Signature {
		// содержимое изменилось, форма — нет; вниз по графу не идём
		return affected, nil
	}

	seen := map[source.Path]struct{}{root: {}}
	queue := []source.Path{root}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := queue[0]
		queue = queue[1:]
		// queue holds only files whose shape changed
		for _, ref := range sortedPaths(st.referencedBy[p]) {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			f := st.files[ref]
			if f == nil {
				continue
			}
			sig := hash(f.Shape)
			out[ref] = sig
			affected = append(affected, f)
			if sig != st.FileInfos[ref].Signature {
				queue = append(queue, ref)
			}
		}
	}
	return affected, nil
}

// UpdateSignaturesFromCache flushes pending signatures into FileInfos.
func UpdateSignaturesFromCache(st *State, signatures map[source.Path]string) {
	for p, sig := range signatures {
		if info := st.FileInfos[p]; info != nil {
			info.Signature = sig
		}
	}
}

// AllDependencies returns the transitive closure of file's forward references
// (the file itself first), or every program file when references are not
// tracked.
func AllDependencies(st *State, file *compile.File) []source.Path {
	if st.ReferencedMap == nil {
		return slices.Clone(st.order)
	}
	start := st.PathOf(file)
	deps := []source.Path{start}
	seen := map[source.Path]struct{}{start: {}}
	queue := []source.Path{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, ref := range sortedPaths(st.ReferencedMap[p]) {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			if _, exists := st.FileInfos[ref]; !exists {
				// битая ссылка: цели нет в программе
				continue
			}
			deps = append(deps, ref)
			queue = append(queue, ref)
		}
	}
	return deps
}

func sortedPaths(set ReferencedSet) []source.Path {
	if len(set) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(set))
}
