package frontend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"ripple/internal/compile"
	"ripple/internal/project"
	"ripple/internal/source"
)

const scanCacheSize = 512

type cacheEntry struct {
	mtime   int64
	size    int64
	text    []byte
	version string
}

// Scanner loads mini sources from disk. Content digests are reused across
// rescans when a file's mtime and size are unchanged, so watch-mode rounds
// stay cheap.
type Scanner struct {
	cache *lru.Cache[string, cacheEntry]
}

// NewScanner creates a Scanner with a bounded digest cache.
func NewScanner() *Scanner {
	cache, err := lru.New[string, cacheEntry](scanCacheSize)
	if err != nil {
		panic(fmt.Errorf("scan cache: %w", err))
	}
	return &Scanner{cache: cache}
}

// Scan collects every source under root matching the include globs and not
// matching the exclude globs, loading and hashing files in parallel.
func (s *Scanner) Scan(ctx context.Context, root string, include, exclude []string) ([]Source, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	var names []string
	for _, pattern := range include {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("bad include pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			if excluded(m, exclude) {
				continue
			}
			seen[m] = struct{}{}
			names = append(names, m)
		}
	}
	sort.Strings(names)

	out := make([]Source, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := s.load(root, name)
			if err != nil {
				return err
			}
			out[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Scanner) load(root, name string) (Source, error) {
	full := filepath.Join(root, filepath.FromSlash(name))
	info, err := os.Stat(full)
	if err != nil {
		return Source{}, fmt.Errorf("failed to stat %q: %w", full, err)
	}
	if entry, ok := s.cache.Get(full); ok &&
		entry.mtime == info.ModTime().UnixNano() && entry.size == info.Size() {
		return Source{Name: name, Text: entry.text, Version: entry.version}, nil
	}
	// #nosec G304 -- path comes from the manifest's include globs
	text, err := os.ReadFile(full)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read %q: %w", full, err)
	}
	version := source.DigestHash(text)
	s.cache.Add(full, cacheEntry{
		mtime:   info.ModTime().UnixNano(),
		size:    info.Size(),
		text:    text,
		version: version,
	})
	return Source{Name: name, Text: text, Version: version}, nil
}

func excluded(name string, exclude []string) bool {
	for _, pattern := range exclude {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Load scans the manifest's source root and builds a program snapshot from
// what it finds.
func (s *Scanner) Load(ctx context.Context, m *project.Manifest) (*Program, error) {
	root := m.SourceRoot()
	sources, err := s.Scan(ctx, root, m.Config.Source.Include, m.Config.Source.Exclude)
	if err != nil {
		return nil, err
	}
	opts := compile.Options{
		BundledOutput:   m.Config.Build.Bundle,
		TrackReferences: true,
	}
	return NewProgram(root, sources, opts), nil
}
