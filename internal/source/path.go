package source

import (
	"path/filepath"

	"golang.org/x/text/cases"
)

// NewCanonicalFn builds the canonicalizer for the given case policy.
// Names are cleaned and slash-normalized; on case-insensitive hosts they are
// additionally Unicode case-folded so that "Lib/Util.mini" and
// "lib/util.mini" map to the same Path.
func NewCanonicalFn(caseSensitive bool) CanonicalFn {
	if caseSensitive {
		return func(name string) Path {
			return Path(normalizeName(name))
		}
	}
	return func(name string) Path {
		return Path(cases.Fold().String(normalizeName(name)))
	}
}

func normalizeName(name string) string {
	if name == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(name))
}
