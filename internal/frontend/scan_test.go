package frontend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, text := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(text), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScan_GlobsAndExcludes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.mini":          "pub a = 1",
		"lib/util.mini":      "pub b = 2",
		"vendor/dep.mini":    "pub c = 3",
		"notes.txt":          "not a source",
		"lib/readme.md":      "also not",
	})

	s := NewScanner()
	sources, err := s.Scan(context.Background(), root, []string{"**/*.mini"}, []string{"vendor/**"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(sources))
	}
	// sorted slash-separated names
	if sources[0].Name != "lib/util.mini" || sources[1].Name != "main.mini" {
		t.Fatalf("names = %s, %s", sources[0].Name, sources[1].Name)
	}
	if sources[0].Version == "" {
		t.Fatal("scan must precompute versions")
	}
}

func TestScan_ReusesDigests(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.mini": "pub a = 1"})

	s := NewScanner()
	first, err := s.Scan(context.Background(), root, []string{"**/*.mini"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Scan(context.Background(), root, []string{"**/*.mini"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first[0].Version != second[0].Version {
		t.Fatal("unchanged file must keep its version across rescans")
	}

	// an edit must produce a new version even when the cache is warm
	writeTree(t, root, map[string]string{"a.mini": "pub a = 2"})
	third, err := s.Scan(context.Background(), root, []string{"**/*.mini"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if third[0].Version == first[0].Version {
		t.Fatal("edited file must get a fresh version")
	}
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.mini": "pub a = 1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewScanner().Scan(ctx, root, []string{"**/*.mini"}, nil); err == nil {
		t.Fatal("expected a cancellation error")
	}
}
