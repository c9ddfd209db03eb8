package statedump_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"ripple/internal/builder"
	"ripple/internal/compile"
	"ripple/internal/statedump"
	"ripple/internal/testkit"
)

func snapshotFixture(t *testing.T) builder.Snapshot {
	t.Helper()
	prog := testkit.NewProgram(
		compile.Options{TrackReferences: true},
		testkit.File("a.mini", "a1", "pub a"),
		testkit.File("b.mini", "b1", "pub b", "a.mini"),
	)
	b := builder.NewDiagnosticsBuilder(prog, builder.Host{CaseSensitivePaths: true}, nil)
	if _, err := b.SemanticDiagnostics(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	return b.Snapshot()
}

func TestEncodeDecode(t *testing.T) {
	snap := snapshotFixture(t)

	var buf bytes.Buffer
	if err := statedump.Encode(&buf, snap); err != nil {
		t.Fatal(err)
	}
	payload, err := statedump.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(payload.Files) != 2 {
		t.Fatalf("files = %d, want 2", len(payload.Files))
	}
	if payload.Files[0].Path != "a.mini" || payload.Files[0].Signature != "pub a" {
		t.Fatalf("unexpected first record: %+v", payload.Files[0])
	}
	if len(payload.Changed) != 0 || payload.BatchActive {
		t.Fatalf("drained state must serialize as idle: %+v", payload)
	}
	if len(payload.Cached) != 2 {
		t.Fatalf("cached = %v, want both files", payload.Cached)
	}
}

func TestWriteFile_Atomic(t *testing.T) {
	snap := snapshotFixture(t)
	path := filepath.Join(t.TempDir(), "dumps", "state.mp")

	if err := statedump.WriteFile(path, snap); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := statedump.Decode(f); err != nil {
		t.Fatal(err)
	}

	// no leftover temp files
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("dump dir entries = %d, want just the dump", len(entries))
	}
}
