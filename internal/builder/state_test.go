package builder_test

import (
	"context"
	"testing"

	"ripple/internal/builder"
	"ripple/internal/compile"
	"ripple/internal/diag"
	"ripple/internal/testkit"
)

var host = builder.Host{CaseSensitivePaths: true}

// chain builds the {a, b, c} program where b references a and c references b.
func chain(aText, aShape, bText, bShape, cText, cShape string) *testkit.Program {
	return testkit.NewProgram(
		compile.Options{TrackReferences: true},
		testkit.File("a.mini", aText, aShape),
		testkit.File("b.mini", bText, bShape, "a.mini"),
		testkit.File("c.mini", cText, cShape, "b.mini"),
	)
}

func defaultChain() *testkit.Program {
	return chain("a1", "pub a", "b1", "pub b", "c1", "pub c")
}

func drain(t *testing.T, b *builder.DiagnosticsBuilder) {
	t.Helper()
	if _, err := b.SemanticDiagnostics(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
}

func TestFirstBuild_EverythingChanged(t *testing.T) {
	prog := defaultChain()
	b := builder.NewDiagnosticsBuilder(prog, host, nil)

	snap := b.Snapshot()
	if len(snap.Changed) != 3 {
		t.Fatalf("first build must mark every file changed, got %v", snap.Changed)
	}
	if err := testkit.CheckSnapshot(snap); err != nil {
		t.Fatal(err)
	}
}

func TestRebuild_NoChange(t *testing.T) {
	prog1 := defaultChain()
	b1 := builder.NewDiagnosticsBuilder(prog1, host, nil)
	drain(t, b1)

	prog2 := defaultChain()
	b2 := builder.NewDiagnosticsBuilder(prog2, host, b1)

	snap := b2.Snapshot()
	if len(snap.Changed) != 0 {
		t.Fatalf("identical rebuild must start with an empty changed set, got %v", snap.Changed)
	}

	// the second round must be answered from the carried-forward cache
	if _, err := b2.SemanticDiagnostics(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	for name, n := range prog2.SemanticCalls {
		if n != 0 {
			t.Fatalf("file %s was re-analyzed %d times on a no-change rebuild", name, n)
		}
	}
	if prog2.WholeSemanticCalls != 0 {
		t.Fatal("no whole-program analysis expected on a no-change rebuild")
	}
}

func TestRebuild_ContentEdit(t *testing.T) {
	prog1 := defaultChain()
	b1 := builder.NewDiagnosticsBuilder(prog1, host, nil)
	drain(t, b1)

	prog2 := chain("a2", "pub a", "b1", "pub b", "c1", "pub c")
	b2 := builder.NewDiagnosticsBuilder(prog2, host, b1)

	snap := b2.Snapshot()
	if len(snap.Changed) != 1 || snap.Changed[0] != "a.mini" {
		t.Fatalf("changed = %v, want [a.mini]", snap.Changed)
	}
}

func TestRebuild_ReferenceSetEdit(t *testing.T) {
	prog1 := defaultChain()
	b1 := builder.NewDiagnosticsBuilder(prog1, host, nil)
	drain(t, b1)

	// same content, but c now references a instead of b
	prog2 := testkit.NewProgram(
		compile.Options{TrackReferences: true},
		testkit.File("a.mini", "a1", "pub a"),
		testkit.File("b.mini", "b1", "pub b", "a.mini"),
		testkit.File("c.mini", "c1", "pub c", "a.mini"),
	)
	b2 := builder.NewDiagnosticsBuilder(prog2, host, b1)

	snap := b2.Snapshot()
	if len(snap.Changed) != 1 || snap.Changed[0] != "c.mini" {
		t.Fatalf("changed = %v, want [c.mini]", snap.Changed)
	}
}

func TestRebuild_DeletedReferenceTarget(t *testing.T) {
	prog1 := testkit.NewProgram(
		compile.Options{TrackReferences: true},
		testkit.File("a.mini", "a1", "pub a", "b.mini"),
		testkit.File("b.mini", "b1", "pub b"),
	)
	b1 := builder.NewDiagnosticsBuilder(prog1, host, nil)
	drain(t, b1)

	// b is gone; a's own content and reference list are untouched
	prog2 := testkit.NewProgram(
		compile.Options{TrackReferences: true},
		testkit.File("a.mini", "a1", "pub a", "b.mini"),
	)
	b2 := builder.NewDiagnosticsBuilder(prog2, host, b1)

	snap := b2.Snapshot()
	if len(snap.Changed) != 1 || snap.Changed[0] != "a.mini" {
		t.Fatalf("changed = %v, want [a.mini]: a referenced a deleted file", snap.Changed)
	}
}

func TestRebuild_ReferenceTrackingMismatch(t *testing.T) {
	prog1 := defaultChain()
	b1 := builder.NewDiagnosticsBuilder(prog1, host, nil)
	drain(t, b1)

	prog2 := testkit.NewProgram(
		compile.Options{TrackReferences: false},
		testkit.File("a.mini", "a1", "pub a"),
		testkit.File("b.mini", "b1", "pub b"),
		testkit.File("c.mini", "c1", "pub c"),
	)
	b2 := builder.NewDiagnosticsBuilder(prog2, host, b1)

	snap := b2.Snapshot()
	if len(snap.Changed) != 3 {
		t.Fatalf("reference-map presence mismatch must invalidate everything, got %v", snap.Changed)
	}
}

func TestRebuild_CopiesDiagnosticsForward(t *testing.T) {
	prog1 := defaultChain()
	wantDiag := diag.NewError(diag.SemaUndefinedName, "c.mini", 4, "unknown name q")
	prog1.Semantic["c.mini"] = []diag.Diagnostic{wantDiag}
	b1 := builder.NewDiagnosticsBuilder(prog1, host, nil)
	drain(t, b1)

	// only a changes; c's cached diagnostics must survive the transfer
	prog2 := chain("a2", "pub a", "b1", "pub b", "c1", "pub c")
	prog2.Semantic["c.mini"] = []diag.Diagnostic{wantDiag}
	b2 := builder.NewDiagnosticsBuilder(prog2, host, b1)

	all, err := b2.SemanticDiagnostics(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0] != wantDiag {
		t.Fatalf("diagnostics = %v, want the cached entry for c.mini", all)
	}
	if prog2.SemanticCalls["c.mini"] != 0 {
		t.Fatal("c.mini must be answered from the copied cache")
	}
	if err := testkit.CheckExhausted(b2.Snapshot()); err != nil {
		t.Fatal(err)
	}
}

func TestRebuild_DroppedFileDoesNotLingerAsRoot(t *testing.T) {
	prog1 := testkit.NewProgram(
		compile.Options{TrackReferences: true},
		testkit.File("a.mini", "a1", "pub a"),
		testkit.File("b.mini", "b1", "pub b"),
	)
	b1 := builder.NewDiagnosticsBuilder(prog1, host, nil)
	// no drain: both roots still pending when b disappears

	prog2 := testkit.NewProgram(
		compile.Options{TrackReferences: true},
		testkit.File("a.mini", "a1", "pub a"),
	)
	b2 := builder.NewDiagnosticsBuilder(prog2, host, b1)

	for _, p := range b2.Snapshot().Changed {
		if p == "b.mini" {
			t.Fatal("deleted file must not survive as a changed root")
		}
	}
}
