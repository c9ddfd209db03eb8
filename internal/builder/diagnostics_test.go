package builder_test

import (
	"context"
	"errors"
	"testing"

	"ripple/internal/builder"
	"ripple/internal/compile"
	"ripple/internal/diag"
	"ripple/internal/testkit"
)

func TestSemanticDiagnostics_MatchesProgram(t *testing.T) {
	prog := defaultChain()
	prog.Semantic["a.mini"] = []diag.Diagnostic{
		diag.NewError(diag.SemaUnresolvedImport, "a.mini", 1, "unresolved import"),
	}
	prog.Semantic["c.mini"] = []diag.Diagnostic{
		diag.NewWarning(diag.SemaUndefinedName, "c.mini", 2, "unknown name"),
	}
	b := builder.NewDiagnosticsBuilder(prog, host, nil)

	got, err := b.SemanticDiagnostics(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	// the builder's concatenation equals what the program would answer directly
	direct, err := prog.SemanticDiagnostics(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(direct) {
		t.Fatalf("got %d diagnostics, want %d", len(got), len(direct))
	}
	for i := range got {
		if got[i] != direct[i] {
			t.Fatalf("diagnostic %d = %+v, want %+v", i, got[i], direct[i])
		}
	}
}

func TestSemanticDiagnostics_PerFileCaching(t *testing.T) {
	prog := defaultChain()
	b := builder.NewDiagnosticsBuilder(prog, host, nil)
	drain(t, b)

	f := prog.SourceFile("b.mini")
	before := prog.SemanticCalls["b.mini"]
	for range 3 {
		if _, err := b.SemanticDiagnostics(context.Background(), f); err != nil {
			t.Fatal(err)
		}
	}
	if prog.SemanticCalls["b.mini"] != before {
		t.Fatal("repeated per-file queries must hit the cache")
	}
}

func TestSemanticDiagnostics_BundledBypassesCache(t *testing.T) {
	prog := testkit.NewProgram(
		compile.Options{BundledOutput: true},
		testkit.File("a.mini", "a1", "pub a"),
	)
	b := builder.NewDiagnosticsBuilder(prog, host, nil)

	f := prog.SourceFile("a.mini")
	for range 2 {
		if _, err := b.SemanticDiagnostics(context.Background(), f); err != nil {
			t.Fatal(err)
		}
	}
	if prog.SemanticCalls["a.mini"] != 2 {
		t.Fatalf("bundled mode must consult the program every time, got %d calls", prog.SemanticCalls["a.mini"])
	}
}

func TestSemanticDiagnostics_UncommittedYieldPanics(t *testing.T) {
	prog := defaultChain()
	cancelErr := errors.New("operation canceled")
	prog.FailSemanticOnce["a.mini"] = cancelErr
	b := builder.NewDiagnosticsBuilder(prog, host, nil)

	// leaves a.mini yielded but uncommitted
	if _, err := b.NextAffectedDiagnostics(context.Background(), nil); !errors.Is(err, cancelErr) {
		t.Fatalf("expected scripted failure, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("querying the uncommitted yielded file must panic")
		}
	}()
	_, _ = b.SemanticDiagnostics(context.Background(), prog.SourceFile("a.mini"))
}

func TestSnapshotInvariants_AcrossLifecycle(t *testing.T) {
	prog1 := defaultChain()
	b1 := builder.NewDiagnosticsBuilder(prog1, host, nil)
	if err := testkit.CheckSnapshot(b1.Snapshot()); err != nil {
		t.Fatal(err)
	}
	for {
		ad, err := b1.NextAffectedDiagnostics(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := testkit.CheckSnapshot(b1.Snapshot()); err != nil {
			t.Fatal(err)
		}
		if ad == nil {
			break
		}
	}
	if err := testkit.CheckExhausted(b1.Snapshot()); err != nil {
		t.Fatal(err)
	}

	prog2 := chain("a2", "pub a2", "b1", "pub b", "c1", "pub c")
	b2 := builder.NewDiagnosticsBuilder(prog2, host, b1)
	if err := testkit.CheckSnapshot(b2.Snapshot()); err != nil {
		t.Fatal(err)
	}
	drain(t, b2)
	if err := testkit.CheckExhausted(b2.Snapshot()); err != nil {
		t.Fatal(err)
	}
}
