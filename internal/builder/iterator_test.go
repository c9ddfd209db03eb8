package builder_test

import (
	"context"
	"errors"
	"testing"

	"ripple/internal/builder"
	"ripple/internal/compile"
	"ripple/internal/source"
	"ripple/internal/testkit"
)

// nextName drives the iterator one step and returns the yielded file name,
// "" for the whole program, and ok=false on exhaustion.
func nextName(t *testing.T, b *builder.DiagnosticsBuilder) (string, bool) {
	t.Helper()
	ad, err := b.NextAffectedDiagnostics(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if ad == nil {
		return "", false
	}
	if ad.Affected.Whole {
		return "", true
	}
	return ad.Affected.File.Name, true
}

func TestIteration_SingleEditPropagation(t *testing.T) {
	prog1 := defaultChain()
	b1 := builder.NewDiagnosticsBuilder(prog1, host, nil)
	drain(t, b1)

	// a's shape changes: b must be re-analyzed; b's shape does not change,
	// so c stays untouched
	prog2 := chain("a2", "pub a2", "b1", "pub b", "c1", "pub c")
	b2 := builder.NewDiagnosticsBuilder(prog2, host, b1)

	var got []string
	for {
		name, ok := nextName(t, b2)
		if !ok {
			break
		}
		got = append(got, name)
	}
	want := []string{"a.mini", "b.mini"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("iteration order = %v, want %v", got, want)
	}
	if prog2.SemanticCalls["c.mini"] != 0 {
		t.Fatal("c.mini must not be re-analyzed")
	}
	if err := testkit.CheckExhausted(b2.Snapshot()); err != nil {
		t.Fatal(err)
	}
}

func TestIteration_CancellationIdempotence(t *testing.T) {
	prog1 := defaultChain()
	b1 := builder.NewDiagnosticsBuilder(prog1, host, nil)
	drain(t, b1)

	prog2 := chain("a2", "pub a2", "b1", "pub b", "c1", "pub c")
	cancelErr := errors.New("operation canceled")
	prog2.FailSemanticOnce["a.mini"] = cancelErr
	b2 := builder.NewDiagnosticsBuilder(prog2, host, b1)

	if _, err := b2.NextAffectedDiagnostics(context.Background(), nil); !errors.Is(err, cancelErr) {
		t.Fatalf("expected the scripted cancellation, got %v", err)
	}

	// no state change beyond the eviction of a's cache entry
	snap := b2.Snapshot()
	if len(snap.Changed) == 0 || snap.Changed[0] != "a.mini" {
		t.Fatalf("changed roots after cancellation = %v, want a.mini pending", snap.Changed)
	}
	for _, p := range snap.CachedDiagnostics {
		if p == "a.mini" {
			t.Fatal("the yielded file's cache entry must be evicted")
		}
	}

	// the retry yields the same file
	ad, err := b2.NextAffectedDiagnostics(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if ad == nil || ad.Affected.File == nil || ad.Affected.File.Name != "a.mini" {
		t.Fatalf("retry must yield a.mini again, got %+v", ad)
	}
}

func TestIteration_SignaturesCommitAtBatchBoundary(t *testing.T) {
	prog1 := defaultChain()
	b1 := builder.NewDiagnosticsBuilder(prog1, host, nil)
	drain(t, b1)

	sigOf := func(b *builder.DiagnosticsBuilder, p source.Path) string {
		for _, f := range b.Snapshot().Files {
			if f.Path == p {
				return f.Signature
			}
		}
		t.Fatalf("no snapshot entry for %s", p)
		return ""
	}

	prog2 := chain("a2", "pub a2", "b1", "pub b", "c1", "pub c")
	b2 := builder.NewDiagnosticsBuilder(prog2, host, b1)
	if sig := sigOf(b2, "a.mini"); sig != "pub a" {
		t.Fatalf("pre-batch signature = %q, want the committed old one", sig)
	}

	// batch {a, b}: both yields leave the signature uncommitted
	for range 2 {
		if _, ok := nextName(t, b2); !ok {
			t.Fatal("unexpected exhaustion")
		}
		if sig := sigOf(b2, "a.mini"); sig != "pub a" {
			t.Fatalf("mid-batch signature = %q; pending signatures leaked", sig)
		}
	}
	// the drain call flushes the batch
	if _, ok := nextName(t, b2); ok {
		t.Fatal("expected exhaustion")
	}
	if sig := sigOf(b2, "a.mini"); sig != "pub a2" {
		t.Fatalf("post-batch signature = %q, want the new shape", sig)
	}
}

func TestIteration_BundledCollapse(t *testing.T) {
	mk := func() *testkit.Program {
		return testkit.NewProgram(
			compile.Options{BundledOutput: true, TrackReferences: true},
			testkit.File("a.mini", "a1", "pub a"),
			testkit.File("b.mini", "b1", "pub b", "a.mini"),
		)
	}
	b1 := builder.NewDiagnosticsBuilder(mk(), host, nil)

	ad, err := b1.NextAffectedDiagnostics(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if ad == nil || !ad.Affected.Whole {
		t.Fatalf("bundled mode must yield the whole program, got %+v", ad)
	}
	ad, err = b1.NextAffectedDiagnostics(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if ad != nil {
		t.Fatalf("the sentinel commits the entire changed set, got %+v", ad)
	}
	if err := testkit.CheckExhausted(b1.Snapshot()); err != nil {
		t.Fatal(err)
	}
}

func TestIteration_IgnorePredicate(t *testing.T) {
	prog1 := testkit.NewProgram(
		compile.Options{TrackReferences: true},
		testkit.File("x.mini", "x1", "pub x"),
		testkit.File("y.mini", "y1", "pub y"),
	)
	b1 := builder.NewDiagnosticsBuilder(prog1, host, nil)

	ignoreX := func(p source.Path) bool { return p == "x.mini" }
	ad, err := b1.NextAffectedDiagnostics(context.Background(), ignoreX)
	if err != nil {
		t.Fatal(err)
	}
	if ad == nil || ad.Affected.File == nil || ad.Affected.File.Name != "y.mini" {
		t.Fatalf("expected the first non-ignored file, got %+v", ad)
	}
	if prog1.SemanticCalls["x.mini"] != 0 {
		t.Fatal("ignored file must be committed without analysis")
	}
	if ad2, err := b1.NextAffectedDiagnostics(context.Background(), ignoreX); err != nil || ad2 != nil {
		t.Fatalf("iterator must be exhausted, got %+v, %v", ad2, err)
	}
	if err := testkit.CheckExhausted(b1.Snapshot()); err != nil {
		t.Fatal(err)
	}
}

func TestIteration_ContextCancellation(t *testing.T) {
	prog := defaultChain()
	b := builder.NewDiagnosticsBuilder(prog, host, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.NextAffectedDiagnostics(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// state stays usable after the cancellation
	if _, ok := nextName(t, b); !ok {
		t.Fatal("iterator must resume after cancellation")
	}
}
