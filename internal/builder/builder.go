package builder

import (
	"context"

	"ripple/internal/builder/graph"
	"ripple/internal/compile"
	"ripple/internal/diag"
	"ripple/internal/source"
)

// Builder is the façade state shared by both variants. Pass-through
// operations consult the wrapped program directly; the cached paths go
// through the state.
type Builder struct {
	state *programState
}

// Program returns the wrapped compilation snapshot.
func (b *Builder) Program() compile.Program {
	return b.state.program
}

func (b *Builder) CompilerOptions() compile.Options {
	return b.state.program.Options()
}

func (b *Builder) SourceFile(name string) *compile.File {
	return b.state.program.SourceFile(name)
}

func (b *Builder) SourceFiles() []*compile.File {
	return b.state.program.SourceFiles()
}

func (b *Builder) OptionsDiagnostics() []diag.Diagnostic {
	return b.state.program.OptionsDiagnostics()
}

func (b *Builder) GlobalDiagnostics() []diag.Diagnostic {
	return b.state.program.GlobalDiagnostics()
}

func (b *Builder) SyntacticDiagnostics(file *compile.File) []diag.Diagnostic {
	return b.state.program.SyntacticDiagnostics(file)
}

// AllDependencies returns the transitive reference closure of file.
func (b *Builder) AllDependencies(file *compile.File) []source.Path {
	return graph.AllDependencies(b.state.graph, file)
}

// DiagnosticsBuilder is the diagnostics-only variant: it drives the affected
// iterator through diagnostics queries and never emits.
type DiagnosticsBuilder struct {
	Builder
}

// NewDiagnosticsBuilder wraps prog, seeding the state from old when the old
// state is compatible. Neither the old builder's program nor its state is
// retained.
func NewDiagnosticsBuilder(prog compile.Program, host Host, old *DiagnosticsBuilder) *DiagnosticsBuilder {
	var oldState *programState
	if old != nil {
		oldState = old.state
	}
	return &DiagnosticsBuilder{Builder{state: newProgramState(prog, host, oldState)}}
}

// AffectedDiagnostics couples a yielded unit with its semantic diagnostics.
type AffectedDiagnostics struct {
	Affected    Affected
	Diagnostics []diag.Diagnostic
}

// NextAffectedDiagnostics advances the iterator by one unit and returns its
// diagnostics, or nil when iteration is complete. Files for which ignore
// returns true are committed without being analyzed.
func (b *DiagnosticsBuilder) NextAffectedDiagnostics(ctx context.Context, ignore func(source.Path) bool) (*AffectedDiagnostics, error) {
	s := b.state
	for {
		a, err := s.nextAffected(ctx)
		if err != nil || a == nil {
			return nil, err
		}
		if a.Whole {
			d, err := s.program.SemanticDiagnostics(ctx, nil)
			if err != nil {
				return nil, err
			}
			s.doneWith(a)
			return &AffectedDiagnostics{Affected: *a, Diagnostics: d}, nil
		}
		if ignore != nil && ignore(s.affectedPath(a)) {
			s.doneWith(a)
			continue
		}
		d, err := s.semanticDiagnostics(ctx, a.File)
		if err != nil {
			// без doneWith: повторный вызов выдаст тот же файл
			return nil, err
		}
		s.doneWith(a)
		return &AffectedDiagnostics{Affected: *a, Diagnostics: d}, nil
	}
}

// SemanticDiagnostics returns diagnostics for one file, or for the whole
// program when file is nil. The whole-program form first drains the affected
// iterator so the cache reflects the new program, then concatenates the
// per-file caches.
func (b *DiagnosticsBuilder) SemanticDiagnostics(ctx context.Context, file *compile.File) ([]diag.Diagnostic, error) {
	s := b.state
	if file != nil {
		return s.semanticDiagnosticsForFile(ctx, file)
	}
	if s.bundled {
		return s.program.SemanticDiagnostics(ctx, nil)
	}
	for {
		ad, err := b.NextAffectedDiagnostics(ctx, nil)
		if err != nil {
			return nil, err
		}
		if ad == nil {
			break
		}
	}
	var out []diag.Diagnostic
	for _, f := range s.program.SourceFiles() {
		d, err := s.semanticDiagnostics(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, d...)
	}
	return out, nil
}

// EmitBuilder is the emit+diagnostics variant: the affected iterator drives
// incremental emit, and diagnostics queries never force a drain.
type EmitBuilder struct {
	Builder
}

// NewEmitBuilder wraps prog, seeding the state from old when the old state is
// compatible. Neither the old builder's program nor its state is retained.
func NewEmitBuilder(prog compile.Program, host Host, old *EmitBuilder) *EmitBuilder {
	var oldState *programState
	if old != nil {
		oldState = old.state
	}
	return &EmitBuilder{Builder{state: newProgramState(prog, host, oldState)}}
}

// CurrentDirectory passes through to the program.
func (b *EmitBuilder) CurrentDirectory() string {
	return b.state.program.CurrentDirectory()
}

// SemanticDiagnostics returns diagnostics for one file, or for every program
// file when file is nil (cache or program, no forced drain).
func (b *EmitBuilder) SemanticDiagnostics(ctx context.Context, file *compile.File) ([]diag.Diagnostic, error) {
	s := b.state
	if file != nil {
		return s.semanticDiagnosticsForFile(ctx, file)
	}
	if s.bundled {
		return s.program.SemanticDiagnostics(ctx, nil)
	}
	var out []diag.Diagnostic
	for _, f := range s.program.SourceFiles() {
		d, err := s.semanticDiagnostics(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, d...)
	}
	return out, nil
}
