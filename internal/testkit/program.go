// Package testkit provides the scriptable compiler program and the invariant
// checks shared by the driver tests.
package testkit

import (
	"context"
	"strings"

	"ripple/internal/compile"
	"ripple/internal/diag"
)

// File builds a test source file. Version is left empty so the driver derives
// it from the text: editing the text is editing the version.
func File(name, text, shape string, refs ...string) *compile.File {
	return &compile.File{
		Name:  name,
		Text:  []byte(text),
		Shape: []byte(shape),
		Refs:  refs,
	}
}

// Program is a scriptable compile.Program. Tests populate Semantic with the
// diagnostics each file should produce and inspect the call counters to
// verify what the driver actually asked for.
type Program struct {
	Opts compile.Options
	Dir  string

	// Semantic scripts per-file semantic diagnostics, keyed by file name.
	Semantic map[string][]diag.Diagnostic
	// Syntactic scripts per-file syntactic diagnostics, keyed by file name.
	Syntactic map[string][]diag.Diagnostic
	// FailSemanticOnce makes the next semantic query for a file fail with
	// the given error, then clears itself. Simulates cancellation mid-work.
	FailSemanticOnce map[string]error
	// FailEmitOnce does the same for emit targets.
	FailEmitOnce map[string]error
	// SkipEmit marks files whose emit is reported as skipped.
	SkipEmit map[string]bool

	// SemanticCalls counts per-file semantic queries by file name.
	SemanticCalls map[string]int
	// WholeSemanticCalls counts whole-program semantic queries.
	WholeSemanticCalls int
	// EmitCalls records emit targets in order; "" is the whole program.
	EmitCalls []string
	// DefaultWrites records outputs written through the program's own sink
	// (used when no writer override is supplied).
	DefaultWrites map[string][]byte

	files []*compile.File
}

// NewProgram builds a Program over the given files.
func NewProgram(opts compile.Options, files ...*compile.File) *Program {
	return &Program{
		Opts:             opts,
		Dir:              "/test",
		Semantic:         make(map[string][]diag.Diagnostic),
		Syntactic:        make(map[string][]diag.Diagnostic),
		FailSemanticOnce: make(map[string]error),
		FailEmitOnce:     make(map[string]error),
		SkipEmit:         make(map[string]bool),
		SemanticCalls:    make(map[string]int),
		DefaultWrites:    make(map[string][]byte),
		files:            files,
	}
}

func (p *Program) Options() compile.Options  { return p.Opts }
func (p *Program) CurrentDirectory() string  { return p.Dir }
func (p *Program) SourceFiles() []*compile.File { return p.files }

func (p *Program) SourceFile(name string) *compile.File {
	for _, f := range p.files {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (p *Program) OptionsDiagnostics() []diag.Diagnostic { return nil }
func (p *Program) GlobalDiagnostics() []diag.Diagnostic  { return nil }

func (p *Program) SyntacticDiagnostics(file *compile.File) []diag.Diagnostic {
	if file == nil {
		return nil
	}
	return p.Syntactic[file.Name]
}

func (p *Program) SemanticDiagnostics(ctx context.Context, file *compile.File) ([]diag.Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if file == nil {
		p.WholeSemanticCalls++
		var out []diag.Diagnostic
		for _, f := range p.files {
			out = append(out, p.Semantic[f.Name]...)
		}
		return out, nil
	}
	if err, ok := p.FailSemanticOnce[file.Name]; ok {
		delete(p.FailSemanticOnce, file.Name)
		return nil, err
	}
	p.SemanticCalls[file.Name]++
	return p.Semantic[file.Name], nil
}

func (p *Program) Emit(ctx context.Context, file *compile.File, write compile.WriteFile, declarationsOnly bool, transformers *compile.Transformers) (compile.EmitResult, error) {
	if err := ctx.Err(); err != nil {
		return compile.EmitResult{}, err
	}
	if file == nil {
		p.EmitCalls = append(p.EmitCalls, "")
		var res compile.EmitResult
		for _, f := range p.files {
			one, err := p.emitOne(f, write, declarationsOnly, transformers)
			if err != nil {
				return res, err
			}
			res.Merge(one)
		}
		return res, nil
	}
	if err, ok := p.FailEmitOnce[file.Name]; ok {
		delete(p.FailEmitOnce, file.Name)
		return compile.EmitResult{}, err
	}
	p.EmitCalls = append(p.EmitCalls, file.Name)
	return p.emitOne(file, write, declarationsOnly, transformers)
}

func (p *Program) emitOne(file *compile.File, write compile.WriteFile, declarationsOnly bool, transformers *compile.Transformers) (compile.EmitResult, error) {
	if p.SkipEmit[file.Name] {
		return compile.EmitResult{EmitSkipped: true}, nil
	}
	data := append([]byte("emit:"), file.Text...)
	if declarationsOnly {
		data = append([]byte("decl:"), file.Shape...)
	}
	if transformers != nil {
		for _, t := range transformers.Before {
			data = t(file, data)
		}
		for _, t := range transformers.After {
			data = t(file, data)
		}
	}
	out := outputName(file.Name)
	if write != nil {
		if err := write(out, data); err != nil {
			return compile.EmitResult{}, err
		}
	} else {
		p.DefaultWrites[out] = data
	}
	return compile.EmitResult{
		EmittedFiles: []string{out},
		SourceMaps:   []compile.SourceMapEntry{{Input: file.Name, Output: out}},
	}, nil
}

func outputName(name string) string {
	return strings.TrimSuffix(name, ".mini") + ".out"
}
