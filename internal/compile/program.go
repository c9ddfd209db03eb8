package compile

import (
	"context"

	"ripple/internal/diag"
)

// Options carries the compiler configuration the build driver recognizes.
type Options struct {
	// BundledOutput collapses emit into a single output unit. It disables
	// the per-file diagnostics cache: the only affected unit is the whole
	// program.
	BundledOutput bool
	// TrackReferences enables the reference map. Without it any change
	// invalidates the whole program.
	TrackReferences bool
}

// WriteFile receives one emitted output.
type WriteFile func(name string, data []byte) error

// Transformer rewrites emitted text for one file.
type Transformer func(file *File, data []byte) []byte

// Transformers are custom rewrites applied around the default emit text.
type Transformers struct {
	Before []Transformer
	After  []Transformer
}

// SourceMapEntry records which output a given input produced.
type SourceMapEntry struct {
	Input  string
	Output string
}

// EmitResult captures the outcome of one emit call.
type EmitResult struct {
	EmitSkipped  bool
	Diagnostics  []diag.Diagnostic
	EmittedFiles []string
	SourceMaps   []SourceMapEntry
}

// Merge folds another result into r: EmitSkipped is a logical OR, the
// slices are concatenated.
func (r *EmitResult) Merge(other EmitResult) {
	r.EmitSkipped = r.EmitSkipped || other.EmitSkipped
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
	r.EmittedFiles = append(r.EmittedFiles, other.EmittedFiles...)
	r.SourceMaps = append(r.SourceMaps, other.SourceMaps...)
}

// Program is one compilation snapshot. Operations that may do long work or
// I/O (semantic diagnostics, emit) take a context and are expected to poll
// it; everything else is cheap and synchronous.
//
// A nil file argument means "the whole program" where the operation admits it.
type Program interface {
	Options() Options
	CurrentDirectory() string
	SourceFile(name string) *File
	SourceFiles() []*File
	OptionsDiagnostics() []diag.Diagnostic
	GlobalDiagnostics() []diag.Diagnostic
	SyntacticDiagnostics(file *File) []diag.Diagnostic
	SemanticDiagnostics(ctx context.Context, file *File) ([]diag.Diagnostic, error)
	Emit(ctx context.Context, file *File, write WriteFile, declarationsOnly bool, transformers *Transformers) (EmitResult, error)
}
