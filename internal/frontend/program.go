package frontend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ripple/internal/compile"
	"ripple/internal/diag"
	"ripple/internal/source"
)

// Source is one input to a program snapshot.
type Source struct {
	// Name is the file name relative to the source root, slash-separated.
	Name string
	// Text is the raw content.
	Text []byte
	// Version is an optional precomputed content token; derived from Text
	// when empty.
	Version string
}

// Program is one immutable compilation snapshot over mini sources.
type Program struct {
	opts   compile.Options
	dir    string
	files  []*compile.File
	byName map[string]*compile.File
	parsed map[string]*parsedFile
}

// NewProgram parses every source and builds the snapshot. dir is the
// directory emitted outputs default to.
func NewProgram(dir string, sources []Source, opts compile.Options) *Program {
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })

	p := &Program{
		opts:   opts,
		dir:    dir,
		byName: make(map[string]*compile.File, len(sources)),
		parsed: make(map[string]*parsedFile, len(sources)),
	}
	for _, s := range sources {
		pf := parseSource(source.Path(s.Name), s.Text)
		version := s.Version
		if version == "" {
			version = source.DigestHash(s.Text)
		}
		refs := make([]string, 0, len(pf.imports))
		for _, imp := range pf.imports {
			refs = append(refs, imp.file)
		}
		f := &compile.File{
			Name:    s.Name,
			Text:    s.Text,
			Shape:   shapeOf(pf),
			Refs:    refs,
			Version: version,
		}
		p.files = append(p.files, f)
		p.byName[s.Name] = f
		p.parsed[s.Name] = pf
	}
	return p
}

// shapeOf summarizes the externally visible declarations: the sorted pub
// heads. Editing a let body changes the version but not the shape.
func shapeOf(pf *parsedFile) []byte {
	heads := make([]string, 0, len(pf.decls))
	for _, d := range pf.decls {
		if d.kind == declPub {
			heads = append(heads, "pub "+d.name)
		}
	}
	sort.Strings(heads)
	return []byte(strings.Join(heads, "\n"))
}

func (p *Program) Options() compile.Options     { return p.opts }
func (p *Program) CurrentDirectory() string     { return p.dir }
func (p *Program) SourceFiles() []*compile.File { return p.files }

func (p *Program) SourceFile(name string) *compile.File {
	return p.byName[name]
}

func (p *Program) OptionsDiagnostics() []diag.Diagnostic { return nil }
func (p *Program) GlobalDiagnostics() []diag.Diagnostic  { return nil }

func (p *Program) SyntacticDiagnostics(file *compile.File) []diag.Diagnostic {
	if file == nil {
		var out []diag.Diagnostic
		for _, f := range p.files {
			out = append(out, p.SyntacticDiagnostics(f)...)
		}
		return out
	}
	pf := p.parsed[file.Name]
	if pf == nil {
		return nil
	}
	return pf.bag.Items()
}

func (p *Program) SemanticDiagnostics(ctx context.Context, file *compile.File) ([]diag.Diagnostic, error) {
	if file == nil {
		var out []diag.Diagnostic
		for _, f := range p.files {
			d, err := p.SemanticDiagnostics(ctx, f)
			if err != nil {
				return nil, err
			}
			out = append(out, d...)
		}
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pf := p.parsed[file.Name]
	if pf == nil {
		return nil, nil
	}
	return p.analyze(source.Path(file.Name), pf), nil
}

// analyze resolves imports and names for one file. The visible scope is the
// file's own declarations plus the pub declarations of every resolved import.
func (p *Program) analyze(path source.Path, pf *parsedFile) []diag.Diagnostic {
	bag := diag.NewBag(128)
	r := diag.BagReporter{Bag: bag}

	scope := make(map[string]struct{})
	declared := make(map[string]uint32, len(pf.decls))
	for _, d := range pf.decls {
		if firstLine, dup := declared[d.name]; dup {
			r.Report(diag.SemaDuplicateDecl, diag.SevError, path, d.line,
				fmt.Sprintf("%q is already declared on line %d", d.name, firstLine))
			continue
		}
		declared[d.name] = d.line
		scope[d.name] = struct{}{}
	}

	for _, imp := range pf.imports {
		target, ok := p.parsed[imp.file]
		if !ok {
			r.Report(diag.SemaUnresolvedImport, diag.SevError, path, imp.line,
				fmt.Sprintf("cannot resolve import %q", imp.raw))
			continue
		}
		for _, d := range target.decls {
			if d.kind == declPub {
				scope[d.name] = struct{}{}
			}
		}
	}

	for _, d := range pf.decls {
		for _, name := range identifiers(d.expr) {
			if _, ok := scope[name]; !ok {
				r.Report(diag.SemaUndefinedName, diag.SevError, path, d.line,
					fmt.Sprintf("unknown name %q in the body of %q", name, d.name))
			}
		}
	}

	bag.Sort()
	return bag.Items()
}

func (p *Program) Emit(ctx context.Context, file *compile.File, write compile.WriteFile, declarationsOnly bool, transformers *compile.Transformers) (compile.EmitResult, error) {
	if file == nil {
		if p.opts.BundledOutput {
			return p.emitBundle(ctx, write, declarationsOnly, transformers)
		}
		var res compile.EmitResult
		for _, f := range p.files {
			one, err := p.emitOne(ctx, f, write, declarationsOnly, transformers)
			if err != nil {
				return res, err
			}
			res.Merge(one)
		}
		return res, nil
	}
	return p.emitOne(ctx, file, write, declarationsOnly, transformers)
}

func (p *Program) emitOne(ctx context.Context, file *compile.File, write compile.WriteFile, declarationsOnly bool, transformers *compile.Transformers) (compile.EmitResult, error) {
	if err := ctx.Err(); err != nil {
		return compile.EmitResult{}, err
	}
	pf := p.parsed[file.Name]
	if pf == nil || pf.bag.HasErrors() {
		// broken inputs are reported, not emitted
		return compile.EmitResult{
			EmitSkipped: true,
			Diagnostics: p.SyntacticDiagnostics(file),
		}, nil
	}
	data := p.render(pf, declarationsOnly)
	data = applyTransformers(file, data, transformers)
	out := outputName(file.Name)
	if err := p.write(write, out, data); err != nil {
		return compile.EmitResult{}, err
	}
	return compile.EmitResult{
		EmittedFiles: []string{out},
		SourceMaps:   []compile.SourceMapEntry{{Input: file.Name, Output: out}},
	}, nil
}

func (p *Program) emitBundle(ctx context.Context, write compile.WriteFile, declarationsOnly bool, transformers *compile.Transformers) (compile.EmitResult, error) {
	var res compile.EmitResult
	var buf strings.Builder
	const out = "bundle.out"
	for _, f := range p.files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		pf := p.parsed[f.Name]
		if pf == nil || pf.bag.HasErrors() {
			res.EmitSkipped = true
			res.Diagnostics = append(res.Diagnostics, p.SyntacticDiagnostics(f)...)
			continue
		}
		data := applyTransformers(f, p.render(pf, declarationsOnly), transformers)
		fmt.Fprintf(&buf, "# %s\n%s", f.Name, data)
		res.SourceMaps = append(res.SourceMaps, compile.SourceMapEntry{Input: f.Name, Output: out})
	}
	if err := p.write(write, out, []byte(buf.String())); err != nil {
		return res, err
	}
	res.EmittedFiles = append(res.EmittedFiles, out)
	return res, nil
}

func (p *Program) render(pf *parsedFile, declarationsOnly bool) []byte {
	var buf strings.Builder
	for _, d := range pf.decls {
		switch {
		case declarationsOnly && d.kind == declPub:
			fmt.Fprintf(&buf, "pub %s\n", d.name)
		case !declarationsOnly:
			fmt.Fprintf(&buf, "%s = %s\n", d.name, d.expr)
		}
	}
	return []byte(buf.String())
}

func applyTransformers(file *compile.File, data []byte, transformers *compile.Transformers) []byte {
	if transformers == nil {
		return data
	}
	for _, t := range transformers.Before {
		data = t(file, data)
	}
	for _, t := range transformers.After {
		data = t(file, data)
	}
	return data
}

// write resolves the sink: the supplied writer, or the program's own default
// (a plain file under the program directory).
func (p *Program) write(write compile.WriteFile, name string, data []byte) error {
	if write != nil {
		return write(name, data)
	}
	full := filepath.Join(p.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %q: %w", full, err)
	}
	return nil
}

func outputName(name string) string {
	return strings.TrimSuffix(name, ".mini") + ".out"
}
