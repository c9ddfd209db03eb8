package builder

import (
	"context"

	"ripple/internal/compile"
)

// writer resolves the writeFile precedence: per-call override, then the host
// writer, then nil so the program falls back to its own sink.
func (s *programState) writer(override compile.WriteFile) compile.WriteFile {
	if override != nil {
		return override
	}
	return s.writeFile
}

// AffectedEmit couples a yielded unit with its emit result.
type AffectedEmit struct {
	Affected Affected
	Result   compile.EmitResult
}

// EmitNextAffected advances the iterator by one unit and emits it, or returns
// nil when iteration is complete. The unit is committed only after a
// successful emit, so a cancelled emit is retried on the next call.
func (b *EmitBuilder) EmitNextAffected(ctx context.Context, write compile.WriteFile, declarationsOnly bool, transformers *compile.Transformers) (*AffectedEmit, error) {
	s := b.state
	a, err := s.nextAffected(ctx)
	if err != nil || a == nil {
		return nil, err
	}
	var target *compile.File
	if !a.Whole {
		target = a.File
	}
	res, err := s.program.Emit(ctx, target, s.writer(write), declarationsOnly, transformers)
	if err != nil {
		return nil, err
	}
	s.doneWith(a)
	return &AffectedEmit{Affected: *a, Result: res}, nil
}

// Emit with a nil file iterates EmitNextAffected to completion, merging
// skipped flags, diagnostics, emitted paths, and source-map data. With a
// target file it assumes the caller works outside the iterator and delegates
// straight to the program.
func (b *EmitBuilder) Emit(ctx context.Context, file *compile.File, write compile.WriteFile, declarationsOnly bool, transformers *compile.Transformers) (compile.EmitResult, error) {
	s := b.state
	if file == nil {
		var merged compile.EmitResult
		for {
			ae, err := b.EmitNextAffected(ctx, write, declarationsOnly, transformers)
			if err != nil {
				return merged, err
			}
			if ae == nil {
				return merged, nil
			}
			merged.Merge(ae.Result)
		}
	}
	s.assertNotYielded(s.graph.PathOf(file))
	return s.program.Emit(ctx, file, s.writer(write), declarationsOnly, transformers)
}
