package builder

import (
	"context"

	"ripple/internal/compile"
	"ripple/internal/diag"
)

// semanticDiagnostics returns the cached diagnostics for file, invoking the
// program and filling the cache on a miss.
func (s *programState) semanticDiagnostics(ctx context.Context, file *compile.File) ([]diag.Diagnostic, error) {
	p := s.graph.PathOf(file)
	if d, ok := s.diagnostics[p]; ok {
		return d, nil
	}
	d, err := s.program.SemanticDiagnostics(ctx, file)
	if err != nil {
		return nil, err
	}
	if s.diagnostics != nil {
		s.diagnostics[p] = d
	}
	return d, nil
}

// semanticDiagnosticsForFile is the public per-file read path shared by both
// façade variants.
func (s *programState) semanticDiagnosticsForFile(ctx context.Context, file *compile.File) ([]diag.Diagnostic, error) {
	s.assertNotYielded(s.graph.PathOf(file))
	if s.bundled {
		// в bundled-режиме кэш не используется
		return s.program.SemanticDiagnostics(ctx, file)
	}
	return s.semanticDiagnostics(ctx, file)
}
