package diag

import (
	"ripple/internal/source"
)

type Diagnostic struct {
	Severity Severity
	Code     Code
	Path     source.Path
	Line     uint32 // 1-based; 0 когда диагностика не привязана к строке
	Message  string
}

func New(sev Severity, code Code, path source.Path, line uint32, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Path:     path,
		Line:     line,
		Message:  msg,
	}
}

func NewError(code Code, path source.Path, line uint32, msg string) Diagnostic {
	return New(SevError, code, path, line, msg)
}

func NewWarning(code Code, path source.Path, line uint32, msg string) Diagnostic {
	return New(SevWarning, code, path, line, msg)
}
