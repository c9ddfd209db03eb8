// Package frontend is the reference compiler for mini sources. The driver
// only ever sees it through compile.Program; everything here stays outside
// the incremental core.
package frontend

import (
	"fmt"
	"strings"
	"unicode"

	"fortio.org/safecast"

	"ripple/internal/diag"
	"ripple/internal/source"
)

type declKind uint8

const (
	declLet declKind = iota
	declPub
)

type declaration struct {
	kind declKind
	name string
	expr string
	line uint32
}

type importDecl struct {
	raw  string // as written inside the quotes
	file string // resolved file name, relative to the source root
	line uint32
}

type parsedFile struct {
	imports []importDecl
	decls   []declaration
	bag     *diag.Bag
}

// parseSource splits a mini file into imports and declarations, collecting
// syntactic diagnostics into the returned bag.
//
// Grammar, one construct per line:
//
//	import "path"
//	pub NAME = EXPR
//	let NAME = EXPR
//	# comment
func parseSource(path source.Path, text []byte) *parsedFile {
	pf := &parsedFile{bag: diag.NewBag(64)}
	for i, raw := range strings.Split(string(text), "\n") {
		lineNo, err := safecast.Conv[uint32](i + 1)
		if err != nil {
			panic(fmt.Errorf("line number overflow: %w", err))
		}
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "import"):
			pf.parseImport(path, lineNo, strings.TrimSpace(line[len("import"):]))
		case strings.HasPrefix(line, "pub "):
			pf.parseDeclaration(path, lineNo, declPub, line[len("pub "):])
		case strings.HasPrefix(line, "let "):
			pf.parseDeclaration(path, lineNo, declLet, line[len("let "):])
		default:
			pf.bag.Add(diag.NewError(diag.SynBadLine, path, lineNo,
				fmt.Sprintf("unrecognized construct: %q", line)))
		}
	}
	return pf
}

func (pf *parsedFile) parseImport(path source.Path, line uint32, rest string) {
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		pf.bag.Add(diag.NewError(diag.SynBadImport, path, line,
			"import path must be a quoted string"))
		return
	}
	raw := rest[1 : len(rest)-1]
	if raw == "" {
		pf.bag.Add(diag.NewError(diag.SynBadImport, path, line, "empty import path"))
		return
	}
	file := raw
	if !strings.HasSuffix(file, ".mini") {
		file += ".mini"
	}
	pf.imports = append(pf.imports, importDecl{raw: raw, file: file, line: line})
}

func (pf *parsedFile) parseDeclaration(path source.Path, line uint32, kind declKind, rest string) {
	name, expr, ok := strings.Cut(rest, "=")
	if !ok {
		pf.bag.Add(diag.NewError(diag.SynBadDeclaration, path, line,
			"declaration must have the form NAME = EXPR"))
		return
	}
	name = strings.TrimSpace(name)
	expr = strings.TrimSpace(expr)
	if !isIdent(name) {
		pf.bag.Add(diag.NewError(diag.SynBadDeclaration, path, line,
			fmt.Sprintf("invalid declaration name %q", name)))
		return
	}
	if expr == "" {
		pf.bag.Add(diag.NewError(diag.SynBadDeclaration, path, line,
			fmt.Sprintf("declaration %q has an empty body", name)))
		return
	}
	pf.decls = append(pf.decls, declaration{kind: kind, name: name, expr: expr, line: line})
}

func isIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// identifiers extracts the identifier tokens of an expression. Numbers and
// quoted strings are skipped.
func identifiers(expr string) []string {
	var out []string
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == '"':
			j := strings.IndexByte(expr[i+1:], '"')
			if j < 0 {
				return out
			}
			i += j + 2
		case isIdentStart(c):
			j := i + 1
			for j < len(expr) && isIdentPart(expr[j]) {
				j++
			}
			out = append(out, expr[i:j])
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(expr) && (isIdentPart(expr[j]) || expr[j] == '.') {
				j++
			}
			i = j
		default:
			i++
		}
	}
	return out
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
