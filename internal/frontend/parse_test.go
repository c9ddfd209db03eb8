package frontend

import (
	"testing"

	"ripple/internal/diag"
)

func TestParseSource_Constructs(t *testing.T) {
	text := `# greeting module
import "lib/util"
import "dep.mini"

pub greeting = "hello"
let twice = greeting + greeting
`
	pf := parseSource("a.mini", []byte(text))
	if pf.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", pf.bag.Items())
	}
	if len(pf.imports) != 2 {
		t.Fatalf("imports = %d, want 2", len(pf.imports))
	}
	if pf.imports[0].file != "lib/util.mini" {
		t.Fatalf("extension not appended: %q", pf.imports[0].file)
	}
	if pf.imports[1].file != "dep.mini" {
		t.Fatalf("existing extension mangled: %q", pf.imports[1].file)
	}
	if len(pf.decls) != 2 {
		t.Fatalf("decls = %d, want 2", len(pf.decls))
	}
	if pf.decls[0].kind != declPub || pf.decls[0].name != "greeting" {
		t.Fatalf("unexpected first decl: %+v", pf.decls[0])
	}
	if pf.decls[1].kind != declLet || pf.decls[1].line != 6 {
		t.Fatalf("unexpected second decl: %+v", pf.decls[1])
	}
}

func TestParseSource_Errors(t *testing.T) {
	cases := []struct {
		name string
		text string
		code diag.Code
	}{
		{"garbage line", "frobnicate", diag.SynBadLine},
		{"unquoted import", "import util", diag.SynBadImport},
		{"empty import", `import ""`, diag.SynBadImport},
		{"missing equals", "pub x", diag.SynBadDeclaration},
		{"bad name", "let 9x = 1", diag.SynBadDeclaration},
		{"empty body", "let x = ", diag.SynBadDeclaration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pf := parseSource("a.mini", []byte(tc.text))
			if pf.bag.Len() != 1 {
				t.Fatalf("diagnostics = %v, want exactly one", pf.bag.Items())
			}
			if got := pf.bag.Items()[0].Code; got != tc.code {
				t.Fatalf("code = %v, want %v", got, tc.code)
			}
		})
	}
}

func TestIdentifiers(t *testing.T) {
	got := identifiers(`greeting + " quoted name " + answer_2 * 10 + _x`)
	want := []string{"greeting", "answer_2", "_x"}
	if len(got) != len(want) {
		t.Fatalf("identifiers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("identifiers = %v, want %v", got, want)
		}
	}
}
