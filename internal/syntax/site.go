package syntax

import (
	"go/token"
	"strings"
	"unicode"
)

// DirectivePrefix starts every gomacros directive comment.
const DirectivePrefix = "//gomacros:"

// Import is an import of the file holding the site. Name is the identifier the
// file refers to the package by, derived from the path when not explicit.
type Import struct {
	Name string
	Path string
}

// Site is a single invocation site: one directive together with the item it
// is attached to.
type Site struct {
	// Macro is the macro name written after the directive prefix.
	Macro Ident

	// Directive is the span of the whole directive comment line.
	Directive Span

	// Args are the directive arguments in source order.
	Args []*Arg

	Item Item

	// Span covers the directive and the item. Every diagnostic of the site
	// must lie inside it.
	Span Span

	// File is the name of the file holding the site.
	File string

	// Package is the package name of the file.
	Package string

	// Test is set for _test.go files.
	Test bool

	// TokenFile resolves positions of the file to lines. It may be nil.
	TokenFile *token.File

	Imports []Import

	// Directives lists the macro names of all directives attached to the
	// same item in source order, Index is the position of this one.
	Directives []Ident
	Index      int
}

// ImportByName looks up an import of the site's file by its local name.
func (s *Site) ImportByName(name string) (Import, bool) {
	for _, imp := range s.Imports {
		if imp.Name == name {
			return imp, true
		}
	}

	return Import{}, false
}

// Line returns the line of pos in the site's file, or 0 when unknown.
func (s *Site) Line(pos token.Pos) int {
	if s.TokenFile == nil || !pos.IsValid() {
		return 0
	}
	return s.TokenFile.Line(pos)
}

func (*Site) isNode() {}

// ImportName returns the name a package is referred to by when imported
// without an explicit name. It follows common path conventions:
//
//	github.com/vmihailenco/msgpack/v5 -> msgpack
//	gopkg.in/yaml.v3                  -> yaml
//	github.com/mattn/go-isatty        -> isatty
func ImportName(path string) string {
	elems := strings.Split(path, "/")
	last := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(last) {
		last = elems[len(elems)-2]
	}
	if i := strings.LastIndex(last, ".v"); i > 0 && isDigits(last[i+2:]) {
		last = last[:i]
	}
	last = strings.TrimPrefix(last, "go-")
	last = strings.TrimSuffix(last, "-go")

	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return '_'
	}, last)
}

func isMajorVersion(s string) bool {
	return len(s) > 1 && s[0] == 'v' && isDigits(s[1:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
