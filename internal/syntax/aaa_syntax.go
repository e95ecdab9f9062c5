package syntax

import (
	"go/ast"
	"go/token"
)

// Node is the base interface implemented by all syntax tree node types.
type Node interface {
	isNode()
}

// Item marks nodes that represent an annotated declaration.
type Item interface {
	Node
	isItem()
}

// Span is a half-open [Pos, End) range of positions in the original file set.
type Span struct {
	Pos token.Pos
	End token.Pos
}

// SpanOf returns the span of the given AST node.
func SpanOf(n ast.Node) Span {
	return Span{Pos: n.Pos(), End: n.End()}
}

// IsValid reports whether both ends of the span are known.
func (s Span) IsValid() bool {
	return s.Pos.IsValid() && s.End.IsValid() && s.Pos <= s.End
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return s.IsValid() && o.IsValid() && s.Pos <= o.Pos && o.End <= s.End
}

// Join returns the smallest span covering both s and o.
func (s Span) Join(o Span) Span {
	if !s.IsValid() {
		return o
	}
	if !o.IsValid() {
		return s
	}
	res := s
	if o.Pos < res.Pos {
		res.Pos = o.Pos
	}
	if o.End > res.End {
		res.End = o.End
	}
	return res
}

// Ident is a name together with its span.
type Ident struct {
	Name string
	Span Span
}

// IdentOf converts an AST identifier.
func IdentOf(id *ast.Ident) Ident {
	if id == nil {
		return Ident{}
	}
	return Ident{Name: id.Name, Span: SpanOf(id)}
}

func (*Ident) isNode() {}
