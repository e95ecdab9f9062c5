package ingest

import (
	"fmt"
	"go/ast"
	"go/scanner"
	"go/token"
	"strconv"
	"strings"
	"unicode"

	"github.com/sirkon/gomacros/internal/syntax"
)

// directive is a parsed //gomacros: comment line.
type directive struct {
	macro syntax.Ident
	span  syntax.Span
	args  []*syntax.Arg
}

// parseError points at the first offending token of a directive.
type parseError struct {
	span syntax.Span
	msg  string
}

func isDirective(text string) bool {
	return strings.HasPrefix(text, syntax.DirectivePrefix)
}

// directiveName returns the macro name of a directive comment without
// validating the rest of it. The name ends at the first character that
// cannot be a part of an identifier.
func directiveName(text string) string {
	rest := strings.TrimPrefix(text, syntax.DirectivePrefix)
	if i := strings.IndexFunc(rest, func(r rune) bool {
		return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func parseDirective(c *ast.Comment) (*directive, *parseError) {
	nameStart := len(syntax.DirectivePrefix)
	name := directiveName(c.Text)
	namePos := c.Slash + token.Pos(nameStart)
	nameSpan := syntax.Span{Pos: namePos, End: namePos + token.Pos(len(name))}

	if name == "" {
		return nil, &parseError{span: nameSpan, msg: "missing macro name after " + syntax.DirectivePrefix}
	}
	if !token.IsIdentifier(name) {
		return nil, &parseError{span: nameSpan, msg: fmt.Sprintf("macro name %q is not an identifier", name)}
	}

	argsStart := nameStart + len(name)
	toks, perr := tokenize(c.Text[argsStart:], c.Slash+token.Pos(argsStart))
	if perr != nil {
		return nil, perr
	}

	p := &argParser{toks: toks, end: c.End()}
	args, perr := p.args()
	if perr != nil {
		return nil, perr
	}

	return &directive{
		macro: syntax.Ident{Name: name, Span: nameSpan},
		span:  syntax.SpanOf(c),
		args:  args,
	}, nil
}

type argToken struct {
	tok token.Token
	lit string
	pos token.Pos
	end token.Pos
}

func (t argToken) span() syntax.Span {
	return syntax.Span{Pos: t.pos, End: t.end}
}

func (t argToken) describe() string {
	switch {
	case t.tok == token.EOF:
		return "end of directive"
	case t.lit != "":
		return strconv.Quote(t.lit)
	default:
		return strconv.Quote(t.tok.String())
	}
}

// tokenize scans directive arguments with the Go scanner. Positions are
// translated into the original file set by adding base.
func tokenize(src string, base token.Pos) ([]argToken, *parseError) {
	fset := token.NewFileSet()
	file := fset.AddFile("", -1, len(src))

	var firstErr *parseError
	var s scanner.Scanner
	s.Init(file, []byte(src), func(p token.Position, msg string) {
		if firstErr != nil {
			return
		}
		pos := base + token.Pos(p.Offset)
		firstErr = &parseError{span: syntax.Span{Pos: pos, End: pos + 1}, msg: msg}
	}, 0)

	var res []argToken
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok == token.SEMICOLON && lit == "\n" {
			// Automatically inserted at the end of the line.
			continue
		}

		start := base + token.Pos(file.Offset(pos))
		width := len(lit)
		if width == 0 {
			width = len(tok.String())
		}
		res = append(res, argToken{
			tok: tok,
			lit: lit,
			pos: start,
			end: start + token.Pos(width),
		})
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return res, nil
}

type argParser struct {
	toks []argToken
	i    int
	end  token.Pos
}

func (p *argParser) peek() argToken {
	if p.i >= len(p.toks) {
		return argToken{tok: token.EOF, pos: p.end, end: p.end}
	}
	return p.toks[p.i]
}

func (p *argParser) next() argToken {
	t := p.peek()
	if p.i < len(p.toks) {
		p.i++
	}
	return t
}

func (p *argParser) unexpected(t argToken, expected string) *parseError {
	return &parseError{
		span: t.span(),
		msg:  fmt.Sprintf("expected %s, found %s", expected, t.describe()),
	}
}

func (p *argParser) args() ([]*syntax.Arg, *parseError) {
	var res []*syntax.Arg
	for p.peek().tok != token.EOF {
		arg, err := p.arg()
		if err != nil {
			return nil, err
		}
		res = append(res, arg)

		if p.peek().tok == token.COMMA {
			p.next()
		}
	}

	return res, nil
}

func (p *argParser) arg() (*syntax.Arg, *parseError) {
	t := p.next()
	if t.tok != token.IDENT {
		return nil, p.unexpected(t, "option name")
	}

	arg := &syntax.Arg{
		Name: syntax.Ident{Name: t.lit, Span: t.span()},
		Span: t.span(),
	}
	if p.peek().tok != token.LPAREN {
		return arg, nil
	}

	p.next()
	arg.List = true
	for {
		if p.peek().tok == token.RPAREN {
			arg.Span.End = p.next().end
			return arg, nil
		}

		v, err := p.value()
		if err != nil {
			return nil, err
		}
		arg.Values = append(arg.Values, v)

		switch t := p.next(); t.tok {
		case token.COMMA:
		case token.RPAREN:
			arg.Span.End = t.end
			return arg, nil
		default:
			return nil, p.unexpected(t, `"," or ")"`)
		}
	}
}

func (p *argParser) value() (*syntax.Value, *parseError) {
	t := p.next()
	switch t.tok {
	case token.IDENT:
		if t.lit == "true" || t.lit == "false" {
			return &syntax.Value{Kind: syntax.ValueBool, Text: t.lit, Span: t.span()}, nil
		}
		if p.peek().tok != token.PERIOD {
			return &syntax.Value{Kind: syntax.ValueIdent, Text: t.lit, Span: t.span()}, nil
		}

		p.next()
		sel := p.next()
		if sel.tok != token.IDENT {
			return nil, p.unexpected(sel, `identifier after "."`)
		}
		return &syntax.Value{
			Kind: syntax.ValueQualified,
			Text: t.lit + "." + sel.lit,
			Span: syntax.Span{Pos: t.pos, End: sel.end},
		}, nil

	case token.STRING:
		text, err := strconv.Unquote(t.lit)
		if err != nil {
			return nil, &parseError{span: t.span(), msg: fmt.Sprintf("malformed string %s", t.lit)}
		}
		return &syntax.Value{Kind: syntax.ValueString, Text: text, Span: t.span()}, nil

	case token.INT:
		return &syntax.Value{Kind: syntax.ValueInt, Text: t.lit, Span: t.span()}, nil

	case token.SUB:
		n := p.next()
		if n.tok != token.INT {
			return nil, p.unexpected(n, "integer after \"-\"")
		}
		return &syntax.Value{
			Kind: syntax.ValueInt,
			Text: "-" + n.lit,
			Span: syntax.Span{Pos: t.pos, End: n.end},
		}, nil

	default:
		return nil, p.unexpected(t, "value")
	}
}
