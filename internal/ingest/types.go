package ingest

import (
	"bytes"
	"go/ast"
	"go/printer"
	"go/token"
	"strconv"

	"github.com/sirkon/gomacros/internal/syntax"
)

// typeConv translates type expressions. Identifiers listed in tparams are
// type parameters in scope.
type typeConv struct {
	fset    *token.FileSet
	tparams map[string]bool
}

func newTypeConv(fset *token.FileSet, params ...string) *typeConv {
	c := &typeConv{
		fset:    fset,
		tparams: make(map[string]bool, len(params)),
	}
	for _, p := range params {
		c.tparams[p] = true
	}
	return c
}

func (c *typeConv) text(e ast.Expr) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, c.fset, e); err != nil {
		return ""
	}
	return buf.String()
}

func (c *typeConv) ref(e ast.Expr) *syntax.TypeRef {
	if e == nil {
		return nil
	}

	r := &syntax.TypeRef{
		Text: c.text(e),
		Span: syntax.SpanOf(e),
	}
	switch t := e.(type) {
	case *ast.ParenExpr:
		return c.keepOuter(c.ref(t.X), r)

	case *ast.Ident:
		r.Kind = syntax.TypeNamed
		if c.tparams[t.Name] {
			r.Kind = syntax.TypeParamRef
		}
		r.Name = t.Name

	case *ast.SelectorExpr:
		r.Kind = syntax.TypeNamed
		r.Name = t.Sel.Name
		if x, ok := t.X.(*ast.Ident); ok {
			r.Package = x.Name
		}

	case *ast.IndexExpr:
		base := c.ref(t.X)
		r.Kind = base.Kind
		r.Package = base.Package
		r.Name = base.Name
		r.Args = []*syntax.TypeRef{c.ref(t.Index)}

	case *ast.IndexListExpr:
		base := c.ref(t.X)
		r.Kind = base.Kind
		r.Package = base.Package
		r.Name = base.Name
		for _, idx := range t.Indices {
			r.Args = append(r.Args, c.ref(idx))
		}

	case *ast.StarExpr:
		r.Kind = syntax.TypePointer
		r.Elem = c.ref(t.X)

	case *ast.ArrayType:
		r.Kind = syntax.TypeArray
		if t.Len == nil {
			r.Kind = syntax.TypeSlice
		}
		r.Elem = c.ref(t.Elt)

	case *ast.MapType:
		r.Kind = syntax.TypeMap
		r.Key = c.ref(t.Key)
		r.Elem = c.ref(t.Value)

	case *ast.FuncType:
		r.Kind = syntax.TypeFunc

	case *ast.ChanType:
		r.Kind = syntax.TypeChan
		r.Elem = c.ref(t.Value)

	case *ast.StructType:
		r.Kind = syntax.TypeStruct
		for _, f := range t.Fields.List {
			r.Terms = append(r.Terms, c.ref(f.Type))
		}

	case *ast.InterfaceType:
		r.Kind = syntax.TypeInterface

	case *ast.BinaryExpr:
		if t.Op != token.OR {
			r.Kind = syntax.TypeNamed
			r.Name = r.Text
			break
		}
		r.Kind = syntax.TypeUnion
		r.Terms = c.unionTerms(t)

	case *ast.UnaryExpr:
		if t.Op == token.TILDE {
			return c.keepOuter(c.ref(t.X), r)
		}
		r.Kind = syntax.TypeNamed
		r.Name = r.Text

	case *ast.Ellipsis:
		r.Kind = syntax.TypeEllipsis
		r.Elem = c.ref(t.Elt)

	default:
		r.Kind = syntax.TypeNamed
		r.Name = r.Text
	}

	return r
}

// keepOuter returns inner with the text and span of the wrapping expression.
func (c *typeConv) keepOuter(inner, outer *syntax.TypeRef) *syntax.TypeRef {
	inner.Text = outer.Text
	inner.Span = outer.Span
	return inner
}

func (c *typeConv) unionTerms(e *ast.BinaryExpr) []*syntax.TypeRef {
	var res []*syntax.TypeRef
	if x, ok := e.X.(*ast.BinaryExpr); ok && x.Op == token.OR {
		res = c.unionTerms(x)
	} else {
		res = append(res, c.ref(e.X))
	}
	return append(res, c.ref(e.Y))
}

func (c *typeConv) typeParams(fl *ast.FieldList) []*syntax.TypeParam {
	if fl == nil {
		return nil
	}

	var res []*syntax.TypeParam
	for _, f := range fl.List {
		for _, n := range f.Names {
			res = append(res, &syntax.TypeParam{
				Name:       syntax.IdentOf(n),
				Constraint: c.ref(f.Type),
				Span:       syntax.Span{Pos: n.Pos(), End: f.Type.End()},
			})
		}
	}
	return res
}

func (c *typeConv) params(fl *ast.FieldList) []*syntax.Param {
	if fl == nil {
		return nil
	}

	var res []*syntax.Param
	for _, f := range fl.List {
		if len(f.Names) == 0 {
			res = append(res, &syntax.Param{
				Type: c.ref(f.Type),
				Span: syntax.SpanOf(f),
			})
			continue
		}
		for _, n := range f.Names {
			res = append(res, &syntax.Param{
				Name: syntax.IdentOf(n),
				Type: c.ref(f.Type),
				Span: syntax.Span{Pos: n.Pos(), End: f.Type.End()},
			})
		}
	}
	return res
}

func (c *typeConv) fields(st *ast.StructType) []*syntax.Field {
	var res []*syntax.Field
	for _, f := range st.Fields.List {
		fld := &syntax.Field{
			Type: c.ref(f.Type),
			Span: syntax.SpanOf(f),
		}
		if len(f.Names) == 0 {
			fld.Embedded = true
			fld.Names = []syntax.Ident{embeddedName(f.Type)}
		} else {
			for _, n := range f.Names {
				fld.Names = append(fld.Names, syntax.IdentOf(n))
			}
		}
		if f.Tag != nil {
			if tag, err := strconv.Unquote(f.Tag.Value); err == nil {
				fld.Tag = tag
			}
		}
		res = append(res, fld)
	}
	return res
}

// embeddedName returns the implicit field name of an embedded type.
func embeddedName(e ast.Expr) syntax.Ident {
	for {
		switch t := e.(type) {
		case *ast.StarExpr:
			e = t.X
		case *ast.IndexExpr:
			e = t.X
		case *ast.IndexListExpr:
			e = t.X
		case *ast.SelectorExpr:
			return syntax.IdentOf(t.Sel)
		case *ast.Ident:
			return syntax.IdentOf(t)
		default:
			return syntax.Ident{Span: syntax.SpanOf(e)}
		}
	}
}

// typeParamNames lists the names declared by a type parameter list.
func typeParamNames(fl *ast.FieldList) []string {
	if fl == nil {
		return nil
	}

	var res []string
	for _, f := range fl.List {
		for _, n := range f.Names {
			res = append(res, n.Name)
		}
	}
	return res
}

// receiverInfo returns the base type name of a method receiver and the type
// parameter names it declares.
func receiverInfo(recv *ast.FieldList) (string, []string) {
	if recv == nil || len(recv.List) == 0 {
		return "", nil
	}

	e := recv.List[0].Type
	if star, ok := e.(*ast.StarExpr); ok {
		e = star.X
	}

	var params []string
	switch t := e.(type) {
	case *ast.IndexExpr:
		if id, ok := t.Index.(*ast.Ident); ok {
			params = append(params, id.Name)
		}
		e = t.X
	case *ast.IndexListExpr:
		for _, idx := range t.Indices {
			if id, ok := idx.(*ast.Ident); ok {
				params = append(params, id.Name)
			}
		}
		e = t.X
	}

	if id, ok := e.(*ast.Ident); ok {
		return id.Name, params
	}
	return "", params
}
