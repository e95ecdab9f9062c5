package macros

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"unicode"

	"github.com/serenize/snaker"

	"github.com/sirkon/gomacros/internal/macrules"
	"github.com/sirkon/gomacros/internal/syntax"
)

// instantiation is a single value of a types(...) option.
type instantiation struct {
	// args are type arguments with package qualifiers replaced by the aliases
	// of the generated file.
	args []string

	// suffix is the camel-cased type argument list used in generated names.
	suffix string

	// paths are import paths the arguments refer to.
	paths []string

	span syntax.Span
}

// instantiations parses values of a types(...) option. A value is either a
// type name or a string holding a comma-separated list of types.
//
//	types(int, time.Duration, "string, []byte")
func (ex *expansion) instantiations(values []*syntax.Value) []*instantiation {
	var res []*instantiation
	for _, v := range values {
		inst, err := ex.instantiation(v)
		if err != nil {
			ex.val.Report(macrules.InvalidOptionValue(), v.Span, err.Error())
			continue
		}
		res = append(res, inst)
	}

	return res
}

func (ex *expansion) instantiation(v *syntax.Value) (*instantiation, error) {
	var exprs []ast.Expr
	switch v.Kind {
	case syntax.ValueString:
		e, err := parser.ParseExpr("_[" + v.Text + "]")
		if err != nil {
			return nil, fmt.Errorf("malformed type list %q", v.Text)
		}
		switch x := e.(type) {
		case *ast.IndexExpr:
			exprs = []ast.Expr{x.Index}
		case *ast.IndexListExpr:
			exprs = x.Indices
		default:
			return nil, fmt.Errorf("malformed type list %q", v.Text)
		}

	default:
		e, err := parser.ParseExpr(v.Text)
		if err != nil {
			return nil, fmt.Errorf("malformed type %q", v.Text)
		}
		exprs = []ast.Expr{e}
	}

	res := &instantiation{span: v.Span}
	var words []string
	for _, e := range exprs {
		if err := checkTypeExpr(e); err != nil {
			return nil, err
		}
		var quals []*ast.Ident
		var paths []string
		var err error
		ast.Inspect(e, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok || err != nil {
				return err == nil
			}
			x := sel.X.(*ast.Ident)
			imp, ok := ex.site.ImportByName(x.Name)
			if !ok {
				err = fmt.Errorf("package %s of %s is not imported by %s", x.Name, types.ExprString(sel), ex.site.File)
				return false
			}
			x.Name = syntax.ImportName(imp.Path)
			quals = append(quals, x)
			paths = append(paths, imp.Path)
			return false
		})
		if err != nil {
			return nil, err
		}

		// Names are built from package names rather than file-local ones.
		words = append(words, typeWords(types.ExprString(e)))
		for i, x := range quals {
			x.Name = ex.alias(paths[i])
		}
		res.paths = append(res.paths, paths...)

		res.args = append(res.args, types.ExprString(e))
	}
	res.suffix = snaker.SnakeToCamel(strings.Join(words, "_"))

	return res, nil
}

// checkTypeExpr rejects expressions that cannot denote a type.
func checkTypeExpr(e ast.Expr) error {
	if lit, ok := e.(*ast.BasicLit); ok {
		return fmt.Errorf("%s is not a type", lit.Value)
	}

	var err error
	ast.Inspect(e, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		switch x := n.(type) {
		case nil, *ast.Ident, *ast.StarExpr, *ast.ParenExpr, *ast.MapType, *ast.ChanType,
			*ast.FuncType, *ast.StructType, *ast.InterfaceType, *ast.FieldList, *ast.Field,
			*ast.IndexExpr, *ast.IndexListExpr, *ast.Ellipsis:
			return true
		case *ast.BasicLit:
			// Struct field tags.
			if x.Kind != token.STRING {
				err = fmt.Errorf("%s is not a type", x.Value)
			}
			return false
		case *ast.SelectorExpr:
			if _, ok := x.X.(*ast.Ident); !ok {
				err = fmt.Errorf("%s is not a type", types.ExprString(x))
			}
			return false
		case *ast.ArrayType:
			if x.Len != nil {
				if lit, ok := x.Len.(*ast.BasicLit); !ok || lit.Kind != token.INT {
					err = fmt.Errorf("array length of %s must be an integer literal", types.ExprString(x))
					return false
				}
			}
			if e := checkTypeExpr(x.Elt); e != nil {
				err = e
			}
			return false
		default:
			err = fmt.Errorf("%s is not a type", types.ExprString(e))
			return false
		}
	})
	return err
}

// typeWords turns a type into snake-case words for generated names:
//
//	map[string][]time.Duration -> map_string_slice_time_Duration
func typeWords(text string) string {
	text = strings.NewReplacer(
		"[]", "_slice_",
		"*", "_ptr_",
		"map[", "_map_",
		"chan ", "_chan_",
		"...", "_",
	).Replace(text)

	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, "_")
}
