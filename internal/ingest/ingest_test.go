package ingest

import (
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strings"
	"testing"

	"github.com/sirkon/deepequal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirkon/gomacros/internal/macrules"
	"github.com/sirkon/gomacros/internal/syntax"
)

func parseSource(t *testing.T, src string) (*token.FileSet, *ast.File) {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "sample.go", src, parser.ParseComments)
	require.NoError(t, err)
	return fset, file
}

func sourceOf(fset *token.FileSet, src string, s syntax.Span) string {
	from := fset.Position(s.Pos).Offset
	to := fset.Position(s.End).Offset
	return src[from:to]
}

const structSource = `package sample

import (
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Sample is annotated twice.
//
//gomacros:equal rename(Same), skip(cache) mode(lenient)
//gomacros:sertest types(int, "string"), msgpack(false), random
type Sample[T comparable] struct {
	ID   T
	Tags []string ` + "`json:\"tags\"`" + `
	time.Duration
	cache map[string]yaml.Node
}
`

func TestFileStruct(t *testing.T) {
	fset, file := parseSource(t, structSource)
	sites, diags := File(fset, file, false)
	require.Empty(t, diags)
	require.Len(t, sites, 2)

	expectedArgs := [][]*syntax.Arg{
		{
			{
				Name:   syntax.Ident{Name: "rename"},
				List:   true,
				Values: []*syntax.Value{{Kind: syntax.ValueIdent, Text: "Same"}},
			},
			{
				Name:   syntax.Ident{Name: "skip"},
				List:   true,
				Values: []*syntax.Value{{Kind: syntax.ValueIdent, Text: "cache"}},
			},
			{
				Name:   syntax.Ident{Name: "mode"},
				List:   true,
				Values: []*syntax.Value{{Kind: syntax.ValueIdent, Text: "lenient"}},
			},
		},
		{
			{
				Name: syntax.Ident{Name: "types"},
				List: true,
				Values: []*syntax.Value{
					{Kind: syntax.ValueIdent, Text: "int"},
					{Kind: syntax.ValueString, Text: "string"},
				},
			},
			{
				Name:   syntax.Ident{Name: "msgpack"},
				List:   true,
				Values: []*syntax.Value{{Kind: syntax.ValueBool, Text: "false"}},
			},
			{
				Name: syntax.Ident{Name: "random"},
			},
		},
	}

	for i, site := range sites {
		got := syntax.StripSpans(site)
		if !reflect.DeepEqual(expectedArgs[i], got.Args) {
			deepequal.SideBySide(t, "args", expectedArgs[i], got.Args)
		}
		assert.Equal(t, i, site.Index)
		assert.Equal(t, []syntax.Ident{{Name: "equal"}, {Name: "sertest"}}, got.Directives)
		assert.Equal(t, "sample", site.Package)
		assert.Equal(t, "sample.go", site.File)
		assert.False(t, site.Test)
		assert.True(t, site.Span.Contains(site.Directive))
		assert.True(t, site.Span.Contains(syntax.ItemSpan(site.Item)))
	}
	assert.Equal(t, "equal", sites[0].Macro.Name)
	assert.Equal(t, "sertest", sites[1].Macro.Name)

	imp, ok := sites[0].ImportByName("yaml")
	require.True(t, ok)
	assert.Equal(t, "gopkg.in/yaml.v3", imp.Path)

	item, ok := sites[0].Item.(*syntax.StructItem)
	require.True(t, ok, "struct item expected, got %T", sites[0].Item)
	assert.NotSame(t, sites[0].Item, sites[1].Item, "every site must own its item")

	assert.Equal(t, "Sample", item.Name.Name)
	require.Len(t, item.TypeParams, 1)
	assert.Equal(t, "T", item.TypeParams[0].Name.Name)
	assert.Equal(t, "comparable", item.TypeParams[0].Constraint.Name)

	require.Len(t, item.Fields, 4)
	id, tags, embedded, cache := item.Fields[0], item.Fields[1], item.Fields[2], item.Fields[3]

	assert.Equal(t, syntax.TypeParamRef, id.Type.Kind)

	assert.Equal(t, syntax.TypeSlice, tags.Type.Kind)
	assert.Equal(t, "string", tags.Type.Elem.Name)
	assert.Equal(t, `json:"tags"`, tags.Tag)

	assert.True(t, embedded.Embedded)
	assert.Equal(t, "Duration", embedded.Names[0].Name)
	assert.Equal(t, "time", embedded.Type.Package)

	assert.Equal(t, syntax.TypeMap, cache.Type.Kind)
	assert.Equal(t, "yaml", cache.Type.Elem.Package)
	assert.Equal(t, "map[string]yaml.Node", cache.Type.Text)
}

func TestFileSpansPointAtSource(t *testing.T) {
	fset, file := parseSource(t, structSource)
	sites, _ := File(fset, file, false)
	require.Len(t, sites, 2)

	eq := sites[0]
	assert.Equal(t, "equal", sourceOf(fset, structSource, eq.Macro.Span))
	assert.Equal(t, "rename(Same)", sourceOf(fset, structSource, eq.Args[0].Span))
	assert.Equal(t, "cache", sourceOf(fset, structSource, eq.Args[1].Values[0].Span))
	assert.Equal(t, "//gomacros:equal rename(Same), skip(cache) mode(lenient)", sourceOf(fset, structSource, eq.Directive))

	st := sites[1]
	assert.Equal(t, `"string"`, sourceOf(fset, structSource, st.Args[0].Values[1].Span))
	assert.Equal(t, "random", sourceOf(fset, structSource, st.Args[2].Span))

	item := eq.Item.(*syntax.StructItem)
	assert.Equal(t, "cache map[string]yaml.Node", sourceOf(fset, structSource, item.Fields[3].Span))
	assert.True(t, strings.HasPrefix(sourceOf(fset, structSource, item.Span), "type Sample[T comparable] struct {"))
}

func TestFileEnum(t *testing.T) {
	src := `package sample

//gomacros:sertest
type Color int

const (
	Red Color = iota
	Green
	_
	Blue
)

const Other = 1

const (
	Purple Color = 10
	Unrelated    = "x"
	Tail
)
`
	fset, file := parseSource(t, src)
	sites, diags := File(fset, file, true)
	require.Empty(t, diags)
	require.Len(t, sites, 1)
	assert.True(t, sites[0].Test)

	item, ok := sites[0].Item.(*syntax.EnumItem)
	require.True(t, ok, "enum item expected, got %T", sites[0].Item)
	assert.Equal(t, "int", item.Underlying.Name)

	var names []string
	for _, v := range item.Values {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"Red", "Green", "Blue", "Purple"}, names)
}

func TestFilePackageAndFuncs(t *testing.T) {
	src := `//gomacros:generictests types(int, string)
package sample

import "testing"

//gomacros:generictests types(float64) parallel
func testSum[T int | ~float64](t *testing.T) {}

func testOther[T any](t *testing.T) {}

func (p *Pair[K, V]) Swap() (res Pair[V, K]) { return }
`
	fset, file := parseSource(t, src)
	sites, diags := File(fset, file, false)
	require.Empty(t, diags)
	require.Len(t, sites, 2)

	pkg, ok := sites[0].Item.(*syntax.PackageItem)
	require.True(t, ok, "package item expected, got %T", sites[0].Item)
	assert.Equal(t, "sample", pkg.Name.Name)
	assert.True(t, sites[0].Span.Contains(sites[0].Args[0].Span))
	require.Len(t, pkg.Funcs, 3)

	sum := pkg.Funcs[0]
	assert.Equal(t, []string{"generictests"}, sum.Annotations)
	require.Len(t, sum.TypeParams, 1)
	constraint := sum.TypeParams[0].Constraint
	assert.Equal(t, syntax.TypeUnion, constraint.Kind)
	require.Len(t, constraint.Terms, 2)
	assert.Equal(t, "~float64", constraint.Terms[1].Text)
	assert.Equal(t, "float64", constraint.Terms[1].Name)

	require.Len(t, sum.Params, 1)
	assert.Equal(t, "t", sum.Params[0].Name.Name)
	assert.Equal(t, syntax.TypePointer, sum.Params[0].Type.Kind)
	assert.Equal(t, "testing", sum.Params[0].Type.Elem.Package)
	assert.Equal(t, "T", sum.Params[0].Type.Elem.Name)

	assert.Empty(t, pkg.Funcs[1].Annotations)

	swap := pkg.Funcs[2]
	require.NotNil(t, swap.Recv)
	assert.Equal(t, syntax.TypePointer, swap.Recv.Kind)
	assert.Equal(t, "Pair", swap.Recv.Elem.Name)
	require.Len(t, swap.Results, 1)
	assert.Equal(t, syntax.TypeParamRef, swap.Results[0].Type.Args[0].Kind)

	fn, ok := sites[1].Item.(*syntax.FuncItem)
	require.True(t, ok, "func item expected, got %T", sites[1].Item)
	assert.Equal(t, "testSum", fn.Name.Name)
	assert.Equal(t, "parallel", sites[1].Args[1].Name.Name)
	assert.False(t, sites[1].Args[1].List)
}

func TestFileUnsupported(t *testing.T) {
	src := `package sample

//gomacros:equal
type I interface{ M() }

//gomacros:equal
type A = int

//gomacros:equal
var v int

const (
	//gomacros:sertest
	c = 1
)
`
	fset, file := parseSource(t, src)
	sites, diags := File(fset, file, false)
	require.Empty(t, diags)
	require.Len(t, sites, 4)

	expected := []struct {
		name string
		what string
	}{
		{"I", "interface type"},
		{"A", "type alias"},
		{"v", "variable declaration"},
		{"c", "constant declaration"},
	}
	for i, e := range expected {
		item, ok := sites[i].Item.(*syntax.UnsupportedItem)
		require.True(t, ok, "unsupported item expected, got %T", sites[i].Item)
		assert.Equal(t, e.name, item.Name.Name)
		assert.Equal(t, e.what, item.What)
	}
}

func TestFileDetached(t *testing.T) {
	src := `package sample

import "fmt"

//gomacros:equal

// A has a doc comment without directives.
type A struct{}

type (
	//gomacros:equal
	B struct{}
	C struct{}
)

//gomacros:sertest
type (
	D int
	E int
)

func f() {
	//gomacros:equal
	fmt.Println()
}

type F struct{} //gomacros:equal
`
	fset, file := parseSource(t, src)
	sites, diags := File(fset, file, false)

	require.Len(t, sites, 1)
	assert.Equal(t, "B", syntax.ItemName(sites[0].Item).Name)

	require.Len(t, diags, 4)
	lines := make([]int, len(diags))
	for i, d := range diags {
		assert.Equal(t, macrules.DetachedDirective(), d.Code)
		lines[i] = fset.Position(d.Span.Pos).Line
	}
	assert.Equal(t, []int{5, 16, 23, 27}, lines)
}

func TestFileParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		directive string
		found     string
		message   string
	}{
		{
			name:      "missing-macro",
			directive: "//gomacros:",
			message:   "missing macro name",
		},
		{
			name:      "bad-macro",
			directive: "//gomacros:1equal",
			found:     "1equal",
			message:   `macro name "1equal" is not an identifier`,
		},
		{
			name:      "call-like-macro",
			directive: "//gomacros:equal(rename(X))",
			found:     "(rename",
			message:   `expected option name, found "("`,
		},
		{
			name:      "option-not-ident",
			directive: "//gomacros:equal 1",
			found:     "1",
			message:   `expected option name, found "1"`,
		},
		{
			name:      "missing-comma",
			directive: "//gomacros:equal skip(a b)",
			found:     "b",
			message:   `expected "," or ")", found "b"`,
		},
		{
			name:      "unclosed-list",
			directive: "//gomacros:equal skip(",
			message:   "expected value, found end of directive",
		},
		{
			name:      "negative-ident",
			directive: "//gomacros:equal skip(-x)",
			found:     "x",
			message:   `expected integer after "-", found "x"`,
		},
		{
			name:      "dangling-selector",
			directive: "//gomacros:equal rename(a.)",
			found:     ")",
			message:   `expected identifier after ".", found ")"`,
		},
		{
			name:      "scanner-error",
			directive: `//gomacros:equal rename("abc)`,
			found:     `"`,
			message:   "string literal not terminated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "package sample\n\n" + tt.directive + "\ntype T struct{}\n"
			fset, file := parseSource(t, src)
			sites, diags := File(fset, file, false)

			assert.Empty(t, sites, "malformed directives must not produce sites")
			require.Len(t, diags, 1)
			assert.Equal(t, macrules.ParseError(), diags[0].Code)
			assert.Contains(t, diags[0].Message, tt.message)

			col := len(tt.directive) + 1
			if tt.found != "" {
				col = strings.LastIndex(tt.directive, tt.found) + 1
			}
			pos := fset.Position(diags[0].Span.Pos)
			assert.Equal(t, 3, pos.Line)
			assert.Equal(t, col, pos.Column)
		})
	}
}

func TestFileKeepsValidSiblings(t *testing.T) {
	src := `package sample

//gomacros:equal skip(
//gomacros:sertest
type T struct{}
`
	fset, file := parseSource(t, src)
	sites, diags := File(fset, file, false)

	require.Len(t, diags, 1)
	require.Len(t, sites, 1)
	assert.Equal(t, "sertest", sites[0].Macro.Name)
}

func TestScope(t *testing.T) {
	_, a := parseSource(t, `package sample

import (
	"fmt"
	yml "gopkg.in/yaml.v3"
)

type Sample struct {
	ID int
	fmt.Stringer
	*Inner
}

func (s *Sample) Equal(other *Sample) bool { return false }

func helper() {}
`)
	_, b := parseSource(t, `package sample

import "github.com/vmihailenco/msgpack/v5"

type Inner struct{}

func (Inner) Name() string { return "" }

var (
	x, _ = 1, 2
)

const limit = 10
`)

	s := Scope([]*ast.File{a, b})
	for _, name := range []string{"Sample", "Inner", "helper", "x", "limit"} {
		assert.True(t, s.Has(name), name)
	}
	for _, name := range []string{"_", "Equal", "Name", "yaml", "ID", "fmt"} {
		assert.False(t, s.Has(name), name)
	}
	for _, name := range []string{"fmt", "yml", "msgpack"} {
		assert.True(t, s.HasImport(name), name)
	}
	assert.False(t, s.HasImport("yaml"))

	for _, member := range []string{"ID", "Stringer", "Inner", "Equal"} {
		assert.True(t, s.HasMember("Sample", member), member)
	}
	assert.True(t, s.HasMember("Inner", "Name"))
	assert.False(t, s.HasMember("Inner", "Equal"))
}
