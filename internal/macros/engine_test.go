package macros

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"strings"
	"testing"

	"github.com/sirkon/deepequal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirkon/gomacros/internal/config"
	"github.com/sirkon/gomacros/internal/diag"
	"github.com/sirkon/gomacros/internal/ingest"
	"github.com/sirkon/gomacros/internal/macrules"
	"github.com/sirkon/gomacros/internal/syntax"
)

type expanded struct {
	site *syntax.Site
	res  *Result
}

func expandSource(t *testing.T, cfg config.Config, name, src string) []expanded {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, name, src, parser.ParseComments)
	require.NoError(t, err)

	sites, diags := ingest.File(fset, file, strings.HasSuffix(name, "_test.go"))
	require.Empty(t, diags)
	scope := ingest.Scope([]*ast.File{file})

	engine, err := New(cfg)
	require.NoError(t, err)

	var res []expanded
	for _, site := range sites {
		r, err := engine.Expand(site, scope)
		require.NoError(t, err)
		res = append(res, expanded{site: site, res: r})
	}
	return res
}

func expandOne(t *testing.T, src string) *Result {
	t.Helper()

	res := expandSource(t, config.Default(), "sample.go", src)
	require.Len(t, res, 1)
	return res[0].res
}

func codes(ds []diag.Diagnostic) []macrules.Code {
	var res []macrules.Code
	for _, d := range ds {
		res = append(res, d.Code)
	}
	return res
}

func TestEqualTwoFields(t *testing.T) {
	res := expandOne(t, `package sample

//gomacros:equal
type Point struct {
	X int
	Y int
}
`)
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Fragments, 1)

	expected := &Fragment{
		Target: TargetSource,
		Name:   "Point.Equal",
		Code: `// Equal reports whether x and other hold equal field values.
func (x *Point) Equal(other *Point) bool {
	if x == nil || other == nil {
		return x == other
	}

	return x.X == other.X &&
		x.Y == other.Y
}
`,
	}
	if !reflect.DeepEqual(expected, res.Fragments[0]) {
		deepequal.SideBySide(t, "fragment", expected, res.Fragments[0])
	}
	require.Equal(t, MacroEqual, res.Plan.Macro)
	require.Equal(t, "Point", res.Plan.Item)
}

func TestEqualOptions(t *testing.T) {
	res := expandOne(t, `package sample

//gomacros:equal rename(Same), skip(cache), mode(lenient)
type Sample[T comparable, V any] struct {
	ID    T
	Value V
	Tags  []string
	_     int
	cache map[string]int
}
`)
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Fragments, 1)

	frag := res.Fragments[0]
	assert.Equal(t, "Sample.Same", frag.Name)
	assert.Equal(t, []Import{{Alias: "reflect", Path: "reflect"}}, frag.Imports)
	assert.Contains(t, frag.Code, "func (x *Sample[T, V]) Same(other *Sample[T, V]) bool {")
	assert.Contains(t, frag.Code, "x.ID == other.ID")
	assert.Contains(t, frag.Code, "reflect.DeepEqual(x.Value, other.Value)")
	assert.Contains(t, frag.Code, "reflect.DeepEqual(x.Tags, other.Tags)")
	assert.NotContains(t, frag.Code, "cache")
	assert.NotContains(t, frag.Code, "x._")
}

func TestEqualEmptyStruct(t *testing.T) {
	res := expandOne(t, `package sample

//gomacros:equal
type Empty struct{}
`)
	require.Len(t, res.Fragments, 1)
	assert.Contains(t, res.Fragments[0].Code, "\treturn true\n")
}

func TestEqualStrictMode(t *testing.T) {
	res := expandOne(t, `package sample

//gomacros:equal
type Sample[T any] struct {
	Tags   []string
	Index  map[string]int
	Hook   func()
	Fixed  [2][]int
	Nested struct{ Items []int }
	Value  T
	Number int
}
`)
	require.Nil(t, res.Fragments)
	require.Nil(t, res.Plan)

	var fields []string
	for _, d := range res.Diagnostics {
		require.Equal(t, macrules.NonComparableField(), d.Code)
		fields = append(fields, strings.Fields(d.Message)[1])
	}
	require.Equal(t, []string{"Tags", "Index", "Hook", "Fixed", "Nested", "Value"}, fields)
}

func TestEqualComparableTypeParams(t *testing.T) {
	res := expandOne(t, `package sample

import "cmp"

//gomacros:equal
type Sample[A comparable, B cmp.Ordered, C ~int | ~string, D any] struct {
	First  A
	Second B
	Third  C
	Fourth *D
}
`)
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Fragments, 1)
}

func TestEqualErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		codes []macrules.Code
	}{
		{
			name: "method-collision",
			src: `package sample

//gomacros:equal
type Point struct{ X int }

func (p *Point) Equal(q *Point) bool { return false }
`,
			codes: []macrules.Code{macrules.IdentifierCollision()},
		},
		{
			name: "field-collision",
			src: `package sample

//gomacros:equal rename(X)
type Point struct{ X int }
`,
			codes: []macrules.Code{macrules.IdentifierCollision()},
		},
		{
			name: "unknown-skip",
			src: `package sample

//gomacros:equal skip(Z)
type Point struct{ X int }
`,
			codes: []macrules.Code{macrules.UnknownField()},
		},
		{
			name: "bad-mode",
			src: `package sample

//gomacros:equal mode(loose)
type Point struct{ X int }
`,
			codes: []macrules.Code{macrules.InvalidOptionValue()},
		},
		{
			name: "not-a-struct",
			src: `package sample

//gomacros:equal
type Color int
`,
			codes: []macrules.Code{macrules.UnsupportedItem()},
		},
		{
			name: "everything-at-once",
			src: `package sample

//gomacros:equal rename(X), skip(Z), unknown, mode(loose, strict)
type Point struct{
	X int
	Y []int
}
`,
			codes: []macrules.Code{
				macrules.UnknownOption(),
				macrules.InvalidOptionValue(),
				macrules.IdentifierCollision(),
				macrules.UnknownField(),
				macrules.NonComparableField(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := expandOne(t, tt.src)
			require.Nil(t, res.Fragments)
			assert.ElementsMatch(t, tt.codes, codes(res.Diagnostics))
		})
	}
}

func TestUnknownOption(t *testing.T) {
	src := `package sample

//gomacros:equal frobnicate(1)
type Point struct{ X int }
`
	res := expandOne(t, src)
	require.Nil(t, res.Fragments)
	require.Nil(t, res.Plan)
	require.Len(t, res.Diagnostics, 1)

	d := res.Diagnostics[0]
	require.Equal(t, macrules.UnknownOption(), d.Code)
	require.Equal(t, diag.SeverityError, d.Severity)
	require.Contains(t, d.Message, `"frobnicate"`)
	require.Equal(t, "argument frobnicate", d.Context)
}

func TestUnknownMacro(t *testing.T) {
	res := expandOne(t, `package sample

//gomacros:hash
type Point struct{ X int }
`)
	require.Equal(t, []macrules.Code{macrules.UnknownMacro()}, codes(res.Diagnostics))
	require.Contains(t, res.Diagnostics[0].Message, "equal, generictests, sertest")
}

func TestDuplicateMacro(t *testing.T) {
	res := expandSource(t, config.Default(), "sample.go", `package sample

//gomacros:equal
//gomacros:equal rename(Same)
type Point struct{ X int }
`)
	require.Len(t, res, 2)
	require.Empty(t, res[0].res.Diagnostics)
	require.Len(t, res[0].res.Fragments, 1)
	require.Equal(t, []macrules.Code{macrules.ConflictingAttributes()}, codes(res[1].res.Diagnostics))
	require.Equal(t, res[1].site.Macro.Span, res[1].res.Diagnostics[0].Span)
}

// invalidSources each hold a single invalid site.
var invalidSources = map[string]string{
	"equal-on-func": `package sample

//gomacros:equal
func Do() {}
`,
	"sertest-missing-types": `package sample

//gomacros:sertest
type Box[T any] struct{ V T }
`,
	"sertest-needless-types": `package sample

//gomacros:sertest types(int)
type Box struct{ V int }
`,
	"sertest-arity": `package sample

//gomacros:sertest types("int, string")
type Box[T any] struct{ V T }
`,
	"sertest-exclusive": `package sample

//gomacros:sertest constr(NewBox), arbitrary
type Box struct{ V int }

func NewBox() Box { return Box{} }
`,
	"sertest-missing-constructor": `package sample

//gomacros:sertest random
type Box struct{ V int }
`,
	"sertest-bad-type": `package sample

//gomacros:sertest types("1")
type Box[T any] struct{ V T }
`,
	"sertest-unknown-package": `package sample

//gomacros:sertest types(time.Duration)
type Box[T any] struct{ V T }
`,
	"sertest-duplicate": `package sample

//gomacros:sertest json, json(false)
type Box struct{ V int }
`,
	"generictests-missing-types": `package sample

import "testing"

//gomacros:generictests
func testSum[T any](t *testing.T) {}
`,
	"generictests-not-generic": `package sample

import "testing"

//gomacros:generictests types(int)
func testSum(t *testing.T) {}
`,
	"generictests-bad-params": `package sample

import "testing"

//gomacros:generictests types(int)
func testSum[T any](t *testing.B) {}
`,
	"generictests-skip-panics": `package sample

import "testing"

//gomacros:generictests types(int), skip("slow"), panics
func testSum[T any](t *testing.T) {}
`,
	"generictests-collision": `package sample

import "testing"

//gomacros:generictests types(int)
func testSum[T any](t *testing.T) {}

func TestSum_Int(t *testing.T) {}
`,
	"generictests-duplicate-instantiation": `package sample

import "testing"

//gomacros:generictests types(int, int)
func testSum[T any](t *testing.T) {}
`,
	"generictests-on-type": `package sample

//gomacros:generictests types(int)
type Box struct{}
`,
}

func TestInvalidSitesProduceNoOutput(t *testing.T) {
	for name, src := range invalidSources {
		t.Run(name, func(t *testing.T) {
			res := expandSource(t, config.Default(), "sample.go", src)
			require.Len(t, res, 1)

			r := res[0].res
			require.True(t, diag.HasErrors(r.Diagnostics), "expected errors, got %v", r.Diagnostics)
			require.Nil(t, r.Fragments)
			require.Nil(t, r.Plan)

			for _, d := range r.Diagnostics {
				assert.True(t, res[0].site.Span.Contains(d.Span), "%s at %v lies outside of %v", d.Code, d.Span, res[0].site.Span)
			}
		})
	}
}

func TestExpandIsDeterministic(t *testing.T) {
	src := `package sample

import (
	"testing"
	"time"
)

//gomacros:equal mode(lenient)
//gomacros:sertest types(int, time.Duration, "[]string"), json, xml, msgpack, yaml
type Box[T any] struct {
	V    T
	Tags []string
}

//gomacros:generictests types(int, "map[string]time.Duration"), parallel, panics
func testBox[T any](t *testing.T) {}
`

	first := expandSource(t, config.Default(), "sample.go", src)
	for range 5 {
		again := expandSource(t, config.Default(), "sample.go", src)
		require.Len(t, again, len(first))
		for i := range first {
			if !reflect.DeepEqual(first[i].res.Fragments, again[i].res.Fragments) {
				deepequal.SideBySide(t, "fragments", first[i].res.Fragments, again[i].res.Fragments)
			}
		}
	}
}

func TestHygiene(t *testing.T) {
	src := `package sample

import "testing"

var (
	x             = 1
	other         = 2
	obj           = 3
	t             = 4
	json          = 5
	rand          = 6
	reflect       = 7
	buf, err, got = 8, 9, 10
)

//gomacros:equal mode(lenient)
//gomacros:sertest random(makeBox)
type Box struct {
	Tags []string
}

func makeBox(r any) Box { return Box{} }

func TestSerRoundTripJSON_Box(*testing.T) {}
`

	res := expandSource(t, config.Default(), "sample.go", src)
	require.Len(t, res, 2)

	scope := syntax.NewScope()
	for _, n := range []string{"x", "other", "obj", "t", "json", "rand", "reflect", "buf", "err", "got", "Box", "makeBox", "TestSerRoundTripJSON_Box"} {
		scope.Declare(n)
	}

	for _, r := range res {
		require.Empty(t, r.res.Diagnostics)
		for _, frag := range r.res.Fragments {
			file, err := parser.ParseFile(token.NewFileSet(), "", "package sample\n"+frag.Code, 0)
			require.NoError(t, err, frag.Code)

			ast.Inspect(file, func(n ast.Node) bool {
				switch v := n.(type) {
				case *ast.FuncDecl:
					if v.Recv == nil {
						assert.False(t, scope.Has(v.Name.Name), "declared %s", v.Name.Name)
					}
				case *ast.Field:
					for _, name := range v.Names {
						assert.False(t, scope.Has(name.Name), "parameter %s", name.Name)
					}
				case *ast.AssignStmt:
					if v.Tok == token.DEFINE {
						for _, lhs := range v.Lhs {
							assert.False(t, scope.Has(lhs.(*ast.Ident).Name), "local %s", lhs)
						}
					}
				}
				return true
			})

			for _, imp := range frag.Imports {
				assert.False(t, scope.Has(imp.Alias), "import alias %s", imp.Alias)
			}
		}
	}

	require.Equal(t, []Import{{Alias: "reflect_2", Path: "reflect"}}, res[0].res.Fragments[0].Imports)
	require.Contains(t, res[0].res.Fragments[0].Code, "func (x_2 *Box) Equal(other_2 *Box) bool {")
	require.Equal(t, "TestSerRoundTripJSON_Box_2", res[1].res.Fragments[0].Name)
}

func TestEqualTypeChecks(t *testing.T) {
	src := `package sample

//gomacros:equal
type Empty struct{}

//gomacros:equal mode(lenient)
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}
`
	res := expandSource(t, config.Default(), "sample.go", src)
	require.Len(t, res, 2)

	var gen strings.Builder
	gen.WriteString("package sample\n\n")
	for _, r := range res {
		for _, frag := range r.res.Fragments {
			for _, imp := range frag.Imports {
				gen.WriteString("import " + imp.Alias + ` "` + imp.Path + "\"\n")
			}
		}
	}
	for _, r := range res {
		for _, frag := range r.res.Fragments {
			gen.WriteString("\n" + frag.Code)
		}
	}

	fset := token.NewFileSet()
	orig, err := parser.ParseFile(fset, "sample.go", src, parser.ParseComments)
	require.NoError(t, err)
	generated, err := parser.ParseFile(fset, "zz_gomacros.go", gen.String(), parser.ParseComments)
	require.NoError(t, err, gen.String())

	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	_, err = conf.Check("sample", fset, []*ast.File{orig, generated}, nil)
	require.NoError(t, err, gen.String())
}

func TestLineDirectives(t *testing.T) {
	cfg := config.Default()
	cfg.Output.LineDirectives = true

	res := expandSource(t, cfg, "dir/sample.go", `package sample

//gomacros:equal
type Point struct{ X int }
`)
	require.Len(t, res, 1)
	require.Len(t, res[0].res.Fragments, 1)
	require.Contains(t, res[0].res.Fragments[0].Code, "\n//line sample.go:4\nfunc (x *Point)")
}

func TestTargets(t *testing.T) {
	src := `package sample

//gomacros:equal
//gomacros:sertest
type Point struct{ X int }
`
	tests := []struct {
		name string
		file string
		src  string
		want []Target
	}{
		{
			name: "source",
			file: "sample.go",
			src:  src,
			want: []Target{TargetSource, TargetTest},
		},
		{
			name: "test",
			file: "sample_test.go",
			src:  src,
			want: []Target{TargetTest, TargetTest},
		},
		{
			name: "external-test",
			file: "sample_test.go",
			src:  strings.Replace(src, "package sample", "package sample_test", 1),
			want: []Target{TargetExternalTest, TargetExternalTest},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := expandSource(t, config.Default(), tt.file, tt.src)
			var got []Target
			for _, r := range res {
				for _, frag := range r.res.Fragments {
					got = append(got, frag.Target)
				}
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewRejectsUnknownCodec(t *testing.T) {
	cfg := config.Default()
	cfg.SerTest.Codecs = []string{"json", "cbor"}

	_, err := New(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), `"cbor"`)
}
