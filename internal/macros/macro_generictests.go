package macros

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sirkon/gomacros/internal/macrules"
	"github.com/sirkon/gomacros/internal/syntax"
)

var genericTestsOptions = []optionSpec{
	{name: "types", shape: shapeTypes, required: true},
	{name: "skip", shape: shapeString},
	{name: "parallel", shape: shapeFlag},
	{name: "panics", shape: shapeFlag},
}

type genericTestData struct {
	Line     string
	Name     string
	Call     string
	Parallel bool
	Skip     string
	Panics   string

	Testing string
	T       string
	R       string
}

// expandGenericTests synthesizes a concrete test per instantiation of a
// generic test function:
//
//	func testSum[T Number](t *testing.T)
//
// with types(int, float64) gives TestSum_Int and TestSum_Float64.
func (ex *expansion) expandGenericTests() *Plan {
	opts := ex.decode(MacroGenericTests, genericTestsOptions)

	var funcs []*syntax.FuncItem
	switch it := ex.site.Item.(type) {
	case *syntax.FuncItem:
		if reason := ex.genericTestShape(it); reason != "" {
			ex.val.Reportf(
				macrules.UnsupportedItem(),
				it.Name.Span,
				"macro %s applies to generic test functions like func %s[T any](t *testing.T): %s",
				MacroGenericTests,
				it.Name.Name,
				reason,
			)
			return nil
		}
		funcs = []*syntax.FuncItem{it}

	case *syntax.PackageItem:
		for _, fn := range it.Funcs {
			if !isTestFuncName(fn.Name.Name) || ex.genericTestShape(fn) != "" {
				continue
			}
			if hasAnnotation(fn, MacroGenericTests) {
				continue
			}
			funcs = append(funcs, fn)
		}

	default:
		ex.unsupported(MacroGenericTests, "generic test functions and package clauses")
		return nil
	}

	skipArg, panicsArg := opts["skip"], opts["panics"]
	if skipArg != nil && panicsArg != nil && opts.flag("panics", false) {
		ex.val.Reportf(
			macrules.ConflictingAttributes(),
			panicsArg.Span,
			"options skip and panics are mutually exclusive",
		)
	}

	var insts []*instantiation
	if arg := opts["types"]; arg != nil {
		insts = ex.instantiations(arg.Values)
	}

	if !ex.rep.HasErrors() && len(funcs) == 0 {
		ex.val.Reportf(
			macrules.NothingToGenerate(),
			ex.site.Macro.Span,
			"file %s has no generic test functions without own %s annotation",
			ex.site.File,
			MacroGenericTests,
		)
		return nil
	}

	emitted := map[string]bool{}
	type pending struct {
		fn   *syntax.FuncItem
		inst *instantiation
		name string
	}
	var todo []pending
	for _, fn := range funcs {
		for _, inst := range insts {
			if len(inst.args) != len(fn.TypeParams) {
				ex.val.Reportf(
					macrules.InvalidOptionValue(),
					inst.span,
					"function %s has %d type parameters, got %d type arguments",
					fn.Name.Name,
					len(fn.TypeParams),
					len(inst.args),
				)
				continue
			}

			name := "Test" + testBaseName(fn.Name.Name) + "_" + inst.suffix
			if ex.scope.Has(name) || ex.scope.HasImport(name) || emitted[name] {
				ex.val.Reportf(
					macrules.IdentifierCollision(),
					inst.span,
					"test %s for %s is already declared in package %s",
					name,
					fn.Name.Name,
					ex.site.Package,
				)
				continue
			}
			emitted[name] = true
			todo = append(todo, pending{fn: fn, inst: inst, name: name})
		}
	}

	if ex.rep.HasErrors() {
		return nil
	}

	plan := ex.newPlan(MacroGenericTests)
	for _, p := range todo {
		ex.scope.Declare(p.name)

		imps := ex.newImports()
		for _, path := range p.inst.paths {
			imps.use(path)
		}
		locals := ex.locals(nil)
		data := genericTestData{
			Line:     ex.lineDirective(p.fn.Span.Pos),
			Name:     p.name,
			Call:     instantiate(p.fn.Name.Name, p.inst.args),
			Parallel: opts.flag("parallel", ex.engine.cfg.GenericTests.Parallel),
			Testing:  imps.use("testing"),
			T:        locals.Fresh("t"),
		}
		if v := opts.value("skip"); v != nil {
			data.Skip = strconv.Quote(v.Text)
		}
		if opts.flag("panics", false) {
			data.Panics = strconv.Quote(data.Call + " did not panic")
			data.R = locals.Fresh("r")
		}

		plan.Items = append(plan.Items, &PlanItem{
			Name:    p.name,
			Kind:    KindTest,
			Target:  ex.testTarget(),
			Imports: imps.imports(),
			tmpl:    "generictests",
			data:    data,
		})
	}

	return plan
}

// genericTestShape explains why fn is not a generic test function. It is
// empty when fn is one.
func (ex *expansion) genericTestShape(fn *syntax.FuncItem) string {
	switch {
	case fn.Recv != nil:
		return "methods cannot have type parameters"
	case len(fn.TypeParams) == 0:
		return "function has no type parameters"
	case len(fn.Results) > 0:
		return "function must not return values"
	case len(fn.Params) != 1:
		return "function must take a single *testing.T parameter"
	}

	t := fn.Params[0].Type
	if t == nil || t.Kind != syntax.TypePointer || t.Elem == nil || t.Elem.Kind != syntax.TypeNamed || t.Elem.Name != "T" {
		return "function must take a single *testing.T parameter"
	}
	imp, ok := ex.site.ImportByName(t.Elem.Package)
	if !ok || imp.Path != "testing" {
		return "function must take a single *testing.T parameter"
	}

	return ""
}

func hasAnnotation(fn *syntax.FuncItem, macro Macro) bool {
	for _, a := range fn.Annotations {
		if a == macro.String() {
			return true
		}
	}
	return false
}

// isTestFuncName reports whether name looks like testXxx.
func isTestFuncName(name string) bool {
	rest, ok := strings.CutPrefix(name, "test")
	if !ok || rest == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsUpper(r)
}

// testBaseName turns testSum and sum into Sum.
func testBaseName(name string) string {
	if isTestFuncName(name) {
		return strings.TrimPrefix(name, "test")
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
