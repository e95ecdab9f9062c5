package macros

import (
	"fmt"
	"go/token"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirkon/gomacros/internal/config"
	"github.com/sirkon/gomacros/internal/diag"
	"github.com/sirkon/gomacros/internal/macrules"
	"github.com/sirkon/gomacros/internal/syntax"
)

// Engine expands invocation sites. It holds immutable configuration only and
// is safe for concurrent use.
type Engine struct {
	cfg        config.Config
	codecs     map[string]Codec
	codecOrder []string
}

// New creates an engine with the given configuration.
func New(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	codecs, order := codecRegistry(cfg)
	for _, name := range cfg.SerTest.Codecs {
		if _, ok := codecs[name]; !ok {
			return nil, fmt.Errorf("unknown codec %q in sertest.codecs, known codecs are %s", name, strings.Join(order, ", "))
		}
	}

	return &Engine{
		cfg:        cfg,
		codecs:     codecs,
		codecOrder: order,
	}, nil
}

// Config returns the configuration of the engine.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Expand runs a single invocation site through validation and synthesis.
// The scope is not modified.
//
// User errors are returned as diagnostics of the result. A non-nil error is
// always a *SynthesisError.
func (e *Engine) Expand(site *syntax.Site, scope *syntax.Scope) (*Result, error) {
	idx := syntax.IndexSite(site)
	rep := diag.NewReporter(func(pos token.Pos) string {
		return syntax.Describe(idx.Enclosing(pos))
	})

	ex := &expansion{
		engine: e,
		site:   site,
		scope:  scope.Clone(),
		rep:    rep,
		val:    rep.Phase(diag.PhaseValidate),
	}
	plan := ex.validate()

	ds := rep.Diagnostics()
	for _, d := range ds {
		if !site.Span.Contains(d.Span) {
			return nil, ex.defect(fmt.Errorf("%s diagnostic %q lies outside of the invocation site", d.Code, d.Message))
		}
	}
	diag.Sort(ds)

	res := &Result{Diagnostics: ds}
	if diag.HasErrors(ds) || plan == nil || len(plan.Items) == 0 {
		return res, nil
	}

	frags, err := ex.synthesize(plan)
	if err != nil {
		return nil, err
	}
	res.Plan = plan
	res.Fragments = frags

	return res, nil
}

// expansion is the state of a single Expand call.
type expansion struct {
	engine *Engine
	site   *syntax.Site

	// scope is a private copy of the package scope. Names drawn for package
	// level declarations and import aliases are declared in it.
	scope *syntax.Scope

	rep *diag.Reporter
	val *diag.ReporterPhase
}

func (ex *expansion) validate() *Plan {
	site := ex.site
	macro, ok := MacroByName(site.Macro.Name)
	if !ok {
		names := make([]string, 0, len(Macros()))
		for _, m := range Macros() {
			names = append(names, m.String())
		}
		ex.val.Reportf(
			macrules.UnknownMacro(),
			site.Macro.Span,
			"unknown macro %q, known macros are %s",
			site.Macro.Name,
			strings.Join(names, ", "),
		)
		return nil
	}

	for i, prev := range site.Directives {
		if i >= site.Index {
			break
		}
		if prev.Name == site.Macro.Name {
			ex.val.Reportf(
				macrules.ConflictingAttributes(),
				site.Macro.Span,
				"macro %s is applied to %s more than once",
				macro,
				syntax.Describe(site.Item),
			)
			return nil
		}
	}

	switch macro {
	case MacroEqual:
		return ex.expandEqual()
	case MacroSerTest:
		return ex.expandSerTest()
	case MacroGenericTests:
		return ex.expandGenericTests()
	default:
		panic(fmt.Errorf("unhandled macro %s", macro))
	}
}

func (ex *expansion) newPlan(macro Macro) *Plan {
	return &Plan{
		Macro: macro,
		Item:  syntax.ItemName(ex.site.Item).Name,
		Span:  ex.site.Span,
	}
}

func (ex *expansion) unsupported(macro Macro, expected string) {
	ex.val.Reportf(
		macrules.UnsupportedItem(),
		ex.site.Macro.Span,
		"macro %s applies to %s, not to %s",
		macro,
		expected,
		syntax.Describe(ex.site.Item),
	)
}

// defect wraps an internal failure into a SynthesisError.
func (ex *expansion) defect(err error) error {
	return &SynthesisError{
		Macro: ex.site.Macro.Name,
		File:  ex.site.File,
		Item:  syntax.Describe(ex.site.Item),
		Err:   err,
	}
}

// alias returns the import alias for the path. Aliases recorded in the scope
// by earlier sites are reused, others are drawn on first use.
func (ex *expansion) alias(path string) string {
	if alias, ok := ex.scope.Alias(path); ok {
		return alias
	}

	alias := ex.scope.FreshImport(syntax.ImportName(path))
	ex.scope.DeclareAlias(path, alias)
	return alias
}

// locals returns a scope to draw function-local names from. Type parameter
// names are reserved as they share the function scope.
func (ex *expansion) locals(tps []*syntax.TypeParam) *syntax.Scope {
	res := ex.scope.Clone()
	for _, tp := range tps {
		res.Declare(tp.Name.Name)
	}
	return res
}

// codeTarget is the companion file for declarations that are not tests.
func (ex *expansion) codeTarget() Target {
	if !ex.site.Test {
		return TargetSource
	}
	return ex.testTarget()
}

// testTarget is the companion file for tests.
func (ex *expansion) testTarget() Target {
	if strings.HasSuffix(ex.site.Package, "_test") {
		return TargetExternalTest
	}
	return TargetTest
}

// lineDirective points the declaration following it at pos of the annotated
// item. It is empty when line directives are off.
func (ex *expansion) lineDirective(pos token.Pos) string {
	if !ex.engine.cfg.Output.LineDirectives {
		return ""
	}
	line := ex.site.Line(pos)
	if line == 0 {
		return ""
	}

	return fmt.Sprintf("//line %s:%d", filepath.Base(ex.site.File), line)
}

// importSet collects the imports of a single plan item.
type importSet struct {
	ex   *expansion
	list []Import
}

func (ex *expansion) newImports() *importSet {
	return &importSet{ex: ex}
}

// use registers the import and returns its alias.
func (s *importSet) use(path string) string {
	alias := s.ex.alias(path)
	if !slices.Contains(s.list, Import{Alias: alias, Path: path}) {
		s.list = append(s.list, Import{Alias: alias, Path: path})
	}
	return alias
}

// imports returns the collected imports ordered by path.
func (s *importSet) imports() []Import {
	res := slices.Clone(s.list)
	slices.SortFunc(res, func(a, b Import) int {
		return strings.Compare(a.Path, b.Path)
	})
	return res
}

// typeWithParams renders a generic type with its own parameters, like
// Pair[K, V].
func typeWithParams(name string, tps []*syntax.TypeParam) string {
	if len(tps) == 0 {
		return name
	}

	names := make([]string, len(tps))
	for i, tp := range tps {
		names[i] = tp.Name.Name
	}
	return name + "[" + strings.Join(names, ", ") + "]"
}

// instantiate renders name with type arguments.
func instantiate(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + "[" + strings.Join(args, ", ") + "]"
}
