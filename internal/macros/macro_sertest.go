package macros

import (
	"github.com/serenize/snaker"

	"github.com/sirkon/gomacros/internal/macrules"
	"github.com/sirkon/gomacros/internal/syntax"
)

// constrKind tells how sertest builds the value under test.
type constrKind string

const (
	constrZero      constrKind = "zero"
	constrFunc      constrKind = "func"
	constrRandom    constrKind = "random"
	constrArbitrary constrKind = "arbitrary"
)

type serTestData struct {
	Line string
	Name string
	Type string

	Kind constrKind
	Func string
	Seed uint64

	// SeedInt64 is the seed for math/rand sources.
	SeedInt64 int64

	// Cases are constants of an enum type checked one by one.
	Cases []string

	Codec     string
	Marshal   string
	Unmarshal string

	// Package aliases.
	Testing string
	Reflect string
	Rand    string
	Quick   string

	// Locals.
	T    string
	Obj  string
	Buf  string
	Err  string
	Got  string
	Rng  string
	Val  string
	OK   string
	Case string
}

func (e *Engine) serTestOptions() []optionSpec {
	res := []optionSpec{
		{name: "constr", shape: shapeIdent},
		{name: "random", shape: shapeOptIdent},
		{name: "arbitrary", shape: shapeFlag},
		{name: "types", shape: shapeTypes},
	}
	for _, name := range e.codecOrder {
		res = append(res, optionSpec{name: name, shape: shapeFlag})
	}
	return res
}

// expandSerTest synthesizes a round-trip test per instantiation and codec:
// a value is built, marshaled, unmarshaled into a fresh variable and compared
// with the original.
func (ex *expansion) expandSerTest() *Plan {
	cfg := ex.engine.cfg
	opts := ex.decode(MacroSerTest, ex.engine.serTestOptions())

	var name syntax.Ident
	var tps []*syntax.TypeParam
	var values []syntax.Ident
	itemPos := syntax.ItemSpan(ex.site.Item).Pos
	switch it := ex.site.Item.(type) {
	case *syntax.StructItem:
		name, tps = it.Name, it.TypeParams
	case *syntax.EnumItem:
		name, tps, values = it.Name, it.TypeParams, it.Values
	default:
		ex.unsupported(MacroSerTest, "struct and named types")
		return nil
	}

	kind := constrZero
	var fn string
	var chosen *syntax.Arg
	for _, arg := range ex.site.Args {
		key := arg.Name.Name
		if opts[key] != arg {
			continue
		}
		if key != "constr" && key != "random" && key != "arbitrary" {
			continue
		}
		if key == "arbitrary" && !opts.flag(key, false) {
			continue
		}

		if chosen != nil {
			ex.val.Reportf(
				macrules.ConflictingAttributes(),
				arg.Span,
				"options %s and %s are mutually exclusive",
				chosen.Name.Name,
				key,
			)
			continue
		}
		chosen = arg

		switch key {
		case "constr":
			kind, fn = constrFunc, arg.Values[0].Text
		case "random":
			kind, fn = constrRandom, "Random"+name.Name
			if v := opts.value(key); v != nil {
				fn = v.Text
			}
		case "arbitrary":
			kind = constrArbitrary
		}
		if fn != "" && !ex.scope.Has(fn) {
			ex.val.Reportf(
				macrules.InvalidOptionValue(),
				arg.Span,
				"function %s is not declared in package %s",
				fn,
				ex.site.Package,
			)
		}
	}

	var codecs []Codec
	for _, codec := range ex.engine.codecOrder {
		enabled := false
		for _, c := range cfg.SerTest.Codecs {
			if c == codec {
				enabled = true
			}
		}
		if opts.flag(codec, enabled) {
			codecs = append(codecs, ex.engine.codecs[codec])
		}
	}

	insts := []*instantiation{{}}
	switch typesArg := opts["types"]; {
	case len(tps) > 0 && typesArg == nil:
		if !ex.given("types") {
			ex.val.Reportf(
				macrules.MissingRequiredField(),
				ex.site.Macro.Span,
				"generic type %s needs types(...) to be instantiated",
				name.Name,
			)
		}
	case len(tps) == 0 && typesArg != nil:
		ex.val.Reportf(
			macrules.InvalidOptionValue(),
			typesArg.Span,
			"type %s is not generic, types(...) does not apply",
			name.Name,
		)
	case typesArg != nil:
		insts = ex.instantiations(typesArg.Values)
		for _, inst := range insts {
			if len(inst.args) != len(tps) {
				ex.val.Reportf(
					macrules.InvalidOptionValue(),
					inst.span,
					"type %s has %d type parameters, got %d type arguments",
					name.Name,
					len(tps),
					len(inst.args),
				)
			}
		}
	}

	if ex.rep.HasErrors() {
		return nil
	}
	if len(codecs) == 0 {
		ex.val.Reportf(macrules.NothingToGenerate(), ex.site.Macro.Span, "no codec is enabled for %s", name.Name)
		return nil
	}

	var cases []string
	if kind == constrZero {
		for _, v := range values {
			cases = append(cases, v.Name)
		}
	}

	plan := ex.newPlan(MacroSerTest)
	for _, inst := range insts {
		for _, codec := range codecs {
			imps := ex.newImports()
			for _, p := range inst.paths {
				imps.use(p)
			}

			data := serTestData{
				Line:      ex.lineDirective(itemPos),
				Type:      instantiate(name.Name, inst.args),
				Kind:      kind,
				Seed:      cfg.SerTest.Seed,
				SeedInt64: int64(cfg.SerTest.Seed),
				Cases:     cases,
				Codec:     codec.Name,
				Testing:   imps.use("testing"),
				Reflect:   imps.use("reflect"),
			}
			data.Marshal = imps.use(codec.Marshal.Package) + "." + codec.Marshal.Name
			data.Unmarshal = imps.use(codec.Unmarshal.Package) + "." + codec.Unmarshal.Name
			if fn != "" {
				data.Func = instantiate(fn, inst.args)
			}
			switch kind {
			case constrRandom:
				data.Rand = imps.use("math/rand/v2")
			case constrArbitrary:
				data.Quick = imps.use("testing/quick")
				data.Rand = imps.use("math/rand")
			}

			testName := "TestSerRoundTrip" + snaker.SnakeToCamel(codec.Name) + "_" + name.Name
			if inst.suffix != "" {
				testName += "_" + inst.suffix
			}
			data.Name = ex.scope.Fresh(testName)

			locals := ex.locals(nil)
			data.T = locals.Fresh("t")
			data.Obj = locals.Fresh("obj")
			data.Buf = locals.Fresh("buf")
			data.Err = locals.Fresh("err")
			data.Got = locals.Fresh("got")
			data.Rng = locals.Fresh("rng")
			data.Val = locals.Fresh("val")
			data.OK = locals.Fresh("ok")
			data.Case = locals.Fresh("tc")

			plan.Items = append(plan.Items, &PlanItem{
				Name:    data.Name,
				Kind:    KindTest,
				Target:  ex.testTarget(),
				Imports: imps.imports(),
				tmpl:    "sertest",
				data:    data,
			})
		}
	}

	return plan
}
