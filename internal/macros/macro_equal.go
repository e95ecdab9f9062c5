package macros

import (
	"github.com/sirkon/gomacros/internal/config"
	"github.com/sirkon/gomacros/internal/macrules"
	"github.com/sirkon/gomacros/internal/syntax"
)

var equalOptions = []optionSpec{
	{name: "rename", shape: shapeIdent},
	{name: "skip", shape: shapeIdents},
	{name: "mode", shape: shapeIdent},
}

type equalField struct {
	Name string

	// Deep fields are compared with reflect.DeepEqual.
	Deep bool
}

type equalData struct {
	Line    string
	Method  string
	Type    string
	Recv    string
	Other   string
	Reflect string
	Fields  []equalField
}

// expandEqual synthesizes a method comparing every field of a struct:
//
//	func (x *T) Equal(other *T) bool
func (ex *expansion) expandEqual() *Plan {
	opts := ex.decode(MacroEqual, equalOptions)

	item, ok := ex.site.Item.(*syntax.StructItem)
	if !ok {
		ex.unsupported(MacroEqual, "struct types")
		return nil
	}
	typeName := item.Name.Name

	method := ex.engine.cfg.Equal.Method
	methodSpan := ex.site.Macro.Span
	if v := opts.value("rename"); v != nil {
		method = v.Text
		methodSpan = v.Span
	}
	if ex.scope.HasMember(typeName, method) {
		ex.val.Reportf(
			macrules.IdentifierCollision(),
			methodSpan,
			"type %s already has a field or method %s",
			typeName,
			method,
		)
	}

	mode := ex.engine.cfg.Equal.Mode
	if v := opts.value("mode"); v != nil {
		var m config.Mode
		if err := m.UnmarshalText([]byte(v.Text)); err != nil {
			ex.val.Reportf(
				macrules.InvalidOptionValue(),
				v.Span,
				"mode must be %s or %s, got %s",
				config.ModeStrict,
				config.ModeLenient,
				v.Text,
			)
		} else {
			mode = m
		}
	}

	known := map[string]bool{}
	for _, f := range item.Fields {
		for _, n := range f.Names {
			known[n.Name] = true
		}
	}
	skip := map[string]bool{}
	for _, v := range opts.values("skip") {
		if !known[v.Text] || v.Text == "_" {
			ex.val.Reportf(macrules.UnknownField(), v.Span, "type %s has no field %s", typeName, v.Text)
			continue
		}
		skip[v.Text] = true
	}

	params := make(map[string]*syntax.TypeParam, len(item.TypeParams))
	for _, tp := range item.TypeParams {
		params[tp.Name.Name] = tp
	}

	var fields []equalField
	var deep bool
	for _, f := range item.Fields {
		for _, n := range f.Names {
			if n.Name == "_" || n.Name == "" || skip[n.Name] {
				continue
			}

			reason := notComparable(f.Type, params)
			if reason == "" {
				fields = append(fields, equalField{Name: n.Name})
				continue
			}
			if mode == config.ModeStrict {
				ex.val.Reportf(
					macrules.NonComparableField(),
					n.Span.Join(f.Type.Span),
					"field %s of type %s cannot be compared with ==: %s; skip it or use mode(lenient)",
					n.Name,
					f.Type.Text,
					reason,
				)
				continue
			}

			fields = append(fields, equalField{Name: n.Name, Deep: true})
			deep = true
		}
	}

	if ex.rep.HasErrors() {
		return nil
	}

	imps := ex.newImports()
	data := equalData{
		Line:   ex.lineDirective(item.Span.Pos),
		Method: method,
		Type:   typeWithParams(typeName, item.TypeParams),
		Fields: fields,
	}
	if deep {
		data.Reflect = imps.use("reflect")
	}
	locals := ex.locals(item.TypeParams)
	data.Recv = locals.Fresh("x")
	data.Other = locals.Fresh("other")

	plan := ex.newPlan(MacroEqual)
	plan.Items = append(plan.Items, &PlanItem{
		Name:    typeName + "." + method,
		Kind:    KindMethod,
		Target:  ex.codeTarget(),
		Imports: imps.imports(),
		tmpl:    "equal",
		data:    data,
	})

	return plan
}
