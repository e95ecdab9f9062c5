package macros

import (
	"strings"

	"github.com/sirkon/gomacros/internal/macrules"
	"github.com/sirkon/gomacros/internal/syntax"
)

// optionShape is the accepted form of an option.
type optionShape int

const (
	shapeInvalid  optionShape = iota
	shapeFlag                 // name or name(bool)
	shapeIdent                // name(Ident)
	shapeIdents               // name(Ident, ...)
	shapeOptIdent             // name or name(Ident)
	shapeString               // name("text")
	shapeTypes                // name(T, "T1, T2", ...)
)

// check returns a description of the expected form when arg does not fit.
func (s optionShape) check(arg *syntax.Arg) string {
	vals := arg.Values
	switch s {
	case shapeFlag:
		if !arg.List || (len(vals) == 1 && vals[0].Kind == syntax.ValueBool) {
			return ""
		}
		return "takes no value or a single boolean"

	case shapeIdent:
		if arg.List && len(vals) == 1 && vals[0].Kind == syntax.ValueIdent {
			return ""
		}
		return "takes a single identifier"

	case shapeIdents:
		if !arg.List || len(vals) == 0 {
			return "takes one or more identifiers"
		}
		for _, v := range vals {
			if v.Kind != syntax.ValueIdent {
				return "takes one or more identifiers"
			}
		}
		return ""

	case shapeOptIdent:
		if !arg.List || (len(vals) == 1 && vals[0].Kind == syntax.ValueIdent) {
			return ""
		}
		return "takes no value or a single identifier"

	case shapeString:
		if arg.List && len(vals) == 1 && vals[0].Kind == syntax.ValueString {
			return ""
		}
		return "takes a single string"

	case shapeTypes:
		if !arg.List || len(vals) == 0 {
			return "takes one or more types"
		}
		for _, v := range vals {
			switch v.Kind {
			case syntax.ValueIdent, syntax.ValueQualified, syntax.ValueString:
			default:
				return "takes types or strings with type lists"
			}
		}
		return ""

	default:
		return "is not supported"
	}
}

// optionSpec describes a single option of a macro.
type optionSpec struct {
	name     string
	shape    optionShape
	required bool
}

// options are decoded arguments which passed shape checks.
type options map[string]*syntax.Arg

// decode checks site arguments against the schema. Every problem is reported
// and decoding goes on, so that all of them surface at once.
func (ex *expansion) decode(macro Macro, specs []optionSpec) options {
	res := options{}
	given := map[string]bool{}

	for _, arg := range ex.site.Args {
		name := arg.Name.Name
		spec, ok := findOption(specs, name)
		if !ok {
			ex.val.Reportf(
				macrules.UnknownOption(),
				arg.Name.Span,
				"unknown option %q of macro %s, expected one of %s",
				name,
				macro,
				optionNames(specs),
			)
			continue
		}

		if given[name] {
			ex.val.Reportf(
				macrules.ConflictingAttributes(),
				arg.Span,
				"option %s is given more than once",
				name,
			)
			continue
		}
		given[name] = true

		if msg := spec.shape.check(arg); msg != "" {
			ex.val.Reportf(macrules.InvalidOptionValue(), arg.Span, "option %s %s", name, msg)
			continue
		}
		res[name] = arg
	}

	for _, spec := range specs {
		if spec.required && !given[spec.name] {
			ex.val.Reportf(
				macrules.MissingRequiredField(),
				ex.site.Macro.Span,
				"macro %s requires option %s",
				macro,
				spec.name,
			)
		}
	}

	return res
}

func findOption(specs []optionSpec, name string) (optionSpec, bool) {
	for _, spec := range specs {
		if spec.name == name {
			return spec, true
		}
	}
	return optionSpec{}, false
}

func optionNames(specs []optionSpec) string {
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.name
	}
	return strings.Join(names, ", ")
}

// flag returns the value of a flag option, or def when it is not set.
func (o options) flag(name string, def bool) bool {
	arg, ok := o[name]
	if !ok {
		return def
	}
	if !arg.List {
		return true
	}
	return arg.Values[0].Bool()
}

// value returns the first value of an option or nil.
func (o options) value(name string) *syntax.Value {
	arg, ok := o[name]
	if !ok || len(arg.Values) == 0 {
		return nil
	}
	return arg.Values[0]
}

func (o options) values(name string) []*syntax.Value {
	arg, ok := o[name]
	if !ok {
		return nil
	}
	return arg.Values
}

// given reports whether the site has an argument with the name, whether it
// passed decoding or not.
func (ex *expansion) given(name string) bool {
	for _, arg := range ex.site.Args {
		if arg.Name.Name == name {
			return true
		}
	}
	return false
}
