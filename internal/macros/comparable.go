package macros

import (
	"fmt"

	"github.com/sirkon/gomacros/internal/syntax"
)

// basicTypes are predeclared types usable with ==.
var basicTypes = map[string]bool{
	"bool": true, "string": true, "byte": true, "rune": true, "uintptr": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
}

// orderedConstraints are well-known constraints whose type sets are comparable.
var orderedConstraints = map[string]bool{
	"cmp.Ordered":          true,
	"constraints.Ordered":  true,
	"constraints.Integer":  true,
	"constraints.Float":    true,
	"constraints.Signed":   true,
	"constraints.Unsigned": true,
	"constraints.Complex":  true,
}

// notComparable explains why values of t cannot be compared with ==. It is
// empty when they can. Named types are trusted to be comparable as their
// definitions are out of reach.
func notComparable(t *syntax.TypeRef, params map[string]*syntax.TypeParam) string {
	if t == nil {
		return ""
	}

	switch t.Kind {
	case syntax.TypeSlice:
		return "slices are not comparable"
	case syntax.TypeMap:
		return "maps are not comparable"
	case syntax.TypeFunc:
		return "functions are not comparable"
	case syntax.TypeArray:
		return notComparable(t.Elem, params)
	case syntax.TypeStruct:
		for _, term := range t.Terms {
			if reason := notComparable(term, params); reason != "" {
				return reason
			}
		}
		return ""
	case syntax.TypeParamRef:
		tp, ok := params[t.Name]
		if !ok || !comparableConstraint(tp.Constraint) {
			return fmt.Sprintf("type parameter %s is not constrained to comparable types", t.Name)
		}
		return ""
	default:
		return ""
	}
}

// comparableConstraint reports whether every type of the constraint type set
// is known to be comparable.
func comparableConstraint(c *syntax.TypeRef) bool {
	if c == nil {
		return false
	}

	switch c.Kind {
	case syntax.TypeNamed:
		if c.Package != "" {
			return orderedConstraints[c.Package+"."+c.Name]
		}
		return c.Name == "comparable" || basicTypes[c.Name]

	case syntax.TypeUnion:
		for _, term := range c.Terms {
			if !comparableTerm(term) {
				return false
			}
		}
		return true

	default:
		return false
	}
}

func comparableTerm(t *syntax.TypeRef) bool {
	switch t.Kind {
	case syntax.TypeParamRef, syntax.TypeInterface:
		return false
	case syntax.TypeNamed:
		return t.Name != "any"
	default:
		return notComparable(t, nil) == ""
	}
}
