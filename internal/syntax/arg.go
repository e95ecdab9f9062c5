package syntax

import "fmt"

// ValueKind tells how a directive argument value was written.
type ValueKind int

const (
	valueKindInvalid ValueKind = iota
	ValueIdent
	ValueQualified
	ValueString
	ValueInt
	ValueBool
)

func (k ValueKind) String() string {
	switch k {
	case ValueIdent:
		return "identifier"
	case ValueQualified:
		return "qualified identifier"
	case ValueString:
		return "string"
	case ValueInt:
		return "integer"
	case ValueBool:
		return "boolean"
	default:
		return fmt.Sprintf("value-kind-invalid(%d)", k)
	}
}

// Arg is a single directive argument.
//
//	skip(cache, mu) // Name: skip, Values: [cache, mu], List: true
//	parallel        // Name: parallel, List: false
type Arg struct {
	Name   Ident
	Values []*Value

	// List is set when the argument was written with parentheses, even empty ones.
	List bool
	Span Span
}

// Value is a value inside an argument list. Text holds the unquoted string
// for ValueString and the source text otherwise.
type Value struct {
	Kind ValueKind
	Text string
	Span Span
}

// Bool returns the value of a ValueBool.
func (v *Value) Bool() bool {
	return v.Kind == ValueBool && v.Text == "true"
}

func (*Arg) isNode()   {}
func (*Value) isNode() {}
