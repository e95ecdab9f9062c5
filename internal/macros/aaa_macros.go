package macros

import (
	"fmt"

	"github.com/sirkon/gomacros/internal/diag"
	"github.com/sirkon/gomacros/internal/syntax"
)

// Macro is the closed set of macros the engine can expand.
type Macro int

const (
	macroInvalid Macro = iota
	MacroEqual
	MacroSerTest
	MacroGenericTests
)

var macroNames = map[Macro]string{
	MacroEqual:        "equal",
	MacroSerTest:      "sertest",
	MacroGenericTests: "generictests",
}

func (m Macro) String() string {
	v, ok := macroNames[m]
	if !ok {
		return fmt.Sprintf("invalid(%d)", m)
	}

	return v
}

func (m Macro) MarshalText() ([]byte, error) {
	if _, ok := macroNames[m]; !ok {
		return nil, fmt.Errorf("cannot marshal invalid macro %d", m)
	}
	return []byte(m.String()), nil
}

// MacroByName looks up a macro by the name used in directives.
func MacroByName(name string) (Macro, bool) {
	for _, m := range Macros() {
		if macroNames[m] == name {
			return m, true
		}
	}
	return macroInvalid, false
}

// Macros lists all macros in a fixed order.
func Macros() []Macro {
	return []Macro{MacroEqual, MacroGenericTests, MacroSerTest}
}

// Target is a companion file a declaration is written to.
type Target int

const (
	targetInvalid Target = iota
	TargetSource
	TargetTest
	TargetExternalTest
)

var targetNames = map[Target]string{
	TargetSource:       "source",
	TargetTest:         "test",
	TargetExternalTest: "external-test",
}

func (t Target) String() string {
	v, ok := targetNames[t]
	if !ok {
		return fmt.Sprintf("invalid(%d)", t)
	}

	return v
}

func (t Target) MarshalText() ([]byte, error) {
	if _, ok := targetNames[t]; !ok {
		return nil, fmt.Errorf("cannot marshal invalid target %d", t)
	}
	return []byte(t.String()), nil
}

// Kind of a synthesized declaration.
type Kind int

const (
	kindInvalid Kind = iota
	KindMethod
	KindTest
)

func (k Kind) String() string {
	switch k {
	case KindMethod:
		return "method"
	case KindTest:
		return "test"
	default:
		return fmt.Sprintf("invalid(%d)", k)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	if k != KindMethod && k != KindTest {
		return nil, fmt.Errorf("cannot marshal invalid kind %d", k)
	}
	return []byte(k.String()), nil
}

// Import is an import a synthesized declaration needs. Alias is always
// explicit in generated files.
type Import struct {
	Alias string
	Path  string
}

// Plan is the transformation plan of a single invocation site.
type Plan struct {
	Macro Macro

	// Item is the name of the annotated declaration.
	Item string
	Span syntax.Span

	Items []*PlanItem
}

// PlanItem is a single declaration to synthesize.
type PlanItem struct {
	// Name is the declared name. Methods are named Type.Method.
	Name    string
	Kind    Kind
	Target  Target
	Imports []Import

	// Code is the rendered declaration. It is empty until synthesis.
	Code string

	tmpl string
	data any
}

// Fragment is the output of a site for a single companion file declaration.
type Fragment struct {
	Target  Target
	Name    string
	Imports []Import
	Code    string
}

// Result of an expansion. Plan and Fragments are nil when Diagnostics hold
// an error or when there is nothing to generate.
type Result struct {
	Plan        *Plan
	Fragments   []*Fragment
	Diagnostics []diag.Diagnostic
}

// SynthesisError is an internal defect of an expansion: generated code that
// does not parse, a template failure or a diagnostic pointing outside the
// invocation site. It is never a user error.
type SynthesisError struct {
	Macro string
	File  string
	Item  string
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s: %s expansion of %s: %v", e.File, e.Macro, e.Item, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}
