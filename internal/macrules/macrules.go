package macrules

import "fmt"

// Code represents a gomacros diagnostic code (GM-series).
type Code int

const (
	codeInvalid Code = iota

	GM000ParseError
	GM001UnknownMacro
	GM002DetachedDirective
	GM003UnsupportedItem
	GM100UnknownOption
	GM101MissingRequiredField
	GM102ConflictingAttributes
	GM103InvalidOptionValue
	GM104UnknownField
	GM110IdentifierCollision
	GM120NonComparableField
	GM150NothingToGenerate
	GM900SynthesisDefect
)

// Class groups codes by the stage that detects them.
type Class int

const (
	classInvalid Class = iota
	ClassParse
	ClassValidation
	ClassSynthesis
)

func (c Class) String() string {
	switch c {
	case ClassParse:
		return "parse"
	case ClassValidation:
		return "validation"
	case ClassSynthesis:
		return "synthesis"
	default:
		return fmt.Sprintf("class-unknown(%d)", c)
	}
}

// String returns the canonical code and short name of the code.
// Example: "GM000: ParseError"
func (c Code) String() string {
	switch c {
	case GM000ParseError:
		return "GM000: ParseError"
	case GM001UnknownMacro:
		return "GM001: UnknownMacro"
	case GM002DetachedDirective:
		return "GM002: DetachedDirective"
	case GM003UnsupportedItem:
		return "GM003: UnsupportedItem"
	case GM100UnknownOption:
		return "GM100: UnknownOption"
	case GM101MissingRequiredField:
		return "GM101: MissingRequiredField"
	case GM102ConflictingAttributes:
		return "GM102: ConflictingAttributes"
	case GM103InvalidOptionValue:
		return "GM103: InvalidOptionValue"
	case GM104UnknownField:
		return "GM104: UnknownField"
	case GM110IdentifierCollision:
		return "GM110: IdentifierCollision"
	case GM120NonComparableField:
		return "GM120: NonComparableField"
	case GM150NothingToGenerate:
		return "GM150: NothingToGenerate"
	case GM900SynthesisDefect:
		return "GM900: SynthesisDefect"
	default:
		return fmt.Sprintf("code-unknown(%d)", c)
	}
}

// ID returns the short code identifier, like "GM100".
func (c Code) ID() string {
	s := c.String()
	if len(s) < 5 || s[:2] != "GM" {
		return s
	}
	return s[:5]
}

// Description returns the human-readable explanation of the code.
func (c Code) Description() string {
	switch c {
	case GM000ParseError:
		return "Directive arguments do not follow the directive grammar."
	case GM001UnknownMacro:
		return "Directive names a macro that does not exist."
	case GM002DetachedDirective:
		return "Directive is not attached to a single declaration."
	case GM003UnsupportedItem:
		return "Macro cannot be applied to this kind of declaration."
	case GM100UnknownOption:
		return "Macro argument is not a recognized option."
	case GM101MissingRequiredField:
		return "A required option or item element is missing."
	case GM102ConflictingAttributes:
		return "Options or directives exclude each other."
	case GM103InvalidOptionValue:
		return "Option value has the wrong shape or content."
	case GM104UnknownField:
		return "Option refers to a field the item does not declare."
	case GM110IdentifierCollision:
		return "Synthesized identifier collides with a visible identifier."
	case GM120NonComparableField:
		return "Field cannot be compared with == in strict mode."
	case GM150NothingToGenerate:
		return "Macro configuration produces no output."
	case GM900SynthesisDefect:
		return "Generated code is inconsistent; this is a gomacros defect."
	default:
		return fmt.Sprintf("unknown-code(%d)", c)
	}
}

// Class returns the stage class of the code.
func (c Code) Class() Class {
	switch {
	case c >= GM000ParseError && c <= GM003UnsupportedItem:
		return ClassParse
	case c >= GM100UnknownOption && c <= GM150NothingToGenerate:
		return ClassValidation
	case c == GM900SynthesisDefect:
		return ClassSynthesis
	default:
		return classInvalid
	}
}

// Constructors of every code.

func ParseError() Code            { return GM000ParseError }
func UnknownMacro() Code          { return GM001UnknownMacro }
func DetachedDirective() Code     { return GM002DetachedDirective }
func UnsupportedItem() Code       { return GM003UnsupportedItem }
func UnknownOption() Code         { return GM100UnknownOption }
func MissingRequiredField() Code  { return GM101MissingRequiredField }
func ConflictingAttributes() Code { return GM102ConflictingAttributes }
func InvalidOptionValue() Code    { return GM103InvalidOptionValue }
func UnknownField() Code          { return GM104UnknownField }
func IdentifierCollision() Code   { return GM110IdentifierCollision }
func NonComparableField() Code    { return GM120NonComparableField }
func NothingToGenerate() Code     { return GM150NothingToGenerate }
func SynthesisDefect() Code       { return GM900SynthesisDefect }
