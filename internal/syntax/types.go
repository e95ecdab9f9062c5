package syntax

import "fmt"

// TypeKind tells which type expression a TypeRef stands for.
type TypeKind int

const (
	typeKindInvalid TypeKind = iota
	TypeNamed
	TypeParamRef
	TypePointer
	TypeSlice
	TypeArray
	TypeMap
	TypeFunc
	TypeChan
	TypeStruct
	TypeInterface
	TypeUnion
	TypeEllipsis
)

var typeKindNames = map[TypeKind]string{
	TypeNamed:     "named",
	TypeParamRef:  "type-param",
	TypePointer:   "pointer",
	TypeSlice:     "slice",
	TypeArray:     "array",
	TypeMap:       "map",
	TypeFunc:      "func",
	TypeChan:      "chan",
	TypeStruct:    "struct",
	TypeInterface: "interface",
	TypeUnion:     "union",
	TypeEllipsis:  "ellipsis",
}

func (k TypeKind) String() string {
	v, ok := typeKindNames[k]
	if !ok {
		return fmt.Sprintf("invalid(%d)", k)
	}

	return v
}

// TypeRef is a type expression as written in the source.
//
//	map[string][]T // Kind: TypeMap, Key: <string>, Elem: <[]T>
type TypeRef struct {
	Kind TypeKind

	// Text is the expression as printed from the source.
	Text string

	// Package is the qualifier of a named type ("time" for time.Duration).
	Package string

	// Name is the base name of a named type or a type parameter.
	Name string

	// Args are type arguments of an instantiated generic named type.
	Args []*TypeRef

	// Elem is the element type of pointers, slices, arrays, channels and
	// ellipsis parameters, and the value type of maps.
	Elem *TypeRef

	// Key is the key type of maps.
	Key *TypeRef

	// Terms are the field types of struct literals and the terms of unions.
	Terms []*TypeRef

	Span Span
}

// Field is a struct field declaration. A declaration with several names
// (A, B int) stays a single Field.
type Field struct {
	Names    []Ident
	Embedded bool
	Type     *TypeRef
	Tag      string
	Span     Span
}

// TypeParam is a type parameter with its constraint.
type TypeParam struct {
	Name       Ident
	Constraint *TypeRef
	Span       Span
}

// Param is a function parameter or result. Name is empty for unnamed ones.
type Param struct {
	Name Ident
	Type *TypeRef
	Span Span
}

func (*TypeRef) isNode()   {}
func (*Field) isNode()     {}
func (*TypeParam) isNode() {}
func (*Param) isNode()     {}
