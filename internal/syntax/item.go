package syntax

// StructItem represents a struct type declaration.
//
//	type Pair[K comparable, V any] struct { Key K; Value V }
type StructItem struct {
	Name       Ident
	TypeParams []*TypeParam
	Fields     []*Field
	Span       Span
}

// EnumItem represents a named type which is neither a struct nor an interface,
// together with the constants of that type declared in the same file.
//
//	type Color int
//	const ( Red Color = iota; Green )  // Values: Red, Green
type EnumItem struct {
	Name       Ident
	TypeParams []*TypeParam
	Underlying *TypeRef
	Values     []Ident
	Span       Span
}

// FuncItem represents a function or method declaration.
type FuncItem struct {
	Name       Ident
	Recv       *TypeRef
	TypeParams []*TypeParam
	Params     []*Param
	Results    []*Param

	// Annotations lists macro names of directives attached to the function.
	Annotations []string
	Span        Span
}

// PackageItem represents a package clause annotation. It covers the whole
// file and lists the file's functions in declaration order.
type PackageItem struct {
	Name  Ident
	Funcs []*FuncItem
	Span  Span
}

// UnsupportedItem is a declaration no macro can be applied to. It is kept so
// that macros report a precise diagnostic instead of ingestion guessing.
type UnsupportedItem struct {
	Name Ident

	// What describes the declaration, like "interface type".
	What string
	Span Span
}

func (*StructItem) isNode()      {}
func (*EnumItem) isNode()        {}
func (*FuncItem) isNode()        {}
func (*PackageItem) isNode()     {}
func (*UnsupportedItem) isNode() {}

func (*StructItem) isItem()      {}
func (*EnumItem) isItem()        {}
func (*FuncItem) isItem()        {}
func (*PackageItem) isItem()     {}
func (*UnsupportedItem) isItem() {}

// ItemName returns the declared name of the item.
func ItemName(it Item) Ident {
	switch v := it.(type) {
	case *StructItem:
		return v.Name
	case *EnumItem:
		return v.Name
	case *FuncItem:
		return v.Name
	case *PackageItem:
		return v.Name
	case *UnsupportedItem:
		return v.Name
	default:
		return Ident{}
	}
}

// ItemSpan returns the span of the whole item.
func ItemSpan(it Item) Span {
	switch v := it.(type) {
	case *StructItem:
		return v.Span
	case *EnumItem:
		return v.Span
	case *FuncItem:
		return v.Span
	case *PackageItem:
		return v.Span
	case *UnsupportedItem:
		return v.Span
	default:
		return Span{}
	}
}

// ItemKind returns a short human-readable kind of the item.
func ItemKind(it Item) string {
	switch v := it.(type) {
	case *StructItem:
		return "struct type"
	case *EnumItem:
		return "named type"
	case *FuncItem:
		if v.Recv != nil {
			return "method"
		}
		return "function"
	case *PackageItem:
		return "package clause"
	case *UnsupportedItem:
		return v.What
	default:
		return "unknown item"
	}
}
