package syntax

// StripSpans returns a deep copy of the site with all spans zeroed.
// This is useful for equality testing (ignoring source positions).
func StripSpans(s *Site) *Site {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Macro = stripIdent(s.Macro)
	cp.Directive = Span{}
	cp.Span = Span{}
	cp.TokenFile = nil
	cp.Args = make([]*Arg, len(s.Args))
	for i, a := range s.Args {
		cp.Args[i] = stripArg(a)
	}
	cp.Directives = stripIdents(s.Directives)
	cp.Item = stripItem(s.Item)
	return &cp
}

func stripItem(it Item) Item {
	switch x := it.(type) {
	case *StructItem:
		cp := *x
		cp.Name = stripIdent(x.Name)
		cp.Span = Span{}
		cp.TypeParams = stripTypeParams(x.TypeParams)
		cp.Fields = make([]*Field, len(x.Fields))
		for i, f := range x.Fields {
			fc := *f
			fc.Names = stripIdents(f.Names)
			fc.Type = stripType(f.Type)
			fc.Span = Span{}
			cp.Fields[i] = &fc
		}
		return &cp
	case *EnumItem:
		cp := *x
		cp.Name = stripIdent(x.Name)
		cp.Span = Span{}
		cp.TypeParams = stripTypeParams(x.TypeParams)
		cp.Underlying = stripType(x.Underlying)
		cp.Values = stripIdents(x.Values)
		return &cp
	case *FuncItem:
		return stripFunc(x)
	case *PackageItem:
		cp := *x
		cp.Name = stripIdent(x.Name)
		cp.Span = Span{}
		cp.Funcs = make([]*FuncItem, len(x.Funcs))
		for i, fn := range x.Funcs {
			cp.Funcs[i] = stripFunc(fn)
		}
		return &cp
	case *UnsupportedItem:
		cp := *x
		cp.Name = stripIdent(x.Name)
		cp.Span = Span{}
		return &cp
	default:
		return it
	}
}

func stripFunc(fn *FuncItem) *FuncItem {
	cp := *fn
	cp.Name = stripIdent(fn.Name)
	cp.Span = Span{}
	cp.Recv = stripType(fn.Recv)
	cp.TypeParams = stripTypeParams(fn.TypeParams)
	cp.Params = stripParams(fn.Params)
	cp.Results = stripParams(fn.Results)
	return &cp
}

func stripParams(ps []*Param) []*Param {
	if ps == nil {
		return nil
	}
	res := make([]*Param, len(ps))
	for i, p := range ps {
		res[i] = &Param{Name: stripIdent(p.Name), Type: stripType(p.Type)}
	}
	return res
}

func stripTypeParams(tps []*TypeParam) []*TypeParam {
	if tps == nil {
		return nil
	}
	res := make([]*TypeParam, len(tps))
	for i, tp := range tps {
		res[i] = &TypeParam{Name: stripIdent(tp.Name), Constraint: stripType(tp.Constraint)}
	}
	return res
}

func stripType(t *TypeRef) *TypeRef {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Span = Span{}
	cp.Elem = stripType(t.Elem)
	cp.Key = stripType(t.Key)
	cp.Args = stripTypes(t.Args)
	cp.Terms = stripTypes(t.Terms)
	return &cp
}

func stripTypes(ts []*TypeRef) []*TypeRef {
	if ts == nil {
		return nil
	}
	res := make([]*TypeRef, len(ts))
	for i, t := range ts {
		res[i] = stripType(t)
	}
	return res
}

func stripArg(a *Arg) *Arg {
	cp := *a
	cp.Name = stripIdent(a.Name)
	cp.Span = Span{}
	if a.Values != nil {
		cp.Values = make([]*Value, len(a.Values))
		for i, v := range a.Values {
			vc := *v
			vc.Span = Span{}
			cp.Values[i] = &vc
		}
	}
	return &cp
}

func stripIdents(ids []Ident) []Ident {
	if ids == nil {
		return nil
	}
	res := make([]Ident, len(ids))
	for i, id := range ids {
		res[i] = stripIdent(id)
	}
	return res
}

func stripIdent(id Ident) Ident {
	return Ident{Name: id.Name}
}
