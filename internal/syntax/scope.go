package syntax

import "strconv"

// Scope holds identifiers visible at package level: declarations of all
// files of a package plus methods and fields per type name. Import names are
// kept apart as they belong to the scope of a single file.
type Scope struct {
	names   map[string]struct{}
	imports map[string]struct{}
	members map[string]map[string]struct{}

	// aliases are import aliases generated code already uses, by path.
	aliases map[string]string
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{
		names:   map[string]struct{}{},
		imports: map[string]struct{}{},
		members: map[string]map[string]struct{}{},
		aliases: map[string]string{},
	}
}

// Declare adds a package-level identifier. Blank identifiers are ignored.
func (s *Scope) Declare(name string) {
	if name == "" || name == "_" {
		return
	}
	s.names[name] = struct{}{}
}

// DeclareImport adds a name some file of the package imports a package by.
func (s *Scope) DeclareImport(name string) {
	if name == "" || name == "_" || name == "." {
		return
	}
	s.imports[name] = struct{}{}
}

// DeclareMember adds a method or a field of the given type.
func (s *Scope) DeclareMember(typ, name string) {
	if name == "" || name == "_" {
		return
	}
	m, ok := s.members[typ]
	if !ok {
		m = map[string]struct{}{}
		s.members[typ] = m
	}
	m[name] = struct{}{}
}

// DeclareAlias records the alias generated code imports the path by. The
// alias is declared as a package-level name.
func (s *Scope) DeclareAlias(path, alias string) {
	s.aliases[path] = alias
	s.Declare(alias)
}

// Alias returns the alias recorded for the path.
func (s *Scope) Alias(path string) (string, bool) {
	alias, ok := s.aliases[path]
	return alias, ok
}

// Has reports whether the package-level identifier is taken.
func (s *Scope) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// HasImport reports whether some file imports a package by the name.
func (s *Scope) HasImport(name string) bool {
	_, ok := s.imports[name]
	return ok
}

// HasMember reports whether the type already has a method or field with the name.
func (s *Scope) HasMember(typ, name string) bool {
	_, ok := s.members[typ][name]
	return ok
}

// Clone returns an independent copy of the scope.
func (s *Scope) Clone() *Scope {
	res := NewScope()
	for k := range s.names {
		res.names[k] = struct{}{}
	}
	for k := range s.imports {
		res.imports[k] = struct{}{}
	}
	for typ, m := range s.members {
		cm := make(map[string]struct{}, len(m))
		for k := range m {
			cm[k] = struct{}{}
		}
		res.members[typ] = cm
	}
	for k, v := range s.aliases {
		res.aliases[k] = v
	}
	return res
}

// Fresh returns base when it is neither declared nor imported, or the first
// free base_N with N >= 2 otherwise, and declares the returned name.
func (s *Scope) Fresh(base string) string {
	return s.fresh(base, func(name string) bool {
		return s.Has(name) || s.HasImport(name)
	})
}

// FreshImport is Fresh for import names of a new file. Imports of other files
// do not clash with it.
func (s *Scope) FreshImport(base string) string {
	return s.fresh(base, s.Has)
}

func (s *Scope) fresh(base string, taken func(string) bool) string {
	name := base
	for n := 2; taken(name); n++ {
		name = base + "_" + strconv.Itoa(n)
	}
	s.Declare(name)
	return name
}
