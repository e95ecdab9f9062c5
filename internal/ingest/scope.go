package ingest

import (
	"go/ast"

	"github.com/sirkon/gomacros/internal/syntax"
)

// Scope collects package-level identifiers of all files of a package:
// functions, types, variables and constants, as well as the import names of
// every file and methods and struct fields per type.
func Scope(files []*ast.File) *syntax.Scope {
	s := syntax.NewScope()
	for _, file := range files {
		for _, imp := range fileImports(file) {
			s.DeclareImport(imp.Name)
		}

		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil {
					s.Declare(d.Name.Name)
					continue
				}
				if typ, _ := receiverInfo(d.Recv); typ != "" {
					s.DeclareMember(typ, d.Name.Name)
				}

			case *ast.GenDecl:
				for _, spec := range d.Specs {
					declareSpec(s, spec)
				}
			}
		}
	}

	return s
}

func declareSpec(s *syntax.Scope, spec ast.Spec) {
	switch sp := spec.(type) {
	case *ast.TypeSpec:
		s.Declare(sp.Name.Name)
		st, ok := sp.Type.(*ast.StructType)
		if !ok {
			return
		}
		for _, f := range st.Fields.List {
			if len(f.Names) == 0 {
				s.DeclareMember(sp.Name.Name, embeddedName(f.Type).Name)
				continue
			}
			for _, n := range f.Names {
				s.DeclareMember(sp.Name.Name, n.Name)
			}
		}

	case *ast.ValueSpec:
		for _, n := range sp.Names {
			s.Declare(n.Name)
		}
	}
}
