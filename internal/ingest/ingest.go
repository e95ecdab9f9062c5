package ingest

import (
	"go/ast"
	"go/token"
	"strconv"

	"github.com/sirkon/gomacros/internal/diag"
	"github.com/sirkon/gomacros/internal/macrules"
	"github.com/sirkon/gomacros/internal/syntax"
)

// File scans a parsed file for gomacros directives and builds an invocation
// site for every well-formed one. Malformed and detached directives are
// reported as diagnostics and produce no sites.
//
// The file must be parsed with parser.ParseComments.
func File(fset *token.FileSet, file *ast.File, isTest bool) ([]*syntax.Site, []diag.Diagnostic) {
	rep := diag.NewReporter(nil)
	fi := &fileIngest{
		fset:    fset,
		file:    file,
		name:    fset.Position(file.Package).Filename,
		test:    isTest,
		imports: fileImports(file),
		consts:  collectConsts(file),
		rep:     rep.Phase(diag.PhaseIngest),
		seen:    map[*ast.CommentGroup]bool{},
	}
	fi.run()

	return fi.sites, rep.Diagnostics()
}

type fileIngest struct {
	fset    *token.FileSet
	file    *ast.File
	name    string
	test    bool
	imports []syntax.Import
	consts  map[string][]syntax.Ident
	rep     *diag.ReporterPhase
	seen    map[*ast.CommentGroup]bool
	sites   []*syntax.Site
}

func (fi *fileIngest) run() {
	if fi.file.Doc != nil {
		fi.attach(fi.packageItem, fi.file.Doc)
	}

	for _, decl := range fi.file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Doc != nil {
				fi.attach(func() syntax.Item { return fi.funcItem(d) }, d.Doc)
			}
		case *ast.GenDecl:
			fi.genDecl(d)
		}
	}

	for _, cg := range fi.file.Comments {
		if fi.seen[cg] {
			continue
		}
		for _, c := range cg.List {
			if !isDirective(c.Text) {
				continue
			}
			fi.rep.Reportf(
				macrules.DetachedDirective(),
				syntax.SpanOf(c),
				"directive %s is not attached to a declaration",
				syntax.DirectivePrefix+directiveName(c.Text),
			)
		}
	}
}

func (fi *fileIngest) genDecl(d *ast.GenDecl) {
	if d.Tok != token.TYPE {
		what := "declaration"
		switch d.Tok {
		case token.CONST:
			what = "constant declaration"
		case token.VAR:
			what = "variable declaration"
		case token.IMPORT:
			what = "import declaration"
		}
		mk := func() syntax.Item {
			return &syntax.UnsupportedItem{
				Name: genDeclName(d),
				What: what,
				Span: syntax.SpanOf(d),
			}
		}
		fi.attach(mk, d.Doc)

		for _, spec := range d.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok || vs.Doc == nil || !d.Lparen.IsValid() {
				continue
			}
			fi.attach(func() syntax.Item {
				return &syntax.UnsupportedItem{
					Name: syntax.IdentOf(vs.Names[0]),
					What: what,
					Span: syntax.SpanOf(vs),
				}
			}, vs.Doc)
		}
		return
	}

	// A directive on a type group applies to the only spec of the group and is
	// detached otherwise.
	grouped := d.Lparen.IsValid()
	for _, spec := range d.Specs {
		ts := spec.(*ast.TypeSpec)
		span := syntax.SpanOf(ts)
		if !grouped {
			span = syntax.SpanOf(d)
		}
		mk := func() syntax.Item { return fi.typeItem(ts, span) }

		switch {
		case len(d.Specs) == 1:
			fi.attach(mk, d.Doc, ts.Doc)
		default:
			fi.attach(mk, ts.Doc)
		}
	}
}

// attach creates sites for directives of the given doc comment groups. mk is
// called once per site so that every site owns its item.
func (fi *fileIngest) attach(mk func() syntax.Item, groups ...*ast.CommentGroup) {
	var dirs []*directive
	for _, cg := range groups {
		if cg == nil {
			continue
		}
		fi.seen[cg] = true

		for _, c := range cg.List {
			if !isDirective(c.Text) {
				continue
			}
			d, perr := parseDirective(c)
			if perr != nil {
				fi.rep.Report(macrules.ParseError(), perr.span, perr.msg)
				continue
			}
			dirs = append(dirs, d)
		}
	}
	if len(dirs) == 0 {
		return
	}

	names := make([]syntax.Ident, len(dirs))
	for i, d := range dirs {
		names[i] = d.macro
	}

	for i, d := range dirs {
		item := mk()
		names := append([]syntax.Ident(nil), names...)
		fi.sites = append(fi.sites, &syntax.Site{
			Macro:      d.macro,
			Directive:  d.span,
			Args:       d.args,
			Item:       item,
			Span:       d.span.Join(syntax.ItemSpan(item)),
			File:       fi.name,
			Package:    fi.file.Name.Name,
			Test:       fi.test,
			TokenFile:  fi.fset.File(fi.file.Package),
			Imports:    append([]syntax.Import(nil), fi.imports...),
			Directives: names,
			Index:      i,
		})
	}
}

func (fi *fileIngest) packageItem() syntax.Item {
	res := &syntax.PackageItem{
		Name: syntax.IdentOf(fi.file.Name),
		Span: syntax.Span{Pos: fi.file.FileStart, End: fi.file.FileEnd},
	}
	for _, decl := range fi.file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			res.Funcs = append(res.Funcs, fi.funcItem(fn))
		}
	}
	return res
}

func (fi *fileIngest) typeItem(ts *ast.TypeSpec, span syntax.Span) syntax.Item {
	name := syntax.IdentOf(ts.Name)
	if ts.Assign.IsValid() {
		return &syntax.UnsupportedItem{Name: name, What: "type alias", Span: span}
	}

	conv := newTypeConv(fi.fset, typeParamNames(ts.TypeParams)...)
	switch t := ts.Type.(type) {
	case *ast.StructType:
		return &syntax.StructItem{
			Name:       name,
			TypeParams: conv.typeParams(ts.TypeParams),
			Fields:     conv.fields(t),
			Span:       span,
		}
	case *ast.InterfaceType:
		return &syntax.UnsupportedItem{Name: name, What: "interface type", Span: span}
	default:
		return &syntax.EnumItem{
			Name:       name,
			TypeParams: conv.typeParams(ts.TypeParams),
			Underlying: conv.ref(ts.Type),
			Values:     append([]syntax.Ident(nil), fi.consts[name.Name]...),
			Span:       span,
		}
	}
}

func (fi *fileIngest) funcItem(d *ast.FuncDecl) *syntax.FuncItem {
	_, recvParams := receiverInfo(d.Recv)
	conv := newTypeConv(fi.fset, append(typeParamNames(d.Type.TypeParams), recvParams...)...)

	res := &syntax.FuncItem{
		Name:       syntax.IdentOf(d.Name),
		TypeParams: conv.typeParams(d.Type.TypeParams),
		Params:     conv.params(d.Type.Params),
		Results:    conv.params(d.Type.Results),
		Span:       syntax.SpanOf(d),
	}
	if d.Recv != nil && len(d.Recv.List) > 0 {
		res.Recv = conv.ref(d.Recv.List[0].Type)
	}
	if d.Doc != nil {
		for _, c := range d.Doc.List {
			if isDirective(c.Text) {
				res.Annotations = append(res.Annotations, directiveName(c.Text))
			}
		}
	}

	return res
}

func genDeclName(d *ast.GenDecl) syntax.Ident {
	if len(d.Specs) != 1 {
		return syntax.Ident{}
	}
	switch s := d.Specs[0].(type) {
	case *ast.ValueSpec:
		if len(s.Names) > 0 {
			return syntax.IdentOf(s.Names[0])
		}
	case *ast.ImportSpec:
		if s.Name != nil {
			return syntax.IdentOf(s.Name)
		}
	}
	return syntax.Ident{}
}

// collectConsts maps type names to the constants of that type in declaration
// order. Specs without a type and without values repeat the previous spec
// of the same const declaration.
func collectConsts(file *ast.File) map[string][]syntax.Ident {
	res := map[string][]syntax.Ident{}
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.CONST {
			continue
		}

		var typ ast.Expr
		for _, spec := range gd.Specs {
			vs := spec.(*ast.ValueSpec)
			switch {
			case vs.Type != nil:
				typ = vs.Type
			case len(vs.Values) > 0:
				typ = nil
			}

			id, ok := typ.(*ast.Ident)
			if !ok {
				continue
			}
			for _, n := range vs.Names {
				if n.Name == "_" {
					continue
				}
				res[id.Name] = append(res[id.Name], syntax.IdentOf(n))
			}
		}
	}

	return res
}

func fileImports(file *ast.File) []syntax.Import {
	var res []syntax.Import
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}

		name := syntax.ImportName(path)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		res = append(res, syntax.Import{Name: name, Path: path})
	}

	return res
}
