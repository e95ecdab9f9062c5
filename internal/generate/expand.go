package generate

import (
	"fmt"
	"go/ast"
	"go/token"
	"path"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/sirkon/gomacros/internal/config"
	"github.com/sirkon/gomacros/internal/diag"
	"github.com/sirkon/gomacros/internal/ingest"
	"github.com/sirkon/gomacros/internal/macrules"
	"github.com/sirkon/gomacros/internal/macros"
	"github.com/sirkon/gomacros/internal/syntax"
)

// companion collects declarations of a single companion file.
type companion struct {
	name    string
	pkg     string
	imports []macros.Import
	decls   []string
}

func (c *companion) add(frag *macros.Fragment) {
	for _, imp := range frag.Imports {
		if !slices.Contains(c.imports, imp) {
			c.imports = append(c.imports, imp)
		}
	}
	c.decls = append(c.decls, frag.Code)
}

// Expansion is the outcome of expanding every site of a package directory.
type Expansion struct {
	// Sites is the number of invocation sites found.
	Sites int

	Plans       []*macros.Plan
	Diagnostics []diag.Diagnostic

	// files are companion files keyed by file name.
	files map[string]*companion
}

// HasErrors reports whether the expansion has error diagnostics.
func (e *Expansion) HasErrors() bool {
	return diag.HasErrors(e.Diagnostics)
}

// Expand runs every site of the sources in order and merges their fragments
// into companion files. Sources must belong to a single directory and must
// not include companion files. Names and aliases emitted by a site are
// visible to the sites after it.
func Expand(engine *macros.Engine, fset *token.FileSet, srcs []*Source) (*Expansion, error) {
	out := engine.Config().Output
	res := &Expansion{files: map[string]*companion{}}

	for _, grp := range groupSources(srcs) {
		asts := make([]*ast.File, len(grp.files))
		for i, f := range grp.files {
			asts[i] = f.File
		}
		scope := ingest.Scope(asts)
		emitted := map[string]bool{}

		for _, f := range grp.files {
			sites, ds := ingest.File(fset, f.File, f.Test())
			res.Diagnostics = append(res.Diagnostics, ds...)
			res.Sites += len(sites)

			for _, site := range sites {
				r, err := engine.Expand(site, scope)
				if err != nil {
					return nil, err
				}
				res.Diagnostics = append(res.Diagnostics, r.Diagnostics...)
				if r.Plan == nil {
					continue
				}

				if d, ok := collision(site, r.Fragments, emitted); ok {
					res.Diagnostics = append(res.Diagnostics, d)
					continue
				}
				res.Plans = append(res.Plans, r.Plan)

				for _, frag := range r.Fragments {
					emitted[frag.Name] = true
					declare(scope, frag)

					name := fileName(out, frag.Target)
					c, ok := res.files[name]
					switch {
					case !ok:
						c = &companion{name: name, pkg: grp.name}
						res.files[name] = c
					case c.pkg != grp.name:
						return nil, fmt.Errorf("%s would hold both package %s and package %s", name, c.pkg, grp.name)
					}
					c.add(frag)
				}
			}
		}
	}

	diag.Sort(res.Diagnostics)
	return res, nil
}

// collision reports the first fragment of a site declaring a name an earlier
// site of the package has already emitted.
func collision(site *syntax.Site, frags []*macros.Fragment, emitted map[string]bool) (diag.Diagnostic, bool) {
	for _, frag := range frags {
		if !emitted[frag.Name] {
			continue
		}

		code := macrules.IdentifierCollision()
		return diag.Diagnostic{
			Phase:    diag.PhaseAssemble,
			Severity: diag.SeverityOf(code),
			Code:     code,
			Message:  fmt.Sprintf("%s is already generated by another directive of package %s", frag.Name, site.Package),
			Span:     site.Macro.Span,
			Context:  syntax.Describe(site.Item),
		}, true
	}

	return diag.Diagnostic{}, false
}

// declare makes declarations and aliases of the fragment visible to later
// sites of the package.
func declare(scope *syntax.Scope, frag *macros.Fragment) {
	if typ, method, ok := strings.Cut(frag.Name, "."); ok {
		scope.DeclareMember(typ, method)
	} else {
		scope.Declare(frag.Name)
	}
	for _, imp := range frag.Imports {
		scope.DeclareAlias(imp.Path, imp.Alias)
	}
}

func fileName(out config.Output, target macros.Target) string {
	switch target {
	case macros.TargetSource:
		return out.Source
	case macros.TargetTest:
		return out.Test
	case macros.TargetExternalTest:
		return out.ExternalTest
	default:
		panic(fmt.Errorf("unhandled target %s", target))
	}
}

// render builds the formatted companion file.
func (g *Generator) render(c *companion) ([]byte, error) {
	var buf strings.Builder
	buf.WriteString("// " + g.cfg.Output.Header + "\n\n")
	buf.WriteString("package " + c.pkg + "\n")

	imps := slices.Clone(c.imports)
	slices.SortFunc(imps, func(a, b macros.Import) int {
		return strings.Compare(a.Path, b.Path)
	})
	if len(imps) > 0 {
		buf.WriteString("\nimport (\n")
		for _, imp := range imps {
			buf.WriteString("\t")
			if imp.Alias != path.Base(imp.Path) {
				buf.WriteString(imp.Alias + " ")
			}
			buf.WriteString(strconv.Quote(imp.Path) + "\n")
		}
		buf.WriteString(")\n")
	}

	for _, decl := range c.decls {
		buf.WriteString("\n" + decl)
	}

	res, err := imports.Process(c.name, []byte(buf.String()), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", c.name, err)
	}

	return res, nil
}
