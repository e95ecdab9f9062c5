package generate

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/sirkon/gomacros/internal/config"
)

// Source is a parsed Go file of a package directory.
type Source struct {
	Path string
	File *ast.File
}

// Test reports whether the source is a _test.go file.
func (s *Source) Test() bool {
	return strings.HasSuffix(s.Path, "_test.go")
}

// fileGroup holds files of a directory sharing a package name.
type fileGroup struct {
	name  string
	files []*Source
}

// groupSources splits sources by package name. Groups are ordered by name,
// files keep their order.
func groupSources(srcs []*Source) []*fileGroup {
	var res []*fileGroup
	groups := map[string]*fileGroup{}
	for _, src := range srcs {
		name := src.File.Name.Name
		grp, ok := groups[name]
		if !ok {
			grp = &fileGroup{name: name}
			groups[name] = grp
			res = append(res, grp)
		}
		grp.files = append(grp.files, src)
	}

	slices.SortFunc(res, func(a, b *fileGroup) int {
		return strings.Compare(a.name, b.name)
	})
	return res
}

func (g *Generator) parse(fset *token.FileSet, pkg Package) ([]*Source, error) {
	paths, err := g.goFiles(pkg)
	if err != nil {
		return nil, err
	}

	var res []*Source
	for _, path := range paths {
		src, err := afero.ReadFile(g.fs, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		res = append(res, &Source{Path: path, File: file})
	}

	return res, nil
}

// goFiles lists Go files of the package in sorted order. Companion files are
// left out.
func (g *Generator) goFiles(pkg Package) ([]string, error) {
	var paths []string
	if len(pkg.Files) > 0 {
		for _, p := range pkg.Files {
			if !filepath.IsAbs(p) && filepath.Dir(p) == "." {
				p = filepath.Join(pkg.Dir, p)
			}
			paths = append(paths, p)
		}
	} else {
		infos, err := afero.ReadDir(g.fs, pkg.Dir)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", pkg.Dir, err)
		}
		for _, info := range infos {
			if info.IsDir() || !strings.HasSuffix(info.Name(), ".go") {
				continue
			}
			paths = append(paths, filepath.Join(pkg.Dir, info.Name()))
		}
	}

	var res []string
	for _, p := range paths {
		if g.isCompanion(filepath.Base(p)) {
			continue
		}
		res = append(res, p)
	}
	slices.Sort(res)

	return slices.Compact(res), nil
}

func (g *Generator) isCompanion(name string) bool {
	return IsCompanion(g.cfg, name)
}

// IsCompanion reports whether the file name is one of the companion files.
func IsCompanion(cfg config.Config, name string) bool {
	out := cfg.Output
	return name == out.Source || name == out.Test || name == out.ExternalTest
}
