package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/tools/go/packages"

	"github.com/sirkon/gomacros/internal/config"
	"github.com/sirkon/gomacros/internal/generate"
	"github.com/sirkon/gomacros/internal/macros"
)

// loadPackages resolves patterns into package directories with their Go
// files, test files included.
func (a *app) loadPackages(patterns []string) ([]generate.Package, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	pkgs, err := packages.Load(&packages.Config{
		Mode:  packages.NeedName | packages.NeedFiles,
		Tests: true,
		Dir:   a.dir,
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages %s: %w", strings.Join(patterns, " "), err)
	}

	var errs []error
	files := map[string][]string{}
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Errorf("%s: %s", pkg.PkgPath, e.Msg))
		}
		// Test binaries have a generated main package out of the source tree.
		if strings.HasSuffix(pkg.PkgPath, ".test") {
			continue
		}
		for _, f := range pkg.GoFiles {
			if !strings.HasSuffix(f, ".go") {
				continue
			}
			dir := filepath.Dir(f)
			files[dir] = append(files[dir], f)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	var res []generate.Package
	for dir, fs := range files {
		slices.Sort(fs)
		res = append(res, generate.Package{
			Dir:   dir,
			Files: slices.Compact(fs),
		})
	}
	slices.SortFunc(res, func(x, y generate.Package) int {
		return strings.Compare(x.Dir, y.Dir)
	})

	a.log.WithField("packages", len(res)).Debug("patterns resolved")
	return res, nil
}

// loadEngine reads the configuration and creates the macro engine.
func (a *app) loadEngine(path string) (*macros.Engine, error) {
	var cfg config.Config
	if path != "" {
		c, err := config.Load(a.fs, path)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		dir := a.dir
		if dir == "" {
			dir = "."
		}
		c, found, err := config.LoadOrDefault(a.fs, dir)
		if err != nil {
			return nil, err
		}
		cfg, path = c, found
	}

	if path != "" {
		a.log.WithField("file", path).Debug("configuration loaded")
	} else {
		a.log.Debug("using default configuration")
	}

	return macros.New(cfg)
}

func (a *app) logResult(res *generate.PackageResult) {
	a.log.WithFields(logrus.Fields{
		"dir":         res.Dir,
		"sites":       res.Sites,
		"diagnostics": len(res.Diagnostics),
		"changes":     len(res.Changes),
	}).Debug("package expanded")
}
