// Package analyzer reports gomacros diagnostics as a go/analysis pass, so
// that directives are checked by go vet and editors without generating files.
package analyzer

import (
	"fmt"
	"go/ast"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/sirkon/gomacros/internal/config"
	"github.com/sirkon/gomacros/internal/generate"
	"github.com/sirkon/gomacros/internal/macros"
)

const doc = `gomacros checks //gomacros: directives

It validates every directive of a package the way gomacros generate does and
reports the problems found. No files are written.`

// Analyzer is the vet entry point.
var Analyzer = &analysis.Analyzer{
	Name:     "gomacros",
	Doc:      doc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var configPath string

func init() {
	Analyzer.Flags.StringVar(&configPath, "config", "", "configuration file, discovered from the package directory when empty")
}

func run(pass *analysis.Pass) (any, error) {
	pector := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	var files []*ast.File
	pector.Preorder([]ast.Node{(*ast.File)(nil)}, func(node ast.Node) {
		files = append(files, node.(*ast.File))
	})
	if len(files) == 0 {
		return nil, nil
	}

	dir := filepath.Dir(pass.Fset.Position(files[0].Package).Filename)
	cfg, err := loadConfig(dir)
	if err != nil {
		return nil, err
	}
	engine, err := macros.New(cfg)
	if err != nil {
		return nil, err
	}

	var srcs []*generate.Source
	for _, file := range files {
		path := pass.Fset.Position(file.Package).Filename
		if generate.IsCompanion(cfg, filepath.Base(path)) {
			continue
		}
		srcs = append(srcs, &generate.Source{Path: path, File: file})
	}

	exp, err := generate.Expand(engine, pass.Fset, srcs)
	if err != nil {
		return nil, err
	}
	for _, d := range exp.Diagnostics {
		pass.Report(analysis.Diagnostic{
			Pos:      d.Span.Pos,
			End:      d.Span.End,
			Category: d.Code.ID(),
			Message:  fmt.Sprintf("%s: %s", d.Code.ID(), d.Message),
		})
	}

	return nil, nil
}

func loadConfig(dir string) (config.Config, error) {
	fs := afero.NewOsFs()
	if configPath != "" {
		return config.Load(fs, configPath)
	}

	cfg, _, err := config.LoadOrDefault(fs, dir)
	return cfg, err
}
