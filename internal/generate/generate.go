package generate

import (
	"context"
	"fmt"
	"go/token"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/sirkon/gomacros/internal/config"
	"github.com/sirkon/gomacros/internal/macros"
)

// Mode tells what the generator does with computed companion files.
type Mode int

const (
	modeInvalid Mode = iota
	ModeWrite        // write and remove files
	ModeCheck        // report files that are out of date
	ModeDiff         // report differences against files on disk
	ModeDryRun       // compute changes without touching the disk
)

func (m Mode) String() string {
	switch m {
	case ModeWrite:
		return "write"
	case ModeCheck:
		return "check"
	case ModeDiff:
		return "diff"
	case ModeDryRun:
		return "dry-run"
	default:
		return fmt.Sprintf("invalid(%d)", m)
	}
}

// Package is a directory to generate companion files for.
type Package struct {
	Dir string

	// Files are Go files of the directory. All .go files of Dir are used
	// when it is empty.
	Files []string
}

// Options of a generator.
type Options struct {
	Mode Mode

	// Jobs limits the number of packages processed at once. GOMAXPROCS is
	// used when it is not positive.
	Jobs int
}

// Generator produces companion files for packages.
type Generator struct {
	fs     afero.Fs
	engine *macros.Engine
	cfg    config.Config
	opts   Options
}

// New creates a generator.
func New(fs afero.Fs, engine *macros.Engine, opts Options) *Generator {
	if opts.Mode == modeInvalid {
		opts.Mode = ModeWrite
	}

	return &Generator{
		fs:     fs,
		engine: engine,
		cfg:    engine.Config(),
		opts:   opts,
	}
}

// PackageResult is the outcome of a single package.
type PackageResult struct {
	*Expansion

	Dir string

	// Fset resolves positions of Diagnostics.
	Fset *token.FileSet

	// Changes are companion files differing from what is on disk. They are
	// applied in ModeWrite only.
	Changes []*Change
}

// Run processes packages. A non-nil error means an I/O failure or a
// *macros.SynthesisError, user problems are diagnostics of the results.
func (g *Generator) Run(ctx context.Context, pkgs []Package) ([]*PackageResult, error) {
	jobs := g.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]*PackageResult, len(pkgs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)
	for i, pkg := range pkgs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			res, err := g.process(pkg)
			if err != nil {
				return fmt.Errorf("process package %s: %w", pkg.Dir, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, func(a, b *PackageResult) int {
		return strings.Compare(a.Dir, b.Dir)
	})

	return results, nil
}

func (g *Generator) process(pkg Package) (*PackageResult, error) {
	fset := token.NewFileSet()
	srcs, err := g.parse(fset, pkg)
	if err != nil {
		return nil, err
	}

	exp, err := Expand(g.engine, fset, srcs)
	if err != nil {
		return nil, err
	}
	res := &PackageResult{
		Expansion: exp,
		Dir:       pkg.Dir,
		Fset:      fset,
	}
	if exp.HasErrors() {
		return res, nil
	}

	changes, err := g.changes(pkg.Dir, exp.files)
	if err != nil {
		return nil, err
	}
	res.Changes = changes

	if g.opts.Mode == ModeWrite {
		if err := g.apply(changes); err != nil {
			return nil, err
		}
	}

	return res, nil
}
