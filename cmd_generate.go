package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sirkon/gomacros/internal/generate"
	"github.com/sirkon/gomacros/internal/report"
)

func newGenerateCommand(a *app) *cobra.Command {
	var (
		check  bool
		diff   bool
		dryRun bool
		jobs   int
		cfg    string
	)

	cmd := &cobra.Command{
		Use:   "generate [packages]",
		Short: "Write companion files for directives of the packages",
		Long: `Expands every //gomacros: directive of the packages and writes the
companion files next to them. Files of packages with errors are left as they are.

Exit status is 1 when a directive has errors or, with --check, when a companion
file is out of date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := generateMode(check, diff, dryRun)
			if err != nil {
				return err
			}

			engine, err := a.loadEngine(cfg)
			if err != nil {
				return err
			}
			pkgs, err := a.loadPackages(args)
			if err != nil {
				return err
			}

			gen := generate.New(a.fs, engine, generate.Options{
				Mode: mode,
				Jobs: jobs,
			})
			results, err := gen.Run(cmd.Context(), pkgs)
			if err != nil {
				return err
			}

			return a.reportGenerate(mode, results)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "report out of date companion files without writing them")
	cmd.Flags().BoolVar(&diff, "diff", false, "print differences against companion files on disk")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list companion files to write or remove")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "packages processed at once, GOMAXPROCS when not positive")
	cmd.Flags().StringVar(&cfg, "config", "", "configuration file, discovered from the working directory when empty")

	return cmd
}

func generateMode(check, diff, dryRun bool) (generate.Mode, error) {
	mode, n := generate.ModeWrite, 0
	if check {
		mode, n = generate.ModeCheck, n+1
	}
	if diff {
		mode, n = generate.ModeDiff, n+1
	}
	if dryRun {
		mode, n = generate.ModeDryRun, n+1
	}
	if n > 1 {
		return mode, errors.New("--check, --diff and --dry-run are mutually exclusive")
	}

	return mode, nil
}

func (a *app) reportGenerate(mode generate.Mode, results []*generate.PackageResult) error {
	printer := report.NewPrinter(a.stderr, a.fs, a.colored)

	var failed, stale bool
	for _, res := range results {
		a.logResult(res)
		if err := printer.Print(res.Fset, res.Diagnostics); err != nil {
			return err
		}
		if res.HasErrors() {
			failed = true
			a.log.WithField("dir", res.Dir).Warn("companion files left unchanged")
			continue
		}

		for _, c := range res.Changes {
			if err := a.reportChange(mode, c); err != nil {
				return err
			}
			stale = true
		}
	}

	if failed || (stale && mode == generate.ModeCheck) {
		return errFailed
	}
	return nil
}

func (a *app) reportChange(mode generate.Mode, c *generate.Change) error {
	var err error
	switch mode {
	case generate.ModeWrite:
		a.log.WithField("file", c.Path).Info(c.Action.String())
	case generate.ModeCheck:
		_, err = fmt.Fprintf(a.stdout, "%s is out of date\n", c.Path)
	case generate.ModeDiff:
		_, err = io.WriteString(a.stdout, c.Diff())
	case generate.ModeDryRun:
		_, err = fmt.Fprintf(a.stdout, "%s %s\n", c.Action, c.Path)
	}
	if err != nil {
		return fmt.Errorf("report change of %s: %w", c.Path, err)
	}

	return nil
}
