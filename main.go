// Command gomacros expands //gomacros: directives into companion Go files.
//
//	gomacros generate ./...
//	gomacros plan --format yaml ./pkg
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sirkon/gomacros/internal/macros"
	"github.com/sirkon/gomacros/internal/report"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailed   = 1
	exitInternal = 2
)

// errFailed marks runs whose problems are already reported: user diagnostics
// with errors or out of date files.
var errFailed = errors.New("failed")

// app is the state shared by commands.
type app struct {
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer
	log    *logrus.Logger

	verbose bool
	color   string
	colored bool

	// dir is the directory patterns are resolved against. It is the working
	// directory when empty.
	dir string
}

func newApp() *app {
	return &app{
		fs:     afero.NewOsFs(),
		stdout: os.Stdout,
		stderr: os.Stderr,
		log: &logrus.Logger{
			Out:       os.Stderr,
			Formatter: &logrus.TextFormatter{DisableTimestamp: true},
			Hooks:     make(logrus.LevelHooks),
			Level:     logrus.InfoLevel,
		},
	}
}

func main() {
	os.Exit(run(newApp(), os.Args[1:]))
}

func run(a *app, args []string) int {
	root := newRootCommand(a)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return exitOK
	}
	if errors.Is(err, errFailed) {
		return exitFailed
	}

	var defect *macros.SynthesisError
	if errors.As(err, &defect) {
		a.log.WithError(defect.Err).WithField("file", defect.File).Error("internal error: " + defect.Error())
		return exitInternal
	}

	a.log.Error(err)
	return exitInternal
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "gomacros",
		Short:         "Expand //gomacros: directives into companion Go files",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.verbose {
				a.log.SetLevel(logrus.DebugLevel)
			}

			var mode report.ColorMode
			if err := mode.UnmarshalText([]byte(a.color)); err != nil {
				return fmt.Errorf("invalid --color: %w", err)
			}
			f, _ := a.stderr.(*os.File)
			a.colored = mode.Enabled(f)
			a.log.SetFormatter(&logrus.TextFormatter{
				DisableTimestamp: true,
				ForceColors:      a.colored,
				DisableColors:    !a.colored,
			})

			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug information")
	root.PersistentFlags().StringVar(&a.color, "color", "auto", "colorize output (auto|on|off)")

	root.AddCommand(
		newGenerateCommand(a),
		newPlanCommand(a),
		newVersionCommand(a),
	)

	return root
}
