package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/sirkon/gomacros/internal/generate"
	"github.com/sirkon/gomacros/internal/macros"
)

// planDump is the machine readable outcome of gomacros plan.
type planDump struct {
	Packages []packageDump `json:"packages" yaml:"packages" msgpack:"packages"`
}

type packageDump struct {
	Dir         string           `json:"dir" yaml:"dir" msgpack:"dir"`
	Plans       []sitePlanDump   `json:"plans,omitempty" yaml:"plans,omitempty" msgpack:"plans,omitempty"`
	Diagnostics []diagnosticDump `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
}

type sitePlanDump struct {
	Macro    string         `json:"macro" yaml:"macro" msgpack:"macro"`
	Item     string         `json:"item" yaml:"item" msgpack:"item"`
	Position string         `json:"position" yaml:"position" msgpack:"position"`
	Decls    []planItemDump `json:"decls" yaml:"decls" msgpack:"decls"`
}

type planItemDump struct {
	Name    string   `json:"name" yaml:"name" msgpack:"name"`
	Kind    string   `json:"kind" yaml:"kind" msgpack:"kind"`
	Target  string   `json:"target" yaml:"target" msgpack:"target"`
	Imports []string `json:"imports,omitempty" yaml:"imports,omitempty" msgpack:"imports,omitempty"`
	Code    string   `json:"code" yaml:"code" msgpack:"code"`
}

type diagnosticDump struct {
	Position string `json:"position" yaml:"position" msgpack:"position"`
	Severity string `json:"severity" yaml:"severity" msgpack:"severity"`
	Phase    string `json:"phase" yaml:"phase" msgpack:"phase"`
	Code     string `json:"code" yaml:"code" msgpack:"code"`
	Message  string `json:"message" yaml:"message" msgpack:"message"`
	Context  string `json:"context,omitempty" yaml:"context,omitempty" msgpack:"context,omitempty"`
}

func newPlanCommand(a *app) *cobra.Command {
	var (
		format string
		cfg    string
	)

	cmd := &cobra.Command{
		Use:   "plan [packages]",
		Short: "Print declarations directives of the packages would produce",
		Long: `Expands directives of the packages without touching the disk and prints
their plans and diagnostics as json, yaml or msgpack.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			encode, err := planEncoder(format)
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

			gen := generate.New(a.fs, engine, generate.Options{Mode: generate.ModeDryRun})
			results, err := gen.Run(cmd.Context(), pkgs)
			if err != nil {
				return err
			}

			var dump planDump
			failed := false
			for _, res := range results {
				a.logResult(res)
				dump.Packages = append(dump.Packages, dumpPackage(res))
				failed = failed || res.HasErrors()
			}
			if err := encode(a.stdout, dump); err != nil {
				return fmt.Errorf("encode plan: %w", err)
			}

			if failed {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json|yaml|msgpack)")
	cmd.Flags().StringVar(&cfg, "config", "", "configuration file, discovered from the working directory when empty")

	return cmd
}

func planEncoder(format string) (func(io.Writer, planDump) error, error) {
	switch format {
	case "json":
		return func(w io.Writer, v planDump) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}, nil
	case "yaml":
		return func(w io.Writer, v planDump) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(v); err != nil {
				return err
			}
			return enc.Close()
		}, nil
	case "msgpack":
		return func(w io.Writer, v planDump) error {
			return msgpack.NewEncoder(w).Encode(v)
		}, nil
	default:
		return nil, fmt.Errorf("unknown format %q, expected json, yaml or msgpack", format)
	}
}

func dumpPackage(res *generate.PackageResult) packageDump {
	pd := packageDump{Dir: res.Dir}

	for _, p := range res.Plans {
		sp := sitePlanDump{
			Macro:    p.Macro.String(),
			Item:     p.Item,
			Position: res.Fset.Position(p.Span.Pos).String(),
		}
		for _, it := range p.Items {
			sp.Decls = append(sp.Decls, dumpPlanItem(it))
		}
		pd.Plans = append(pd.Plans, sp)
	}

	for _, d := range res.Diagnostics {
		pd.Diagnostics = append(pd.Diagnostics, diagnosticDump{
			Position: res.Fset.Position(d.Span.Pos).String(),
			Severity: d.Severity.String(),
			Phase:    d.Phase.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Context:  d.Context,
		})
	}

	return pd
}

func dumpPlanItem(it *macros.PlanItem) planItemDump {
	res := planItemDump{
		Name:   it.Name,
		Kind:   it.Kind.String(),
		Target: it.Target.String(),
		Code:   it.Code,
	}
	for _, imp := range it.Imports {
		res.Imports = append(res.Imports, imp.Alias+" "+imp.Path)
	}

	return res
}
