package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ripple/internal/builder"
	"ripple/internal/diag"
	"ripple/internal/frontend"
	"ripple/internal/statedump"
	"ripple/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Run incremental semantic checks over a project",
	Long:  `Check analyzes the project's mini sources and reports syntax and semantic issues, reusing cached results for files that did not change`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("dump-state", "", "write a builder state snapshot (msgpack) to the given file")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts, quiet, err := printOptions(cmd)
	if err != nil {
		return err
	}
	dumpPath, err := cmd.Flags().GetString("dump-state")
	if err != nil {
		return fmt.Errorf("failed to get dump-state flag: %w", err)
	}

	manifest, err := loadManifest(args)
	if err != nil {
		return err
	}
	prog, err := frontend.NewScanner().Load(ctx, manifest)
	if err != nil {
		return err
	}

	b := builder.NewDiagnosticsBuilder(prog, hostFor(manifest), nil)

	bag := diag.NewBag(4096)
	for _, d := range b.OptionsDiagnostics() {
		bag.Add(d)
	}
	for _, d := range b.GlobalDiagnostics() {
		bag.Add(d)
	}
	for _, f := range b.SourceFiles() {
		for _, d := range b.SyntacticDiagnostics(f) {
			bag.Add(d)
		}
	}
	semantic, err := b.SemanticDiagnostics(ctx, nil)
	if err != nil {
		return err
	}
	for _, d := range semantic {
		bag.Add(d)
	}
	bag.Sort()
	bag.Dedup()

	ui.PrintDiagnostics(os.Stdout, bag.Items(), opts)
	if !quiet {
		errs, warns := tally(bag.Items())
		fmt.Println(ui.Summary(len(b.SourceFiles()), errs, warns, opts.Color))
	}

	if dumpPath != "" {
		if err := statedump.WriteFile(dumpPath, b.Snapshot()); err != nil {
			return fmt.Errorf("failed to dump state: %w", err)
		}
	}

	if bag.HasErrors() {
		os.Exit(1)
	}
	return nil
}

func tally(diags []diag.Diagnostic) (errs, warns int) {
	for _, d := range diags {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	return errs, warns
}
