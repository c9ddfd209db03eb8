package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ripple/internal/builder"
	"ripple/internal/compile"
	"ripple/internal/diag"
	"ripple/internal/frontend"
	"ripple/internal/ui"
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Compile a project into its output directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().Bool("decl-only", false, "emit only the public declaration heads")
	buildCmd.Flags().String("out", "", "override the output directory")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts, quiet, err := printOptions(cmd)
	if err != nil {
		return err
	}
	declOnly, err := cmd.Flags().GetBool("decl-only")
	if err != nil {
		return fmt.Errorf("failed to get decl-only flag: %w", err)
	}
	outOverride, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}

	manifest, err := loadManifest(args)
	if err != nil {
		return err
	}
	prog, err := frontend.NewScanner().Load(ctx, manifest)
	if err != nil {
		return err
	}

	outDir := manifest.OutDir()
	if outOverride != "" {
		outDir = outOverride
	}
	var write compile.WriteFile = func(name string, data []byte) error {
		full := filepath.Join(outDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
		if err := os.WriteFile(full, data, 0o600); err != nil {
			return fmt.Errorf("failed to write build output %q: %w", full, err)
		}
		return nil
	}

	b := builder.NewEmitBuilder(prog, hostFor(manifest), nil)

	res, err := b.Emit(ctx, nil, write, declOnly, nil)
	if err != nil {
		return err
	}
	semantic, err := b.SemanticDiagnostics(ctx, nil)
	if err != nil {
		return err
	}

	bag := diag.NewBag(4096)
	for _, d := range res.Diagnostics {
		bag.Add(d)
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
		fmt.Printf("emitted %d files to %s\n", len(res.EmittedFiles), outDir)
		if res.EmitSkipped {
			fmt.Println("some outputs were skipped because their sources have errors")
		}
	}

	if bag.HasErrors() {
		os.Exit(1)
	}
	return nil
}
