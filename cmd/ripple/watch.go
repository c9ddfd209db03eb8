package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ripple/internal/builder"
	"ripple/internal/diag"
	"ripple/internal/frontend"
	"ripple/internal/project"
	"ripple/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-check the project whenever sources change",
	Long:  `Watch polls the source tree and re-runs the incremental checker, carrying the builder state from round to round so unchanged files are never re-analyzed`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Duration("interval", 2*time.Second, "poll interval")
	watchCmd.Flags().Bool("ui", false, "render progress with the interactive UI")
}

func runWatch(cmd *cobra.Command, args []string) error {
	interval, err := cmd.Flags().GetDuration("interval")
	if err != nil {
		return fmt.Errorf("failed to get interval flag: %w", err)
	}
	useUI, err := cmd.Flags().GetBool("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	opts, quiet, err := printOptions(cmd)
	if err != nil {
		return err
	}

	manifest, err := loadManifest(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if useUI {
		return watchWithUI(ctx, manifest, interval)
	}
	return watchPlain(ctx, manifest, interval, opts, quiet)
}

// watchRound runs one rebuild round: scan, rebuild the program, transfer the
// old builder state, drain the affected iterator. report is called once per
// re-analyzed file.
func watchRound(ctx context.Context, scanner *frontend.Scanner, manifest *project.Manifest, prev *builder.DiagnosticsBuilder, report func(file string, errs int)) (*builder.DiagnosticsBuilder, error) {
	prog, err := scanner.Load(ctx, manifest)
	if err != nil {
		return prev, err
	}
	b := builder.NewDiagnosticsBuilder(prog, hostFor(manifest), prev)
	for {
		ad, err := b.NextAffectedDiagnostics(ctx, nil)
		if err != nil {
			return b, err
		}
		if ad == nil {
			return b, nil
		}
		name := "<program>"
		if ad.Affected.File != nil {
			name = ad.Affected.File.Name
		}
		errs := 0
		for _, d := range ad.Diagnostics {
			if d.Severity >= diag.SevError {
				errs++
			}
		}
		report(name, errs)
	}
}

func watchPlain(ctx context.Context, manifest *project.Manifest, interval time.Duration, opts ui.PrintOptions, quiet bool) error {
	scanner := frontend.NewScanner()
	var prev *builder.DiagnosticsBuilder

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	round := 0
	for {
		round++
		rebuilt := 0
		totalErrs := 0
		b, err := watchRound(ctx, scanner, manifest, prev, func(file string, errs int) {
			rebuilt++
			totalErrs += errs
			if errs > 0 && !quiet {
				fmt.Printf("  %s: %d errors\n", file, errs)
			}
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		prev = b
		if rebuilt > 0 {
			bag, err := b.SemanticDiagnostics(ctx, nil)
			if err != nil {
				return err
			}
			ui.PrintDiagnostics(os.Stdout, bag, opts)
			if !quiet {
				errs, warns := tally(bag)
				fmt.Printf("round %d: rebuilt %d files; %s\n",
					round, rebuilt, ui.Summary(len(b.SourceFiles()), errs, warns, opts.Color))
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func watchWithUI(ctx context.Context, manifest *project.Manifest, interval time.Duration) error {
	scanner := frontend.NewScanner()

	// первый скан — чтобы заполнить список файлов в модели
	prog, err := scanner.Load(ctx, manifest)
	if err != nil {
		return err
	}
	files := make([]string, 0, len(prog.SourceFiles()))
	for _, f := range prog.SourceFiles() {
		files = append(files, f.Name)
	}

	events := make(chan ui.RoundEvent, 64)
	model := ui.NewWatchModel("ripple watch", files, events)
	program := tea.NewProgram(model, tea.WithContext(ctx))

	go func() {
		defer close(events)
		var prev *builder.DiagnosticsBuilder
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		round := 0
		for {
			round++
			b, err := watchRound(ctx, scanner, manifest, prev, func(file string, errs int) {
				status := ui.StatusDone
				if errs > 0 {
					status = ui.StatusErrors
				}
				events <- ui.RoundEvent{File: file, Status: status, Errors: errs, Round: round}
			})
			if err != nil {
				return
			}
			prev = b
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
