package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ripple/internal/builder"
	"ripple/internal/project"
	"ripple/internal/source"
	"ripple/internal/ui"
)

// loadManifest resolves the project manifest for a command argument: a found
// ripple.toml wins, otherwise the directory itself with defaults.
func loadManifest(args []string) (*project.Manifest, error) {
	startDir := "."
	if len(args) > 0 {
		startDir = args[0]
	}
	manifestPath, ok, err := project.FindRippleToml(startDir)
	if err != nil {
		return nil, err
	}
	if ok {
		return project.Load(manifestPath)
	}
	return project.Default(startDir)
}

// hostFor derives the builder host from the manifest.
func hostFor(m *project.Manifest) builder.Host {
	return builder.Host{
		CaseSensitivePaths: !m.Config.Build.CaseInsensitive,
		Hash:               source.DigestHash,
	}
}

func resolveColor(cmd *cobra.Command) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(os.Stdout), nil
	}
	return false, fmt.Errorf("unknown color mode %q (auto|on|off)", mode)
}

func printOptions(cmd *cobra.Command) (ui.PrintOptions, bool, error) {
	colorize, err := resolveColor(cmd)
	if err != nil {
		return ui.PrintOptions{}, false, err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return ui.PrintOptions{}, false, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return ui.PrintOptions{}, false, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	return ui.PrintOptions{Color: colorize, Max: maxDiagnostics}, quiet, nil
}
