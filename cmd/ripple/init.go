package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a ripple.toml and a sample source tree",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

const sampleMain = `import "lib/greeting"

let answer = 42
pub main = greeting + " " + answer
`

const sampleGreeting = `pub greeting = "hello"
`

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve target directory: %w", err)
	}

	manifestPath := filepath.Join(abs, "ripple.toml")
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("%s already exists", manifestPath)
	}

	manifest := fmt.Sprintf(`[package]
name = %q

[source]
root = "src"
include = ["**/*.mini"]

[build]
out_dir = "target"
`, filepath.Base(abs))

	if err := os.MkdirAll(filepath.Join(abs, "src", "lib"), 0o750); err != nil {
		return fmt.Errorf("failed to create source tree: %w", err)
	}
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(abs, "src", "main.mini"), []byte(sampleMain), 0o600); err != nil {
		return fmt.Errorf("failed to write sample source: %w", err)
	}
	if err := os.WriteFile(filepath.Join(abs, "src", "lib", "greeting.mini"), []byte(sampleGreeting), 0o600); err != nil {
		return fmt.Errorf("failed to write sample source: %w", err)
	}

	fmt.Printf("initialized project in %s\n", abs)
	return nil
}
