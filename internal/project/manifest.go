// Package project locates and parses the ripple.toml manifest.
package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a loaded ripple.toml plus its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the manifest sections.
type Config struct {
	Package PackageConfig `toml:"package"`
	Source  SourceConfig  `toml:"source"`
	Build   BuildConfig   `toml:"build"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

type SourceConfig struct {
	Root    string   `toml:"root"`
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type BuildConfig struct {
	// Bundle collapses emit into a single output and disables per-file
	// diagnostic caching.
	Bundle bool `toml:"bundle"`
	// CaseInsensitive treats paths that differ only in case as the same file.
	CaseInsensitive bool   `toml:"case_insensitive"`
	OutDir          string `toml:"out_dir"`
}

// Load parses a manifest file and applies defaults.
func Load(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, fmt.Errorf("%s: missing [package].name", path)
	}
	applyDefaults(&cfg)
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	return &Manifest{
		Path:   abs,
		Root:   filepath.Dir(abs),
		Config: cfg,
	}, nil
}

// Default builds an in-memory manifest for a directory without a ripple.toml.
func Default(root string) (*Manifest, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	cfg := Config{Package: PackageConfig{Name: filepath.Base(abs)}}
	applyDefaults(&cfg)
	cfg.Source.Root = "."
	return &Manifest{Root: abs, Config: cfg}, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Source.Root == "" {
		cfg.Source.Root = "src"
	}
	if len(cfg.Source.Include) == 0 {
		cfg.Source.Include = []string{"**/*.mini"}
	}
	if cfg.Build.OutDir == "" {
		cfg.Build.OutDir = "target"
	}
}

// SourceRoot returns the absolute directory sources are scanned from.
func (m *Manifest) SourceRoot() string {
	return filepath.Join(m.Root, filepath.FromSlash(m.Config.Source.Root))
}

// OutDir returns the absolute directory outputs are written to.
func (m *Manifest) OutDir() string {
	return filepath.Join(m.Root, filepath.FromSlash(m.Config.Build.OutDir))
}
