// Package project locates and loads keel.toml, the manifest configuring
// resolution limits for a project tree.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Limits configure the resolution core.
type Limits struct {
	// MaxDiagnostics bounds each unit's diagnostic bag.
	MaxDiagnostics int `toml:"max-diagnostics"`
	// RecursionDepth bounds generic instantiation chains.
	RecursionDepth int `toml:"recursion-depth"`
	// Jobs caps concurrent unit checks; 0 means one per CPU.
	Jobs int `toml:"jobs"`
}

// Config is the keel.toml schema.
type Config struct {
	Package PackageConfig `toml:"package"`
	Limits  Limits        `toml:"limits"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

// Manifest is a loaded keel.toml with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// DefaultLimits are used when no manifest is found or fields are zero.
func DefaultLimits() Limits {
	return Limits{
		MaxDiagnostics: 100,
		RecursionDepth: 128,
	}
}

// Effective fills zero fields from the defaults.
func (l Limits) Effective() Limits {
	def := DefaultLimits()
	if l.MaxDiagnostics <= 0 {
		l.MaxDiagnostics = def.MaxDiagnostics
	}
	if l.RecursionDepth <= 0 {
		l.RecursionDepth = def.RecursionDepth
	}
	return l
}

// Find walks from startDir toward the filesystem root looking for keel.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "keel.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and parses the nearest manifest. ok is false when none exists,
// which is not an error: defaults apply.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, false, err
	}
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, false, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}
