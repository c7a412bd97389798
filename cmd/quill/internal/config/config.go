package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/go-quill/quill/pkg/arena"
	qerrors "github.com/go-quill/quill/pkg/errors"
	"github.com/go-quill/quill/pkg/runtime"
)

// Config represents the optional quill.yaml configuration.
type Config struct {
	App     AppConfig     `yaml:"app"`
	Runtime RuntimeConfig `yaml:"runtime"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	Name string `yaml:"name,omitempty"`
}

// RuntimeConfig contains runtime tuning settings.
type RuntimeConfig struct {
	// Allocator selects the allocation strategy: "bump" (default) or "heap".
	Allocator string `yaml:"allocator,omitempty"`
	// SlabSize is the initial bump-slab size hint in bytes.
	SlabSize int `yaml:"slab_size,omitempty"`
	// Heuristics toggles capacity guessing. Defaults to enabled.
	Heuristics *bool `yaml:"heuristics,omitempty"`
	// TableCapacity pre-sizes the slot table in cells.
	TableCapacity int `yaml:"table_capacity,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root       string
	ModulePath string
	AppName    string
	Strategy   arena.Strategy
	SlabSize   int
	Heuristics bool
	TableCap   int
}

// Options converts the resolved configuration into runtime options.
func (r *Resolved) Options() runtime.Options {
	return runtime.Options{
		Name:          r.AppName,
		Strategy:      r.Strategy,
		SlabSize:      r.SlabSize,
		Heuristics:    r.Heuristics,
		TableCapacity: r.TableCap,
	}
}

// LoadOptional reads quill.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, "quill.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, &qerrors.ConfigError{Path: path, Err: err}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &qerrors.ConfigError{Path: path, Err: err}
	}

	return &cfg, nil
}

// Resolve loads quill.yaml (if present) and resolves defaults against the
// host module.
func Resolve(dir string) (*Resolved, error) {
	modulePath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	appName := strings.TrimSpace(cfg.App.Name)
	if appName == "" {
		appName = defaultAppName(modulePath, dir)
	}

	strategy := arena.StrategyBump
	if name := strings.TrimSpace(cfg.Runtime.Allocator); name != "" {
		var ok bool
		strategy, ok = arena.ParseStrategy(name)
		if !ok {
			return nil, &qerrors.ConfigError{
				Path:  filepath.Join(dir, "quill.yaml"),
				Field: "runtime.allocator",
				Err:   fmt.Errorf("unknown strategy %q (want bump or heap)", name),
			}
		}
	}

	if cfg.Runtime.SlabSize < 0 {
		return nil, &qerrors.ConfigError{
			Path:  filepath.Join(dir, "quill.yaml"),
			Field: "runtime.slab_size",
			Err:   fmt.Errorf("must not be negative, got %d", cfg.Runtime.SlabSize),
		}
	}
	if cfg.Runtime.TableCapacity < 0 {
		return nil, &qerrors.ConfigError{
			Path:  filepath.Join(dir, "quill.yaml"),
			Field: "runtime.table_capacity",
			Err:   fmt.Errorf("must not be negative, got %d", cfg.Runtime.TableCapacity),
		}
	}

	heuristics := true
	if cfg.Runtime.Heuristics != nil {
		heuristics = *cfg.Runtime.Heuristics
	}

	return &Resolved{
		Root:       dir,
		ModulePath: modulePath,
		AppName:    appName,
		Strategy:   strategy,
		SlabSize:   cfg.Runtime.SlabSize,
		Heuristics: heuristics,
		TableCap:   cfg.Runtime.TableCapacity,
	}, nil
}

// FindProjectRoot walks up from the current directory to find go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Go module (no go.mod found)")
		}
		dir = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

func defaultAppName(modulePath, dir string) string {
	base := filepath.Base(dir)
	modName, _, ok := module.SplitPathVersion(modulePath)
	if ok {
		parts := strings.Split(modName, "/")
		if len(parts) > 0 {
			base = parts[len(parts)-1]
		}
	}
	if base == "" {
		return "quill_app"
	}
	return base
}
