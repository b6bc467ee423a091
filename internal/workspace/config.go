package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the optional `.knot/config.yaml` workspace settings file.
// Grounded on internal/ext/config.go's funxy.yaml loader (yaml.Unmarshal
// into a flat struct, then validate/setDefaults), generalized here from "Go
// dependency binding specs" to "workspace-level settings" since Knot has no
// Go-binding-generation step of its own.
type Config struct {
	// CodebasePath overrides the default sqlite-backed store location
	// (same default/override precedence as the CODEBASE_PATH env var).
	CodebasePath string `yaml:"codebase_path,omitempty"`

	// DefaultNamespace names a namespace for unqualified top-level bindings
	// (spec.md §4.4's namespace tree). It is parsed only; the CLI does not
	// load the config file or apply the prefix.
	DefaultNamespace string `yaml:"default_namespace,omitempty"`

	// HostBindings lists Go package import paths backing declared effect
	// handlers, in the form codebase.LintHostBindings accepts. Nothing in the
	// CLI runs that check.
	HostBindings []string `yaml:"host_bindings,omitempty"`
}

// LoadConfig reads and parses a `.knot/config.yaml` file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// FindConfig searches for .knot/config.yaml starting at dir and walking up
// through parent directories, the same upward-search shape as
// internal/ext/config.go's FindConfig (there hunting for funxy.yaml).
// Returns "" with a nil error when no config file exists anywhere above dir.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ".knot", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
