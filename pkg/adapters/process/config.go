package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the CLI looks for policy commands when no path is given.
const DefaultConfigPath = "policies.yaml"

// ProcessConfig describes one external policy command.
type ProcessConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile is the layout of policies.yaml.
type ConfigFile struct {
	Policies []ProcessConfig `yaml:"policies" json:"policies"`
}

// LoadPolicies reads a YAML or JSON file and returns its commands by name.
// A missing file yields an empty registry.
func LoadPolicies(path string) (map[string]ProcessConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]ProcessConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read policy config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	out := make(map[string]ProcessConfig, len(cfg.Policies))
	for _, p := range cfg.Policies {
		if p.Name == "" {
			continue
		}
		if p.Command == "" {
			return nil, fmt.Errorf("policy %q has no command", p.Name)
		}
		out[p.Name] = p
	}
	return out, nil
}
