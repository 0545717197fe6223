// Package config holds the environment configuration of the partitioning engine.
//
// Values come from three places, in increasing precedence: Default(), a YAML or
// JSON file (Load), and an RLlib-style env_config map (FromMap / Merge).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/aretw0/partree/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultLeafThreshold mirrors the environment variant, where leaves may hold
	// up to 16 rules before a linear scan is considered too slow.
	DefaultLeafThreshold = 16

	// DefaultMaxActionsPerEpisode bounds the number of cuts of one build.
	DefaultMaxActionsPerEpisode = 1000

	// DefaultMaxCutsPerDimension is M: magnitudes range over [0, M).
	DefaultMaxCutsPerDimension = 5
)

// Config is the per-environment configuration.
type Config struct {
	LeafThreshold        int  `yaml:"leaf_threshold" json:"leaf_threshold" mapstructure:"leaf_threshold" validate:"gte=1"`
	MaxActionsPerEpisode int  `yaml:"max_actions_per_episode" json:"max_actions_per_episode" mapstructure:"max_actions_per_episode" validate:"gte=1"`
	MaxCutsPerDimension  int  `yaml:"max_cuts_per_dimension" json:"max_cuts_per_dimension" mapstructure:"max_cuts_per_dimension" validate:"gte=1,lte=32"`
	OneHot               bool `yaml:"one_hot" json:"one_hot" mapstructure:"one_hot"`
	Workers              int  `yaml:"workers" json:"workers" mapstructure:"workers" validate:"gte=0"`
}

var validate = validator.New()

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		LeafThreshold:        DefaultLeafThreshold,
		MaxActionsPerEpisode: DefaultMaxActionsPerEpisode,
		MaxCutsPerDimension:  DefaultMaxCutsPerDimension,
		Workers:              runtime.GOMAXPROCS(0),
	}
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return nil
}

// Load reads a configuration file (YAML or JSON) on top of Default().
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	return cfg, cfg.Validate()
}

// FromMap decodes an env_config map on top of Default().
func FromMap(values map[string]any) (Config, error) {
	return Default().Merge(values)
}

// Merge returns a copy of c with the keys present in values overridden.
// Numbers may arrive as float64 or json.Number when the map was decoded from JSON.
func (c Config) Merge(values map[string]any) (Config, error) {
	out := c
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return c, err
	}
	if err := dec.Decode(values); err != nil {
		return c, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return out, out.Validate()
}
