/*
PURPOSE:
  Defines the configuration structure and loading logic for seqdash.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Allow configuration of the service base URL, timeouts and retry policy.
  - Allow per-model endpoint paths and validation policy.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Needs to support environment variable overrides (SEQUENCE_LIBRARIES_URL, SEQDASH_...).
  - A missing base URL is not a load error; it surfaces once when a client is built.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine, internal/batch, internal/dashboard
  - Dependencies: gopkg.in/yaml.v3 (standard for Go config)

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Missing default files fall back to defaults silently.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults should be sensible (10s connect, 120s read, 3 attempts, 1s backoff).

USAGE:
  cfg, err := config.Load("seqdash.yaml")

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct and update DefaultConfig().

RELATED FILES:
  - internal/cli/root.go
  - internal/config/env.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/daryltucker/seqdash/internal/model"
)

// StandardAminoAcids is the 20-letter alphabet accepted by residue policies.
const StandardAminoAcids = "ACDEFGHIKLMNPQRSTVWY"

// ModelConfig holds the per-model endpoint and input policy.
type ModelConfig struct {
	// Path is appended to BaseURL.
	Path string `yaml:"path"`
	// MinLength rejects shorter sequences before dispatch. 0 disables the check.
	MinLength int `yaml:"min_length"`
	// Alphabet lists the allowed residues. Empty disables the check.
	Alphabet string `yaml:"alphabet"`
}

// Config represents the full configuration for seqdash.
type Config struct {
	BaseURL          string        `yaml:"base_url"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	MaxAttempts      int           `yaml:"max_attempts"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
	RetryStatuses    []int         `yaml:"retry_statuses"`
	BodyPreviewBytes int           `yaml:"body_preview_bytes"`
	// Concurrency bounds in-flight requests per batch. 1 keeps calls strictly sequential.
	Concurrency int    `yaml:"concurrency"`
	OutputDir   string `yaml:"output_dir"`
	Listen      string `yaml:"listen"`

	Models map[model.Kind]ModelConfig `yaml:"-"`

	// RawModels holds the `models:` block as written; Load merges it onto the defaults.
	RawModels map[model.Kind]yaml.Node `yaml:"models"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout:   10 * time.Second,
		ReadTimeout:      120 * time.Second,
		MaxAttempts:      3,
		RetryBackoff:     1 * time.Second,
		RetryStatuses:    []int{429, 502, 503, 504},
		BodyPreviewBytes: 512,
		Concurrency:      1,
		OutputDir:        ".",
		Listen:           ":8501",
		Models: map[model.Kind]ModelConfig{
			model.Nativeness: {Path: "abnativ", MinLength: 95, Alphabet: StandardAminoAcids},
			model.Structure:  {Path: "nbforge"},
			model.CDR3:       {Path: "nbframe"},
			model.Stability:  {Path: "nanomelt"},
			model.Kink:       {Path: "nanokink"},
		},
	}
}

// Load reads configuration from a file, then applies environment overrides.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file found, returns default config (plus env overrides).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		for _, name := range []string{"seqdash.yaml", "seqdash.yml", ".seqdash.yaml"} {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				break
			}
		}
	}

	if path != "" {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if err := cfg.mergeModels(); err != nil {
			return nil, fmt.Errorf("failed to parse models in %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeModels decodes each configured model onto its defaults so a partial
// entry (e.g. only min_length) keeps the default path and alphabet.
func (c *Config) mergeModels() error {
	for k, node := range c.RawModels {
		mc := c.Model(k)
		if err := node.Decode(&mc); err != nil {
			return fmt.Errorf("model %s: %w", k, err)
		}
		if mc.Path == "" {
			mc.Path = string(k)
		}
		c.Models[k] = mc
	}
	return nil
}

// Validate checks the numeric knobs. BaseURL is checked by engine.New.
func (c *Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry_backoff must not be negative, got %s", c.RetryBackoff)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.ConnectTimeout <= 0 || c.ReadTimeout <= 0 {
		return fmt.Errorf("connect_timeout and read_timeout must be positive")
	}
	return nil
}

// Model returns the settings for k, falling back to defaults.
func (c *Config) Model(k model.Kind) ModelConfig {
	if mc, ok := c.Models[k]; ok {
		return mc
	}
	return DefaultConfig().Models[k]
}

// Endpoint returns the endpoint path for k without a leading slash.
func (c *Config) Endpoint(k model.Kind) string {
	return strings.TrimLeft(c.Model(k).Path, "/")
}
