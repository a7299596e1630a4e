package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the on-disk engine.yaml layout. Every section is a
// pointer so the loader can tell "absent" apart from "zero value" and merge
// only what the user actually set on top of the built-in defaults.
type fileConfig struct {
	Sandbox      *SandboxConfig      `yaml:"sandbox"`
	RateLimit    *RateLimitConfig    `yaml:"rate_limit"`
	Verification *VerificationConfig `yaml:"verification"`
	Pipeline     *PipelineConfig     `yaml:"pipeline"`
	Queue        *QueueConfig        `yaml:"queue"`
}

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load .env (if present) into the process environment
//  2. Read engine.yaml from configDir, expanding ${VAR} references
//  3. Merge the user file on top of the built-in defaults
//  4. Validate the merged configuration
func Initialize(configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	if err := loadDotEnv(configDir); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized",
		"languages", stats.Languages,
		"queue_capacity", stats.QueueCapacity,
		"queue_workers", stats.QueueWorkerCount)

	return cfg, nil
}

func loadDotEnv(configDir string) error {
	path := filepath.Join(configDir, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

func load(configDir string) (*Config, error) {
	cfg := Defaults()
	cfg.configDir = configDir

	path := filepath.Join(configDir, "engine.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// No user file: the built-in defaults are the complete config.
		return cfg, nil
	}
	if err != nil {
		return nil, NewLoadError(path, err)
	}

	data = ExpandEnv(data)

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	if err := mergeSection(&cfg.Sandbox, fc.Sandbox); err != nil {
		return nil, NewLoadError(path, err)
	}
	if err := mergeSection(&cfg.RateLimit, fc.RateLimit); err != nil {
		return nil, NewLoadError(path, err)
	}
	if err := mergeSection(&cfg.Verification, fc.Verification); err != nil {
		return nil, NewLoadError(path, err)
	}
	if err := mergeSection(&cfg.Pipeline, fc.Pipeline); err != nil {
		return nil, NewLoadError(path, err)
	}
	if err := mergeSection(&cfg.Queue, fc.Queue); err != nil {
		return nil, NewLoadError(path, err)
	}

	return cfg, nil
}

// mergeSection merges a non-nil user-provided section onto the built-in
// default in place, with user-set (non-zero) fields taking precedence.
func mergeSection[T any](dst **T, src *T) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(*dst, src, mergo.WithOverride)
}

func validate(cfg *Config) error {
	v := NewValidator(cfg)
	return v.ValidateAll()
}
