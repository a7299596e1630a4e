package config

import "github.com/loopforge/engine/pkg/models"

// SandboxConfig controls container execution resource limits and per-language
// images (§4.1, §6).
type SandboxConfig struct {
	WorkspacePath           string `yaml:"workspace_path" validate:"required"`
	MaxConcurrentExecutions int    `yaml:"max_concurrent_executions" validate:"required,min=1"`
	MemoryLimitMB           int    `yaml:"memory_limit_mb" validate:"required,min=1"`
	CPULimit                float64 `yaml:"cpu_limit" validate:"required,gt=0"`
	PIDsLimit               int64  `yaml:"pids_limit" validate:"required,min=1"`
	DefaultTimeoutSeconds   int    `yaml:"default_timeout_seconds" validate:"required,min=1"`

	// Images maps a language to the container image used to run it.
	Images map[models.Language]string `yaml:"images"`
}

// ImageFor returns the configured image for lang, or ok=false if unset.
func (c *SandboxConfig) ImageFor(lang models.Language) (string, bool) {
	img, ok := c.Images[lang]
	return img, ok
}

// DefaultSandboxConfig returns the built-in sandbox defaults.
func DefaultSandboxConfig() *SandboxConfig {
	return &SandboxConfig{
		WorkspacePath:           "/var/lib/engine/workspaces",
		MaxConcurrentExecutions: 10,
		MemoryLimitMB:           512,
		CPULimit:                1.0,
		PIDsLimit:               128,
		DefaultTimeoutSeconds:   30,
		Images: map[models.Language]string{
			models.LanguagePython:     "python:3.12-slim",
			models.LanguageJavaScript: "node:20-slim",
			models.LanguageTypeScript: "node:20-slim",
			models.LanguageNode:       "node:20-slim",
			models.LanguageCSharp:     "mcr.microsoft.com/dotnet/sdk:8.0",
			models.LanguageDotnet:     "mcr.microsoft.com/dotnet/sdk:8.0",
			models.LanguageJava:       "eclipse-temurin:21-jdk",
			models.LanguageGo:         "golang:1.25-bookworm",
			models.LanguageGolang:     "golang:1.25-bookworm",
			models.LanguageRust:       "rust:1.82-slim",
			models.LanguageRuby:       "ruby:3.3-slim",
			models.LanguagePHP:        "php:8.3-cli",
		},
	}
}
