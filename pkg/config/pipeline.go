package config

import "github.com/loopforge/engine/pkg/models"

// PipelineConfig bounds the agentic iteration loop (§4.6, §6).
type PipelineConfig struct {
	MaxTotalIterations        int `yaml:"max_total_iterations" validate:"required,min=1"`
	MaxSelfCorrectionAttempts int `yaml:"max_self_correction_attempts" validate:"required,min=1"`
}

// DefaultPipelineConfig returns the built-in pipeline defaults, matching the
// fixed bounds in models.MaxTotalIterations / models.MaxSelfCorrectionAttempts.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		MaxTotalIterations:        models.MaxTotalIterations,
		MaxSelfCorrectionAttempts: models.MaxSelfCorrectionAttempts,
	}
}
