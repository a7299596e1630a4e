package config

import (
	"fmt"

	"github.com/loopforge/engine/pkg/models"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation, section by section.
func (v *Validator) ValidateAll() error {
	if err := v.validateSandbox(); err != nil {
		return fmt.Errorf("sandbox validation failed: %w", err)
	}
	if err := v.validateRateLimit(); err != nil {
		return fmt.Errorf("rate_limit validation failed: %w", err)
	}
	if err := v.validateVerification(); err != nil {
		return fmt.Errorf("verification validation failed: %w", err)
	}
	if err := v.validatePipeline(); err != nil {
		return fmt.Errorf("pipeline validation failed: %w", err)
	}
	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateSandbox() error {
	s := v.cfg.Sandbox
	if s == nil {
		return NewValidationError("sandbox", "", ErrMissingRequiredField)
	}
	if err := models.Validate(s); err != nil {
		return NewValidationError("sandbox", "", err)
	}
	if len(s.Images) == 0 {
		return NewValidationError("sandbox", "images", ErrMissingRequiredField)
	}
	for lang := range s.Images {
		if !lang.IsValid() {
			return NewValidationError("sandbox", "images", fmt.Errorf("%w: unknown language %q", ErrInvalidValue, lang))
		}
	}
	return nil
}

func (v *Validator) validateRateLimit() error {
	r := v.cfg.RateLimit
	if r == nil {
		return NewValidationError("rate_limit", "", ErrMissingRequiredField)
	}
	if err := models.Validate(r); err != nil {
		return NewValidationError("rate_limit", "", err)
	}
	if r.MaxRequestsPerHour < r.MaxRequestsPerMinute {
		return NewValidationError("rate_limit", "max_requests_per_hour",
			fmt.Errorf("%w: must be >= max_requests_per_minute", ErrInvalidValue))
	}
	if r.MaxDailyCostPerUser*30 > r.MaxMonthlyCostPerUser {
		return NewValidationError("rate_limit", "max_monthly_cost_per_user",
			fmt.Errorf("%w: smaller than 30x max_daily_cost_per_user", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateVerification() error {
	vc := v.cfg.Verification
	if vc == nil {
		return NewValidationError("verification", "", ErrMissingRequiredField)
	}
	return models.Validate(vc)
}

func (v *Validator) validatePipeline() error {
	p := v.cfg.Pipeline
	if p == nil {
		return NewValidationError("pipeline", "", ErrMissingRequiredField)
	}
	if err := models.Validate(p); err != nil {
		return NewValidationError("pipeline", "", err)
	}
	if p.MaxTotalIterations > models.MaxTotalIterations {
		return NewValidationError("pipeline", "max_total_iterations",
			fmt.Errorf("%w: exceeds hard bound of %d", ErrInvalidValue, models.MaxTotalIterations))
	}
	if p.MaxSelfCorrectionAttempts > models.MaxSelfCorrectionAttempts {
		return NewValidationError("pipeline", "max_self_correction_attempts",
			fmt.Errorf("%w: exceeds hard bound of %d", ErrInvalidValue, models.MaxSelfCorrectionAttempts))
	}
	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q == nil {
		return NewValidationError("queue", "", ErrMissingRequiredField)
	}
	if err := models.Validate(q); err != nil {
		return NewValidationError("queue", "", err)
	}
	if q.WorkerCount > q.Capacity {
		return NewValidationError("queue", "worker_count",
			fmt.Errorf("%w: worker_count must not exceed capacity", ErrInvalidValue))
	}
	if q.GracefulShutdownTimeout <= 0 {
		return NewValidationError("queue", "graceful_shutdown_timeout", ErrInvalidValue)
	}
	if q.WebhookTimeout <= 0 {
		return NewValidationError("queue", "webhook_timeout", ErrInvalidValue)
	}
	return nil
}
