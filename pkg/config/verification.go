package config

// VerificationConfig controls the VerificationGate's pass/fail thresholds
// (§4.4, §6).
type VerificationConfig struct {
	MinQualityScore  int  `yaml:"min_quality_score" validate:"min=0,max=100"`
	MinTestPassRate  float64 `yaml:"min_test_pass_rate" validate:"min=0,max=1"`
	RequireTests     bool `yaml:"require_tests"`
	MaxBuildWarnings int  `yaml:"max_build_warnings" validate:"gte=0"`
}

// DefaultVerificationConfig returns the built-in verification defaults.
func DefaultVerificationConfig() *VerificationConfig {
	return &VerificationConfig{
		MinQualityScore:  70,
		MinTestPassRate:  0.8,
		RequireTests:     true,
		MaxBuildWarnings: 5,
	}
}
