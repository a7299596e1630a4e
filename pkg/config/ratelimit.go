package config

// RateLimitConfig controls request throttling and cost accounting (§4.5, §6).
type RateLimitConfig struct {
	MaxRequestsPerMinute              int `yaml:"max_requests_per_minute" validate:"required,min=1"`
	MaxRequestsPerHour                int `yaml:"max_requests_per_hour" validate:"required,min=1"`
	MaxConcurrentExecutionsPerProject int `yaml:"max_concurrent_executions_per_project" validate:"required,min=1"`

	MaxDailyCostPerUser     float64 `yaml:"max_daily_cost_per_user" validate:"required,gt=0"`
	MaxDailyCostPerProject  float64 `yaml:"max_daily_cost_per_project" validate:"required,gt=0"`
	MaxMonthlyCostPerUser   float64 `yaml:"max_monthly_cost_per_user" validate:"required,gt=0"`

	CostPerToken            float64 `yaml:"cost_per_token" validate:"gte=0"`
	CostPerIteration        float64 `yaml:"cost_per_iteration" validate:"gte=0"`
	CostPerSandboxExecution float64 `yaml:"cost_per_sandbox_execution" validate:"gte=0"`
	CostPerExecutionSecond  float64 `yaml:"cost_per_execution_second" validate:"gte=0"`
}

// EstimateCost computes the cost of one iteration given token usage and
// sandbox execution time, per the §4.5 cost formula.
func (c *RateLimitConfig) EstimateCost(tokens int, sandboxExecutions int, executionSeconds float64) float64 {
	return float64(tokens)*c.CostPerToken +
		c.CostPerIteration +
		float64(sandboxExecutions)*c.CostPerSandboxExecution +
		executionSeconds*c.CostPerExecutionSecond
}

// DefaultRateLimitConfig returns the built-in rate limit defaults.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MaxRequestsPerMinute:              10,
		MaxRequestsPerHour:                100,
		MaxConcurrentExecutionsPerProject: 3,
		MaxDailyCostPerUser:               25.0,
		MaxDailyCostPerProject:            50.0,
		MaxMonthlyCostPerUser:             900.0,
		CostPerToken:                      0.000002,
		CostPerIteration:                  0.001,
		CostPerSandboxExecution:           0.01,
		CostPerExecutionSecond:            0.002,
	}
}
