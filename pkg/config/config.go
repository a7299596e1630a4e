// Package config loads and validates the engine's runtime configuration:
// sandbox resource limits, rate limiting and cost accounting, verification
// thresholds, pipeline iteration bounds, and the job queue (§6).
package config

// Config is the umbrella configuration object returned by Initialize and
// threaded through the pipeline, queue, sandbox, and rate limiter.
type Config struct {
	configDir string

	Sandbox      *SandboxConfig
	RateLimit    *RateLimitConfig
	Verification *VerificationConfig
	Pipeline     *PipelineConfig
	Queue        *QueueConfig
}

// ConfigDir returns the directory Config was loaded from.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// ConfigStats summarizes loaded configuration for startup logging.
type ConfigStats struct {
	Languages                 int
	MaxConcurrentExecutions   int
	QueueCapacity             int
	QueueWorkerCount          int
	MaxTotalIterations        int
	MaxSelfCorrectionAttempts int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		Languages:                 len(c.Sandbox.Images),
		MaxConcurrentExecutions:   c.Sandbox.MaxConcurrentExecutions,
		QueueCapacity:             c.Queue.Capacity,
		QueueWorkerCount:          c.Queue.WorkerCount,
		MaxTotalIterations:        c.Pipeline.MaxTotalIterations,
		MaxSelfCorrectionAttempts: c.Pipeline.MaxSelfCorrectionAttempts,
	}
}

// Defaults returns the built-in Config, with no config directory or file
// overrides applied. Used by tests and as the base merged against YAML.
func Defaults() *Config {
	return &Config{
		Sandbox:      DefaultSandboxConfig(),
		RateLimit:    DefaultRateLimitConfig(),
		Verification: DefaultVerificationConfig(),
		Pipeline:     DefaultPipelineConfig(),
		Queue:        DefaultQueueConfig(),
	}
}
