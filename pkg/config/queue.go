package config

import "time"

// QueueConfig controls the in-memory job queue and its worker pool (§4.7, §6).
type QueueConfig struct {
	// Capacity is the bounded channel size; Enqueue blocks once the queue
	// is full until a worker frees a slot or the caller's context is
	// cancelled.
	Capacity int `yaml:"capacity" validate:"required,min=1"`

	// WorkerCount is the number of worker goroutines draining the queue.
	WorkerCount int `yaml:"worker_count" validate:"required,min=1"`

	// GracefulShutdownTimeout bounds how long Shutdown waits for in-flight
	// jobs to finish before returning.
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`

	// WebhookTimeout bounds a single webhook delivery attempt.
	WebhookTimeout time.Duration `yaml:"webhook_timeout"`
}

// DefaultQueueConfig returns the built-in queue defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		Capacity:                100,
		WorkerCount:             3,
		GracefulShutdownTimeout: 30 * time.Second,
		WebhookTimeout:          10 * time.Second,
	}
}
