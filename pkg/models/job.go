package models

import (
	"context"
	"time"
)

// PipelineJob is the queue-owned record of one enqueued pipeline run (§3).
// The JobQueue exclusively owns jobs by id; other components never hold a
// reference to a PipelineJob directly.
type PipelineJob struct {
	ID             string
	Request        PipelineRequest
	Status         JobStatus
	StatusMessage  string
	QueuePosition  int
	CreatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
	WebhookURL     string

	// Cancel is the per-job cancellation handle registered by the worker
	// that claims this job. Nil until the job starts running.
	Cancel context.CancelFunc
}

// IsTerminal reports whether the job has reached a terminal status.
func (j *PipelineJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}
