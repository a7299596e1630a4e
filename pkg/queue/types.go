package queue

import (
	"context"
	"errors"

	"github.com/loopforge/engine/pkg/models"
)

// ErrEnqueueCancelled is returned by Enqueue when the caller's context is
// cancelled while waiting for room in a full queue (§4.7, §8: "Queue at
// exactly capacity → one further Enqueue blocks").
var ErrEnqueueCancelled = errors.New("enqueue cancelled while waiting for queue capacity")

// ErrJobNotFound is returned by job lookups for an unknown id.
var ErrJobNotFound = errors.New("job not found")

// Executor runs one pipeline request to completion. *pipeline.Pipeline
// satisfies this.
type Executor interface {
	Execute(ctx context.Context, req *models.PipelineRequest) (*models.PipelineResult, error)
}

// jobRecord is the queue's internal bookkeeping for one job: the
// caller-visible PipelineJob plus the result once it lands.
type jobRecord struct {
	job    *models.PipelineJob
	result *models.PipelineResult
}
