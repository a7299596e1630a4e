package queue

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loopforge/engine/pkg/config"
	"github.com/loopforge/engine/pkg/models"
)

// retentionSweepInterval is how often the retention sweep runs.
const retentionSweepInterval = time.Hour

// jobRetention is how long a terminal job's record is kept after
// completion before the retention sweep deletes it (§4.7).
const jobRetention = 24 * time.Hour

// Queue is the JobQueue: a bounded channel of job ids backed by a map of
// job records, drained by a fixed worker pool. Grounded on
// pkg/queue/pool.go's WorkerPool, restructured from a Postgres
// SELECT...FOR UPDATE SKIP LOCKED claim loop into an in-memory channel.
type Queue struct {
	cfg      *config.QueueConfig
	executor Executor

	mu   sync.RWMutex
	jobs map[string]*jobRecord

	ch       chan string
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool

	webhookClient *http.Client
}

// New builds a Queue. executor is invoked once per dequeued job.
func New(cfg *config.QueueConfig, executor Executor) *Queue {
	return &Queue{
		cfg:           cfg,
		executor:      executor,
		jobs:          make(map[string]*jobRecord),
		ch:            make(chan string, cfg.Capacity),
		stopCh:        make(chan struct{}),
		webhookClient: &http.Client{Timeout: cfg.WebhookTimeout},
	}
}

// Start spawns the worker pool and the retention sweep. Safe to call once;
// subsequent calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	slog.Info("starting job queue", "worker_count", q.cfg.WorkerCount, "capacity", q.cfg.Capacity)

	for i := 0; i < q.cfg.WorkerCount; i++ {
		w := &worker{id: i, queue: q}
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			w.run(ctx)
		}()
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.runRetentionSweep()
	}()
}

// Shutdown signals the pool to stop and waits up to
// QueueConfig.GracefulShutdownTimeout for in-flight jobs to drain.
func (q *Queue) Shutdown() {
	q.stopOnce.Do(func() { close(q.stopCh) })

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("job queue stopped gracefully")
	case <-time.After(q.cfg.GracefulShutdownTimeout):
		slog.Warn("job queue shutdown timed out waiting for workers")
	}
}

// Enqueue admits a new job. If the bounded channel is at capacity, Enqueue
// blocks until a worker frees a slot, the queue is shut down, or ctx is
// cancelled (§4.7, §8: "Queue at exactly capacity → one further Enqueue
// blocks").
func (q *Queue) Enqueue(ctx context.Context, req *models.PipelineRequest, webhookURL string) (*models.PipelineJob, error) {
	job := &models.PipelineJob{
		ID:         uuid.NewString(),
		Request:    *req,
		Status:     models.JobStatusQueued,
		CreatedAt:  time.Now(),
		WebhookURL: webhookURL,
	}

	q.mu.Lock()
	job.QueuePosition = len(q.ch) + 1
	q.jobs[job.ID] = &jobRecord{job: job}
	q.mu.Unlock()

	select {
	case q.ch <- job.ID:
		return job, nil
	case <-q.stopCh:
		q.mu.Lock()
		delete(q.jobs, job.ID)
		q.mu.Unlock()
		return nil, ErrEnqueueCancelled
	case <-ctx.Done():
		q.mu.Lock()
		delete(q.jobs, job.ID)
		q.mu.Unlock()
		return nil, ErrEnqueueCancelled
	}
}

// GetJob returns a snapshot of the job record, or ErrJobNotFound.
func (q *Queue) GetJob(id string) (*models.PipelineJob, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	rec, ok := q.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	j := *rec.job
	return &j, nil
}

// GetStatus returns the job's current status and status message.
func (q *Queue) GetStatus(id string) (models.JobStatus, string, error) {
	job, err := q.GetJob(id)
	if err != nil {
		return "", "", err
	}
	return job.Status, job.StatusMessage, nil
}

// GetResult returns the completed job's PipelineResult. Returns
// ErrJobNotFound for an unknown id and (nil, nil) for a job that has not
// reached a terminal status yet.
func (q *Queue) GetResult(id string) (*models.PipelineResult, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	rec, ok := q.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return rec.result, nil
}

// ListUserJobs returns up to limit of userID's known jobs, sorted by
// created_at descending (§4.7). A non-positive limit returns no jobs.
func (q *Queue) ListUserJobs(userID string, limit int) []*models.PipelineJob {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]*models.PipelineJob, 0)
	for _, rec := range q.jobs {
		if rec.job.Request.UserID != userID {
			continue
		}
		j := *rec.job
		out = append(out, &j)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Cancel requests cancellation of a job. A queued job (not yet claimed by a
// worker) is marked cancelled directly; a running job has its context
// cancelled, and the worker finalizes it once Execute returns. Returns
// ErrJobNotFound for an unknown id.
func (q *Queue) Cancel(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	rec, ok := q.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if rec.job.IsTerminal() {
		return nil
	}
	if rec.job.Cancel != nil {
		rec.job.Cancel()
		return nil
	}
	rec.job.Status = models.JobStatusCancelled
	rec.job.StatusMessage = "cancelled before a worker claimed it"
	now := time.Now()
	rec.job.CompletedAt = &now
	return nil
}

func (q *Queue) runRetentionSweep() {
	ticker := time.NewTicker(retentionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.sweepExpiredJobs()
		}
	}
}

func (q *Queue) sweepExpiredJobs() {
	cutoff := time.Now().Add(-jobRetention)
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, rec := range q.jobs {
		if rec.job.CompletedAt != nil && rec.job.CompletedAt.Before(cutoff) {
			delete(q.jobs, id)
		}
	}
}
