package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/loopforge/engine/pkg/models"
)

// worker drains job ids off the queue's channel and runs them through the
// Executor, grounded on pkg/queue/worker.go's poll-claim-execute loop
// (here replacing the DB claim with a channel receive).
type worker struct {
	id    int
	queue *Queue
}

func (w *worker) run(ctx context.Context) {
	log := slog.With("worker_id", w.id)
	log.Info("queue worker started")
	for {
		select {
		case <-w.queue.stopCh:
			log.Info("queue worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, queue worker shutting down")
			return
		case id := <-w.queue.ch:
			w.process(ctx, id)
		}
	}
}

func (w *worker) process(ctx context.Context, id string) {
	w.queue.mu.Lock()
	rec, ok := w.queue.jobs[id]
	if !ok {
		w.queue.mu.Unlock()
		return
	}
	if rec.job.Status == models.JobStatusCancelled {
		w.queue.mu.Unlock()
		return
	}

	jobCtx, cancel := context.WithCancel(ctx)
	now := time.Now()
	rec.job.Status = models.JobStatusRunning
	rec.job.StartedAt = &now
	rec.job.Cancel = cancel
	req := rec.job.Request
	w.queue.mu.Unlock()

	defer cancel()

	log := slog.With("job_id", id, "worker_id", w.id, "project_id", req.ProjectID)
	log.Info("job claimed")

	result, err := w.queue.executor.Execute(jobCtx, &req)

	w.queue.mu.Lock()
	completedAt := time.Now()
	rec.job.CompletedAt = &completedAt
	rec.job.Cancel = nil
	rec.result = result

	switch {
	case err != nil:
		rec.job.Status = models.JobStatusFailed
		rec.job.StatusMessage = err.Error()
	case result == nil:
		rec.job.Status = models.JobStatusFailed
		rec.job.StatusMessage = "executor returned no result"
	case result.Status == models.PipelineStatusSuccess:
		rec.job.Status = models.JobStatusCompleted
		rec.job.StatusMessage = ""
	case result.Status == models.PipelineStatusCancelled:
		rec.job.Status = models.JobStatusCancelled
		rec.job.StatusMessage = result.ErrorMessage
	default:
		rec.job.Status = models.JobStatusFailed
		rec.job.StatusMessage = result.ErrorMessage
	}
	webhookURL := rec.job.WebhookURL
	w.queue.mu.Unlock()

	log.Info("job finished", "status", rec.job.Status)

	if webhookURL != "" && result != nil {
		deliverWebhook(ctx, w.queue.webhookClient, webhookURL, id, result)
	}
}
