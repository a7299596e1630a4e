package queue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopforge/engine/pkg/config"
	"github.com/loopforge/engine/pkg/models"
)

type fakeExecutor struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func(ctx context.Context, req *models.PipelineRequest) (*models.PipelineResult, error)
}

func (f *fakeExecutor) Execute(ctx context.Context, req *models.PipelineRequest) (*models.PipelineResult, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return &models.PipelineResult{ProjectID: req.ProjectID, Status: models.PipelineStatusCancelled, ErrorMessage: ctx.Err().Error()}, nil
		}
	}
	if f.fn != nil {
		return f.fn(ctx, req)
	}
	return &models.PipelineResult{ProjectID: req.ProjectID, Status: models.PipelineStatusSuccess}, nil
}

func testQueueConfig() *config.QueueConfig {
	cfg := config.DefaultQueueConfig()
	cfg.Capacity = 4
	cfg.WorkerCount = 2
	cfg.GracefulShutdownTimeout = 2 * time.Second
	cfg.WebhookTimeout = 2 * time.Second
	return cfg
}

func testReq() *models.PipelineRequest {
	return &models.PipelineRequest{
		ProjectID:     "proj-1",
		UserID:        "user-1",
		Language:      models.LanguagePython,
		Prompt:        "write a fibonacci function",
		MaxIterations: 10,
	}
}

func waitForStatus(t *testing.T, q *Queue, id string, want models.JobStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status, _, err := q.GetStatus(id)
		require.NoError(t, err)
		if status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", id, want)
}

func TestEnqueueAndProcessSucceeds(t *testing.T) {
	q := New(testQueueConfig(), &fakeExecutor{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Shutdown()

	job, err := q.Enqueue(context.Background(), testReq(), "")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, job.Status)

	waitForStatus(t, q, job.ID, models.JobStatusCompleted)

	result, err := q.GetResult(job.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.PipelineStatusSuccess, result.Status)
}

func TestEnqueueAtCapacityBlocksUntilCancelled(t *testing.T) {
	cfg := testQueueConfig()
	cfg.Capacity = 1
	cfg.WorkerCount = 0 // never drains, so the channel stays full
	q := New(cfg, &fakeExecutor{})

	_, err := q.Enqueue(context.Background(), testReq(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = q.Enqueue(ctx, testReq(), "")
	assert.ErrorIs(t, err, ErrEnqueueCancelled)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestEnqueueAtCapacityUnblocksWhenRoomFrees(t *testing.T) {
	cfg := testQueueConfig()
	cfg.Capacity = 1
	cfg.WorkerCount = 1
	q := New(cfg, &fakeExecutor{delay: 50 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Shutdown()

	first, err := q.Enqueue(context.Background(), testReq(), "")
	require.NoError(t, err)
	waitForStatus(t, q, first.ID, models.JobStatusRunning)

	second, err := q.Enqueue(context.Background(), testReq(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, second.ID)
}

func TestGetJobUnknownReturnsNotFound(t *testing.T) {
	q := New(testQueueConfig(), &fakeExecutor{})
	_, err := q.GetJob("does-not-exist")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestCancelQueuedJobBeforeClaim(t *testing.T) {
	cfg := testQueueConfig()
	cfg.WorkerCount = 0
	q := New(cfg, &fakeExecutor{})

	job, err := q.Enqueue(context.Background(), testReq(), "")
	require.NoError(t, err)

	require.NoError(t, q.Cancel(job.ID))

	got, err := q.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, got.Status)
}

func TestCancelRunningJobCancelsContext(t *testing.T) {
	q := New(testQueueConfig(), &fakeExecutor{delay: 500 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Shutdown()

	job, err := q.Enqueue(context.Background(), testReq(), "")
	require.NoError(t, err)

	waitForStatus(t, q, job.ID, models.JobStatusRunning)
	require.NoError(t, q.Cancel(job.ID))

	waitForStatus(t, q, job.ID, models.JobStatusCancelled)
}

func TestListUserJobsFiltersByUser(t *testing.T) {
	cfg := testQueueConfig()
	cfg.WorkerCount = 0
	q := New(cfg, &fakeExecutor{})

	reqA := testReq()
	reqA.UserID = "alice"
	reqB := testReq()
	reqB.UserID = "bob"

	_, err := q.Enqueue(context.Background(), reqA, "")
	require.NoError(t, err)
	_, err = q.Enqueue(context.Background(), reqB, "")
	require.NoError(t, err)

	jobs := q.ListUserJobs("alice", 10)
	require.Len(t, jobs, 1)
	assert.Equal(t, "alice", jobs[0].Request.UserID)
}

func TestListUserJobsRespectsLimit(t *testing.T) {
	cfg := testQueueConfig()
	cfg.WorkerCount = 0
	q := New(cfg, &fakeExecutor{})

	for i := 0; i < 3; i++ {
		req := testReq()
		req.UserID = "alice"
		_, err := q.Enqueue(context.Background(), req, "")
		require.NoError(t, err)
	}

	jobs := q.ListUserJobs("alice", 2)
	require.Len(t, jobs, 2)
}

func TestWebhookDeliveredOnCompletion(t *testing.T) {
	var received struct {
		JobID      string `json:"job_id"`
		ProjectID  string `json:"project_id"`
		Status     string `json:"status"`
		Success    bool   `json:"success"`
		Iterations int    `json:"iterations"`
		DurationMs int64  `json:"duration_ms"`
		Error      string `json:"error,omitempty"`
	}
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
		close(done)
	}))
	defer srv.Close()

	q := New(testQueueConfig(), &fakeExecutor{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Shutdown()

	job, err := q.Enqueue(context.Background(), testReq(), srv.URL)
	require.NoError(t, err)

	waitForStatus(t, q, job.ID, models.JobStatusCompleted)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was never delivered")
	}
	assert.Equal(t, job.ID, received.JobID)
	assert.Equal(t, string(models.PipelineStatusSuccess), received.Status)
	assert.True(t, received.Success)
}

func TestRetentionSweepRemovesOldJobs(t *testing.T) {
	cfg := testQueueConfig()
	cfg.WorkerCount = 0
	q := New(cfg, &fakeExecutor{})

	job, err := q.Enqueue(context.Background(), testReq(), "")
	require.NoError(t, err)

	old := time.Now().Add(-48 * time.Hour)
	q.mu.Lock()
	q.jobs[job.ID].job.Status = models.JobStatusCompleted
	q.jobs[job.ID].job.CompletedAt = &old
	q.mu.Unlock()

	q.sweepExpiredJobs()

	_, err = q.GetJob(job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}
