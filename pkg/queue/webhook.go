package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/loopforge/engine/pkg/models"
)

// webhookPayload is the wire shape §6 and §4.7 step 6 mandate for job
// completion notifications — deliberately narrower than PipelineResult so a
// consumer gets a stable, job-correlatable summary rather than the full
// internal result.
type webhookPayload struct {
	JobID      string  `json:"job_id"`
	ProjectID  string  `json:"project_id"`
	Status     string  `json:"status"`
	Success    bool    `json:"success"`
	Iterations int     `json:"iterations"`
	DurationMs int64   `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

// deliverWebhook POSTs the completed job's result to url. Delivery is
// best-effort: failures are logged, never returned, since a webhook
// outage must not affect a job's own terminal status. Shaped after
// pkg/slack/client.go's bounded-timeout, log-on-failure notification
// calls, over plain net/http instead of a chat SDK.
func deliverWebhook(ctx context.Context, client *http.Client, url, jobID string, result *models.PipelineResult) {
	var durationMs int64
	if result.TotalDuration != nil {
		durationMs = result.TotalDuration.Milliseconds()
	}

	payload := webhookPayload{
		JobID:      jobID,
		ProjectID:  result.ProjectID,
		Status:     string(result.Status),
		Success:    result.Status == models.PipelineStatusSuccess,
		Iterations: result.Iterations,
		DurationMs: durationMs,
		Error:      result.ErrorMessage,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal webhook payload", "url", url, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		slog.Error("failed to build webhook request", "url", url, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		slog.Error("webhook delivery failed", "url", url, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.Warn("webhook endpoint returned non-2xx", "url", url, "status", resp.StatusCode)
	}
}
