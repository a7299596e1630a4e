package ratelimit

import (
	"context"

	"github.com/loopforge/engine/pkg/models"
)

// Outcome is the result of an admission Check (§4.5).
type Outcome struct {
	Allowed            bool
	Message            string
	RetryAfterSeconds  int
	RemainingRequests  int
	RemainingDailyCost float64
}

// Stats is a point-in-time snapshot of a user/project's usage windows.
type Stats struct {
	DailyCost       float64
	WeeklyCost      float64
	MonthlyCost     float64
	DailyRequests   int
	WeeklyRequests  int
	MonthlyRequests int
}

// Limiter is the RateLimiter contract (§4.5). Two implementations satisfy
// it: InMemory here, and pkg/store/postgres's durable variant.
type Limiter interface {
	// Check evaluates admission for a new pipeline run against the deny
	// policies in order (minute → hour → user daily cost → project daily
	// cost → project concurrency) and, if allowed, reserves a request slot
	// and a concurrent-execution slot.
	Check(ctx context.Context, projectID, userID string) (*Outcome, error)

	// Record books the cost of a completed pipeline run against both the
	// user and the project, and releases the concurrent-execution slot
	// reserved by Check. Returns the cost recorded, rounded to 4 decimals.
	Record(ctx context.Context, projectID, userID string, result *models.PipelineResult) (float64, error)

	// Stats reports the current rolling usage windows for a user/project
	// pair.
	Stats(ctx context.Context, projectID, userID string) (*Stats, error)

	// Reset clears a project's usage state (administrative override).
	Reset(ctx context.Context, projectID string) error
}
