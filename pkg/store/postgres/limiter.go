package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/loopforge/engine/pkg/config"
	"github.com/loopforge/engine/pkg/models"
	"github.com/loopforge/engine/pkg/ratelimit"
)

// Limiter is the durable ratelimit.Limiter backed by Postgres. Same
// deny-policy order and cost formula as ratelimit.InMemory (§4.5); only the
// storage of request timestamps, cost entries, and the per-project
// active-executions counter moves from process maps to tables.
type Limiter struct {
	client *Client
	cfg    *config.RateLimitConfig
}

// NewLimiter builds a durable Limiter over an already-migrated Client.
func NewLimiter(client *Client, cfg *config.RateLimitConfig) *Limiter {
	return &Limiter{client: client, cfg: cfg}
}

var _ ratelimit.Limiter = (*Limiter)(nil)

// Check evaluates the same deny-policy order as the in-memory limiter,
// inside a single serializable transaction so the read-then-reserve
// sequence (count requests, sum costs, check concurrency, then insert/
// increment) is atomic per key.
func (l *Limiter) Check(ctx context.Context, projectID, userID string) (*ratelimit.Outcome, error) {
	tx, err := l.client.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("beginning check transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	var minuteCount int
	if err := tx.QueryRow(ctx,
		`SELECT count(*) FROM user_requests WHERE user_id = $1 AND requested_at >= $2`,
		userID, now.Add(-time.Minute)).Scan(&minuteCount); err != nil {
		return nil, fmt.Errorf("counting minute requests: %w", err)
	}
	if minuteCount >= l.cfg.MaxRequestsPerMinute {
		return deny(fmt.Sprintf("rate limit exceeded: max %d requests per minute", l.cfg.MaxRequestsPerMinute), 60), nil
	}

	var hourCount int
	if err := tx.QueryRow(ctx,
		`SELECT count(*) FROM user_requests WHERE user_id = $1 AND requested_at >= $2`,
		userID, now.Add(-time.Hour)).Scan(&hourCount); err != nil {
		return nil, fmt.Errorf("counting hour requests: %w", err)
	}
	if hourCount >= l.cfg.MaxRequestsPerHour {
		return deny(fmt.Sprintf("rate limit exceeded: max %d requests per hour", l.cfg.MaxRequestsPerHour), 3600), nil
	}

	dayStart := utcMidnight(now)

	var userDailyCost float64
	if err := tx.QueryRow(ctx,
		`SELECT coalesce(sum(amount), 0) FROM cost_entries WHERE scope = 'user' AND scope_key = $1 AND recorded_at >= $2`,
		userID, dayStart).Scan(&userDailyCost); err != nil {
		return nil, fmt.Errorf("summing user daily cost: %w", err)
	}
	if userDailyCost >= l.cfg.MaxDailyCostPerUser {
		return deny(fmt.Sprintf("daily cost cap of %.2f exceeded for user", l.cfg.MaxDailyCostPerUser), int(nextUTCMidnight(now).Sub(now).Seconds())), nil
	}

	var projectDailyCost float64
	if err := tx.QueryRow(ctx,
		`SELECT coalesce(sum(amount), 0) FROM cost_entries WHERE scope = 'project' AND scope_key = $1 AND recorded_at >= $2`,
		projectID, dayStart).Scan(&projectDailyCost); err != nil {
		return nil, fmt.Errorf("summing project daily cost: %w", err)
	}
	if projectDailyCost >= l.cfg.MaxDailyCostPerProject {
		return deny(fmt.Sprintf("daily cost cap of %.2f exceeded for project", l.cfg.MaxDailyCostPerProject), int(nextUTCMidnight(now).Sub(now).Seconds())), nil
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO project_executions (project_id, active_executions) VALUES ($1, 0) ON CONFLICT DO NOTHING`,
		projectID); err != nil {
		return nil, fmt.Errorf("seeding project execution row: %w", err)
	}

	var activeExecutions int
	if err := tx.QueryRow(ctx,
		`SELECT active_executions FROM project_executions WHERE project_id = $1 FOR UPDATE`,
		projectID).Scan(&activeExecutions); err != nil {
		return nil, fmt.Errorf("locking project execution row: %w", err)
	}

	if activeExecutions >= l.cfg.MaxConcurrentExecutionsPerProject {
		return deny(fmt.Sprintf("max %d concurrent executions per project exceeded", l.cfg.MaxConcurrentExecutionsPerProject), 10), nil
	}

	if _, err := tx.Exec(ctx, `INSERT INTO user_requests (user_id, requested_at) VALUES ($1, $2)`, userID, now); err != nil {
		return nil, fmt.Errorf("recording request timestamp: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE project_executions SET active_executions = active_executions + 1 WHERE project_id = $1`, projectID); err != nil {
		return nil, fmt.Errorf("incrementing active executions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing check transaction: %w", err)
	}

	return &ratelimit.Outcome{
		Allowed:            true,
		RemainingRequests:  l.cfg.MaxRequestsPerMinute - minuteCount - 1,
		RemainingDailyCost: max0(l.cfg.MaxDailyCostPerProject - projectDailyCost),
	}, nil
}

// Record books the completed run's cost and releases the reserved
// concurrent-execution slot, using the identical formula to
// ratelimit.InMemory.Record (§4.5).
func (l *Limiter) Record(ctx context.Context, projectID, userID string, result *models.PipelineResult) (float64, error) {
	var seconds float64
	if result.TotalDuration != nil {
		seconds = result.TotalDuration.Seconds()
	}

	cost := round4(
		float64(result.Iterations)*l.cfg.CostPerIteration +
			float64(result.TotalTokensUsed())*l.cfg.CostPerToken +
			seconds*l.cfg.CostPerExecutionSecond +
			float64(result.SandboxPhaseCount())*l.cfg.CostPerSandboxExecution,
	)

	tx, err := l.client.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning record transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `INSERT INTO cost_entries (scope, scope_key, amount, recorded_at) VALUES ('user', $1, $2, $3)`, userID, cost, now); err != nil {
		return 0, fmt.Errorf("recording user cost entry: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO cost_entries (scope, scope_key, amount, recorded_at) VALUES ('project', $1, $2, $3)`, projectID, cost, now); err != nil {
		return 0, fmt.Errorf("recording project cost entry: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE project_executions SET active_executions = GREATEST(active_executions - 1, 0) WHERE project_id = $1`,
		projectID); err != nil {
		return 0, fmt.Errorf("releasing active execution slot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing record transaction: %w", err)
	}
	return cost, nil
}

// Stats reports windowed cost/request aggregates, mirroring
// ratelimit.InMemory.Stats.
func (l *Limiter) Stats(ctx context.Context, projectID, userID string) (*ratelimit.Stats, error) {
	now := time.Now().UTC()
	dayStart := utcMidnight(now)
	weekStart := utcWeekStart(now)
	monthStart := utcMonthStart(now)

	stats := &ratelimit.Stats{}

	row := l.client.pool.QueryRow(ctx, `
		SELECT
			coalesce(sum(amount) FILTER (WHERE recorded_at >= $2), 0),
			coalesce(sum(amount) FILTER (WHERE recorded_at >= $3), 0),
			coalesce(sum(amount) FILTER (WHERE recorded_at >= $4), 0)
		FROM cost_entries WHERE scope = 'project' AND scope_key = $1`,
		projectID, dayStart, weekStart, monthStart)
	if err := row.Scan(&stats.DailyCost, &stats.WeeklyCost, &stats.MonthlyCost); err != nil {
		return nil, fmt.Errorf("summing project cost windows: %w", err)
	}

	row = l.client.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE requested_at >= $2),
			count(*) FILTER (WHERE requested_at >= $3),
			count(*) FILTER (WHERE requested_at >= $4)
		FROM user_requests WHERE user_id = $1`,
		userID, dayStart, weekStart, monthStart)
	if err := row.Scan(&stats.DailyRequests, &stats.WeeklyRequests, &stats.MonthlyRequests); err != nil {
		return nil, fmt.Errorf("counting user request windows: %w", err)
	}

	return stats, nil
}

// Reset clears a project's durable usage state.
func (l *Limiter) Reset(ctx context.Context, projectID string) error {
	tx, err := l.client.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning reset transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cost_entries WHERE scope = 'project' AND scope_key = $1`, projectID); err != nil {
		return fmt.Errorf("deleting project cost entries: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM project_executions WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("deleting project execution row: %w", err)
	}
	return tx.Commit(ctx)
}

func deny(message string, retryAfterSeconds int) *ratelimit.Outcome {
	return &ratelimit.Outcome{Allowed: false, Message: message, RetryAfterSeconds: retryAfterSeconds}
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func utcMidnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func utcWeekStart(t time.Time) time.Time {
	midnight := utcMidnight(t)
	offset := (int(midnight.Weekday()) + 6) % 7 // Monday = start of week
	return midnight.AddDate(0, 0, -offset)
}

func utcMonthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func nextUTCMidnight(t time.Time) time.Time {
	return utcMidnight(t).AddDate(0, 0, 1)
}
