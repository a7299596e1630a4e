package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/loopforge/engine/pkg/config"
	"github.com/loopforge/engine/pkg/models"
)

// InMemory is the default Limiter: per-key usage windows held in maps
// guarded by a single mutex, grounded on pkg/runbook/cache.go's
// RWMutex-plus-lazy-expiry cache shape (collapsed to one mutex here since
// Check and Record both mutate, not just read).
type InMemory struct {
	cfg *config.RateLimitConfig

	mu       sync.Mutex
	users    map[string]*models.UserUsage
	projects map[string]*models.ProjectUsage
}

// New builds an InMemory limiter from the rate limit configuration section.
func New(cfg *config.RateLimitConfig) *InMemory {
	return &InMemory{
		cfg:      cfg,
		users:    make(map[string]*models.UserUsage),
		projects: make(map[string]*models.ProjectUsage),
	}
}

func (l *InMemory) userUsage(id string) *models.UserUsage {
	u, ok := l.users[id]
	if !ok {
		u = &models.UserUsage{}
		l.users[id] = u
	}
	return u
}

func (l *InMemory) projectUsage(id string) *models.ProjectUsage {
	p, ok := l.projects[id]
	if !ok {
		p = &models.ProjectUsage{}
		l.projects[id] = p
	}
	return p
}

// Check implements the deny-policy order of §4.5: minute rate, hour rate,
// user daily cost, project daily cost, project concurrency. On success it
// reserves one request slot and one concurrent-execution slot.
func (l *InMemory) Check(ctx context.Context, projectID, userID string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	u := l.userUsage(userID)
	p := l.projectUsage(projectID)

	u.RequestTimestamps = models.PruneRequests(u.RequestTimestamps, now)
	u.CostEntries = models.PruneCosts(u.CostEntries, now)
	p.CostEntries = models.PruneCosts(p.CostEntries, now)

	minuteCount := countSince(u.RequestTimestamps, now.Add(-time.Minute))
	if minuteCount >= l.cfg.MaxRequestsPerMinute {
		return deny(fmt.Sprintf("rate limit exceeded: max %d requests per minute", l.cfg.MaxRequestsPerMinute), 60), nil
	}

	hourCount := countSince(u.RequestTimestamps, now.Add(-time.Hour))
	if hourCount >= l.cfg.MaxRequestsPerHour {
		return deny(fmt.Sprintf("rate limit exceeded: max %d requests per hour", l.cfg.MaxRequestsPerHour), 3600), nil
	}

	userDailyCost := sumCostsSince(u.CostEntries, utcMidnight(now))
	if userDailyCost >= l.cfg.MaxDailyCostPerUser {
		retry := int(nextUTCMidnight(now).Sub(now).Seconds())
		return deny(fmt.Sprintf("daily cost cap of %.2f exceeded for user", l.cfg.MaxDailyCostPerUser), retry), nil
	}

	projectDailyCost := sumCostsSince(p.CostEntries, utcMidnight(now))
	if projectDailyCost >= l.cfg.MaxDailyCostPerProject {
		retry := int(nextUTCMidnight(now).Sub(now).Seconds())
		return deny(fmt.Sprintf("daily cost cap of %.2f exceeded for project", l.cfg.MaxDailyCostPerProject), retry), nil
	}

	if p.ActiveExecutions >= l.cfg.MaxConcurrentExecutionsPerProject {
		return deny(fmt.Sprintf("max %d concurrent executions per project exceeded", l.cfg.MaxConcurrentExecutionsPerProject), 10), nil
	}

	u.RequestTimestamps = append(u.RequestTimestamps, now)
	p.ActiveExecutions++

	return &Outcome{
		Allowed:            true,
		RemainingRequests:  l.cfg.MaxRequestsPerMinute - minuteCount - 1,
		RemainingDailyCost: max0(l.cfg.MaxDailyCostPerProject - projectDailyCost),
	}, nil
}

func deny(message string, retryAfterSeconds int) *Outcome {
	return &Outcome{Allowed: false, Message: message, RetryAfterSeconds: retryAfterSeconds}
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Record implements the §4.5 cost formula directly over PipelineResult,
// rather than through config.RateLimitConfig.EstimateCost (that helper
// folds in exactly one CostPerIteration per call and takes a single token
// count — it is shaped for "cost of one iteration", not "cost of a whole
// multi-iteration pipeline run"). Cost = iterations*CostPerIteration +
// total_tokens*CostPerToken + total_duration_seconds*CostPerExecutionSecond
// + sandbox_phase_count*CostPerSandboxExecution, rounded to 4 decimals.
func (l *InMemory) Record(ctx context.Context, projectID, userID string, result *models.PipelineResult) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
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

	entry := models.CostEntry{Timestamp: now, Amount: cost}

	u := l.userUsage(userID)
	u.CostEntries = append(u.CostEntries, entry)

	p := l.projectUsage(projectID)
	p.CostEntries = append(p.CostEntries, entry)
	if p.ActiveExecutions > 0 {
		p.ActiveExecutions--
	}

	return cost, nil
}

// Stats reports daily/weekly/monthly cost and request-count windows.
func (l *InMemory) Stats(ctx context.Context, projectID, userID string) (*Stats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	u := l.userUsage(userID)
	p := l.projectUsage(projectID)

	dayStart := utcMidnight(now)
	weekStart := utcWeekStart(now)
	monthStart := utcMonthStart(now)

	return &Stats{
		DailyCost:       sumCostsSince(p.CostEntries, dayStart),
		WeeklyCost:      sumCostsSince(p.CostEntries, weekStart),
		MonthlyCost:     sumCostsSince(p.CostEntries, monthStart),
		DailyRequests:   countSince(u.RequestTimestamps, dayStart),
		WeeklyRequests:  countSince(u.RequestTimestamps, weekStart),
		MonthlyRequests: countSince(u.RequestTimestamps, monthStart),
	}, nil
}

// Reset clears a project's rolling usage state.
func (l *InMemory) Reset(ctx context.Context, projectID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.projects, projectID)
	return nil
}
